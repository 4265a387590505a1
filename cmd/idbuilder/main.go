// Command idbuilder 在本地生成 Snowflake ID，或调用远程 IDBuilder 服务生成
// 自增 ID 与格式化 ID。
//
//	idbuilder snowflake next -n 10
//	idbuilder snowflake next --from-server order-id
//	idbuilder snowflake decompose 1234567890123
//	idbuilder increment invoice-no -n 5
//	idbuilder formatted invoice-no
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
