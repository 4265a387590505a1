// Package idgen 提供本地 Snowflake ID 生成能力。
//
// 生成参数（纪元、位宽分配、WorkerID）由调用方一次性提供，之后的 ID 生成
// 不再进行任何网络调用。参数通常来自远程 IDBuilder 服务（见 client 包）、
// 配置文件，或 idgen/allocator 提供的 WorkerID 分配器。
//
// ID 布局（高位到低位）：
//
//	| 1 bit 符号位(0) | timestamp_bits | worker_id_bits | sequence_bits |
//
// 其中 timestamp_bits = 63 - worker_id_bits - sequence_bits。
//
// 使用示例:
//
//	layout, _ := idgen.NewLayout(idgen.DefaultEpochMillis, 7, 10, 12)
//	sf, _ := idgen.NewSnowflake(layout, idgen.WithLogger(logger))
//
//	id, err := sf.NextID()
//	if xerrors.Is(err, idgen.ErrClockMovedBackwards) {
//	    // 由调用方决定等待重试还是直接失败
//	}
//
//	parts := sf.Decompose(id)
//	fmt.Println(parts.TimestampOffset, parts.WorkerID, parts.Sequence)
package idgen

// Generator Snowflake 生成器接口
//
// *Snowflake 和 Handle 均实现此接口。
type Generator interface {
	// NextID 生成一个 ID
	NextID() (int64, error)

	// NextIDs 原子地生成 n 个 ID，失败时不返回任何 ID
	NextIDs(n int) ([]int64, error)

	// Decompose 将 ID 拆解为时间戳偏移、WorkerID 和序列号
	Decompose(id int64) Parts

	// Layout 返回生成器使用的位布局
	Layout() *Layout
}

var (
	_ Generator = (*Snowflake)(nil)
	_ Generator = Handle{}
)
