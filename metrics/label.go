package metrics

// Label 指标标签，用于为指标添加维度信息
//
// 避免使用高基数标签（如 ID 本身、请求 ID），否则会导致时间序列爆炸。
type Label struct {
	Key   string
	Value string
}

// L 便捷构造函数
//
//	counter.Inc(ctx, metrics.L("key", "order-id"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
