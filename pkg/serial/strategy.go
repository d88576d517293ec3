package serial

// Strategy 描述如何把一个 T 类型的值写入 Sink。
//
// 实现从 sink.Output() 开始写，返回写入结束后的确切游标；
// 不允许自行调用 sink.AdvanceTo，提交由分发引擎完成。
// 失败时返回 error，此时引擎不会提交任何位置。
type Strategy[T, C any] interface {
	Serialize(v T, sink Sink[C]) (C, error)
}

// StrategyFunc 让普通函数可以直接作为 Strategy 使用。
type StrategyFunc[T, C any] func(v T, sink Sink[C]) (C, error)

func (f StrategyFunc[T, C]) Serialize(v T, sink Sink[C]) (C, error) {
	return f(v, sink)
}
