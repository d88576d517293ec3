package serializer

// Serializer 抽象了“对象 <-> 字节流”的编解码能力。
//
// 它是 serial 包中字节游标策略的底层实现之一（见 pkg/serial/adapter），
// 调用方通过接口注入具体实现，便于扩展其它序列化方案。
type Serializer interface {
	// Name 返回编解码方案名，用于日志与错误信息。
	Name() string

	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象，v 通常为指针。
	Unmarshal(data []byte, v any) error
}
