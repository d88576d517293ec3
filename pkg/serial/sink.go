package serial

import (
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Sink 是序列化的输出上下文，只维护一个“下一次写入位置”的游标。
//
// 约定：
//   - Output 为纯读取，返回下一次写入的起始位置；
//   - AdvanceTo 将位置覆盖为 c 并返回 c，只由分发引擎在策略成功返回后调用；
//   - 游标的含义（内存切片、偏移量、流状态等）完全由 Sink 实现决定。
type Sink[C any] interface {
	Output() C
	AdvanceTo(c C) C
}

// BasicSink 是最基础的 Sink 实现：只持有一个游标，不做边界检查，也不持有缓冲区。
//
// 必须通过 NewBasicSink 显式给出初始游标；零值不可用，调用其方法会 panic。
type BasicSink[C any] struct {
	out         C
	initialized bool
}

// 编译期断言：确保 BasicSink 实现了 Sink 接口。
var _ Sink[[]byte] = (*BasicSink[[]byte])(nil)

// NewBasicSink 以 first 作为初始游标创建 BasicSink。
func NewBasicSink[C any](first C) *BasicSink[C] {
	return &BasicSink[C]{out: first, initialized: true}
}

func (s *BasicSink[C]) Output() C {
	s.mustInitialized("Output")
	return s.out
}

func (s *BasicSink[C]) AdvanceTo(c C) C {
	s.mustInitialized("AdvanceTo")
	s.out = c
	return c
}

func (s *BasicSink[C]) mustInitialized(op string) {
	if !s.initialized {
		panic(merr.WrapErrSinkUninitialized(op))
	}
}
