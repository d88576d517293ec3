// Package textfmt 提供把基础类型渲染为可读文本的示例策略，游标为追加式 []byte：
//
//	整数：  "INT " + 十进制
//	浮点数："DBL " + 六位小数
//	字符串：原样输出
package textfmt

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/danmu-serial/pkg/serial"
)

const (
	DefaultIntPrefix   = "INT "
	DefaultFloatPrefix = "DBL "
)

// Int 渲染整数。零值使用 DefaultIntPrefix。
type Int[T constraints.Integer] struct {
	prefix string
	custom bool
}

// IntWithPrefix 返回一个使用自定义前缀的 Int 策略。
func IntWithPrefix[T constraints.Integer](prefix string) Int[T] {
	return Int[T]{prefix: prefix, custom: true}
}

func (s Int[T]) Prefix() string {
	if s.custom {
		return s.prefix
	}
	return DefaultIntPrefix
}

func (s Int[T]) Serialize(v T, sink serial.Sink[[]byte]) ([]byte, error) {
	return fmt.Appendf(sink.Output(), "%s%d", s.Prefix(), v), nil
}

// Float 渲染浮点数，格式与 "%f" 一致。
type Float[T constraints.Float] struct{}

func (Float[T]) Serialize(v T, sink serial.Sink[[]byte]) ([]byte, error) {
	return fmt.Appendf(sink.Output(), "%s%f", DefaultFloatPrefix, v), nil
}

// String 原样输出字符串。
type String struct{}

func (String) Serialize(v string, sink serial.Sink[[]byte]) ([]byte, error) {
	return append(sink.Output(), v...), nil
}

var (
	_ serial.Strategy[int, []byte]     = Int[int]{}
	_ serial.Strategy[float64, []byte] = Float[float64]{}
	_ serial.Strategy[string, []byte]  = String{}
)

// Register 为常见的整数、浮点数与 string 类型注册缺省策略。
func Register(r *serial.Registry[[]byte]) error {
	regs := []func() error{
		func() error { return serial.RegisterDefault[int, Int[int]](r) },
		func() error { return serial.RegisterDefault[int8, Int[int8]](r) },
		func() error { return serial.RegisterDefault[int16, Int[int16]](r) },
		func() error { return serial.RegisterDefault[int32, Int[int32]](r) },
		func() error { return serial.RegisterDefault[int64, Int[int64]](r) },
		func() error { return serial.RegisterDefault[uint, Int[uint]](r) },
		func() error { return serial.RegisterDefault[uint8, Int[uint8]](r) },
		func() error { return serial.RegisterDefault[uint16, Int[uint16]](r) },
		func() error { return serial.RegisterDefault[uint32, Int[uint32]](r) },
		func() error { return serial.RegisterDefault[uint64, Int[uint64]](r) },
		func() error { return serial.RegisterDefault[float32, Float[float32]](r) },
		func() error { return serial.RegisterDefault[float64, Float[float64]](r) },
		func() error { return serial.RegisterDefault[string, String](r) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry 返回一个已经调用过 Register 的注册表。
func NewRegistry() *serial.Registry[[]byte] {
	r := serial.NewRegistry[[]byte]()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
