package serial

import (
	"reflect"

	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Arg 是传给分发引擎的单个参数，有两种形态：
//   - 裸值：由 Value/Dynamic/Typed 构造，在解析时查找缺省策略；
//   - 显式配对：由 Pair 构造，原样使用调用方给出的策略，不查注册表。
//
// 两种形态在分发前统一解析为 binding。
type Arg[C any] interface {
	resolve(r *Registry[C]) (binding[C], error)
}

// binding 是解析后的“值 + 策略”，invoke 执行一次序列化并返回新游标。
type binding[C any] struct {
	typ    reflect.Type
	invoke func(sink Sink[C]) (C, error)
}

func bind[C, T any](v T, s Strategy[T, C]) binding[C] {
	return binding[C]{
		typ: reflect.TypeFor[T](),
		invoke: func(sink Sink[C]) (C, error) {
			return s.Serialize(v, sink)
		},
	}
}

type valueArg[C, T any] struct {
	v T
}

// Value 构造一个裸值参数，按 T 的静态类型在注册表中查找缺省策略。
func Value[C, T any](v T) Arg[C] {
	return valueArg[C, T]{v: v}
}

func (a valueArg[C, T]) resolve(r *Registry[C]) (binding[C], error) {
	s, err := Lookup[T, C](r)
	if err != nil {
		return binding[C]{typ: reflect.TypeFor[T]()}, err
	}
	return bind(a.v, s), nil
}

type dynamicArg[C any] struct {
	v any
}

// Dynamic 构造一个裸值参数，按 v 的动态类型在注册表中查找缺省策略。
// 适用于只能拿到 any 的场景，例如从配置文件解码出的值。
func Dynamic[C any](v any) Arg[C] {
	return dynamicArg[C]{v: v}
}

func (a dynamicArg[C]) resolve(r *Registry[C]) (binding[C], error) {
	typ := reflect.TypeOf(a.v)
	e, err := r.lookup(typ)
	if err != nil {
		return binding[C]{typ: typ}, err
	}
	return binding[C]{
		typ: e.typ,
		invoke: func(sink Sink[C]) (C, error) {
			return e.erased(a.v, sink)
		},
	}, nil
}

type typedArg[C any, S Strategy[T, C], T any] struct {
	v T
}

// Typed 构造一个在编译期确定策略的裸值参数：使用 S 的零值作为缺省策略，不查注册表。
// S 未实现 Strategy[T, C] 时无法通过编译。
func Typed[C any, S Strategy[T, C], T any](v T) Arg[C] {
	return typedArg[C, S, T]{v: v}
}

func (a typedArg[C, S, T]) resolve(*Registry[C]) (binding[C], error) {
	var s S
	return bind[C, T](a.v, s), nil
}

type pairArg[C, T any] struct {
	v T
	s Strategy[T, C]
}

// Pair 将值与一个显式策略实例绑定，覆盖该类型在注册表中的缺省策略。
func Pair[C, T any](v T, s Strategy[T, C]) Arg[C] {
	return pairArg[C, T]{v: v, s: s}
}

func (a pairArg[C, T]) resolve(*Registry[C]) (binding[C], error) {
	if a.s == nil {
		return binding[C]{typ: reflect.TypeFor[T]()}, merr.WrapErrStrategyInvalid("nil override strategy for " + reflect.TypeFor[T]().String())
	}
	return bind(a.v, a.s), nil
}

// Values 把一组 any 提升为参数列表：已经是 Arg[C] 的原样保留，其余按 Dynamic 处理。
func Values[C any](vs ...any) []Arg[C] {
	return lo.Map(vs, func(v any, _ int) Arg[C] {
		if a, ok := v.(Arg[C]); ok {
			return a
		}
		return Dynamic[C](v)
	})
}
