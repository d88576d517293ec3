package serial

import (
	"reflect"

	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Serialize 按从左到右的顺序把 args 逐个序列化到 sink。
//
// 每个参数依次完成“解析策略 -> 调用策略 -> sink.AdvanceTo(返回的游标)”之后才处理下一个；
// 没有参数时不做任何事。任一参数失败时立即返回该错误（策略返回的错误原样透传），
// 失败的参数不会提交位置，其后的参数也不会被处理。
//
// r 只在存在需要查表的参数（Value/Dynamic）时使用，可以为 nil。
func Serialize[C any](r *Registry[C], sink Sink[C], args ...Arg[C]) error {
	return dispatch(r, sink, args, nil)
}

// SerializeInto 以 first 为初始游标构造 BasicSink 并执行 Serialize，返回最终游标。
// 出错时返回最后一次成功提交的游标以及该错误。
func SerializeInto[C any](r *Registry[C], first C, args ...Arg[C]) (C, error) {
	sink := NewBasicSink(first)
	err := dispatch(r, sink, args, nil)
	return sink.Output(), err
}

// stepHook 在每个参数处理结束（成功或失败）后被调用。
type stepHook func(index int, typ reflect.Type, err error)

func dispatch[C any](r *Registry[C], sink Sink[C], args []Arg[C], hook stepHook) error {
	if len(args) == 0 {
		return nil
	}
	if sink == nil {
		return merr.WrapErrParameterInvalid("sink", "nil")
	}
	for i, arg := range args {
		typ, err := step(r, sink, arg)
		if hook != nil {
			hook(i, typ, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func step[C any](r *Registry[C], sink Sink[C], arg Arg[C]) (reflect.Type, error) {
	if arg == nil {
		return nil, merr.WrapErrParameterInvalid("arg", "nil")
	}
	b, err := arg.resolve(r)
	if err != nil {
		return b.typ, err
	}
	next, err := b.invoke(sink)
	if err != nil {
		return b.typ, err
	}
	sink.AdvanceTo(next)
	return b.typ, nil
}
