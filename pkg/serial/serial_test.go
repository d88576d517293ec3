package serial_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lk2023060901/danmu-serial/internal/textfmt"
	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

const expectedMixed = "INT 1INT 2DBL 3.000000FOO"

// customSink 在 BasicSink 之上扩展出一个可被策略识别的输出上下文。
type customSink struct {
	*serial.BasicSink[[]byte]
}

// contextAwareInt 在自定义上下文中额外输出一个标记前缀。
type contextAwareInt struct{}

func (contextAwareInt) Serialize(v int, sink serial.Sink[[]byte]) ([]byte, error) {
	out := sink.Output()
	if _, ok := sink.(*customSink); ok {
		out = append(out, "CUSTOM CONTEXT: "...)
	}
	return textfmt.Int[int]{}.Serialize(v, serial.NewBasicSink(out))
}

// recordingSink 记录每一次 AdvanceTo 的游标长度。
type recordingSink struct {
	*serial.BasicSink[[]byte]
	commits []int
}

func (s *recordingSink) AdvanceTo(c []byte) []byte {
	s.commits = append(s.commits, len(c))
	return s.BasicSink.AdvanceTo(c)
}

type SerialSuite struct {
	suite.Suite

	registry *serial.Registry[[]byte]
	buf      []byte
}

func (s *SerialSuite) SetupTest() {
	s.registry = textfmt.NewRegistry()
	s.buf = make([]byte, 0, 256)
}

func (s *SerialSuite) mixedArgs() []serial.Arg[[]byte] {
	i := 2
	return []serial.Arg[[]byte]{
		serial.Value[[]byte](1),
		serial.Value[[]byte](i),
		serial.Value[[]byte](3.),
		serial.Value[[]byte]("FOO"),
	}
}

func (s *SerialSuite) TestBasicSink() {
	arr := make([]byte, 2)
	sink := serial.NewBasicSink(arr[:0])

	s.Len(sink.Output(), 0)
	s.Equal(arr, sink.AdvanceTo(arr))
	s.Equal(arr, sink.Output())

	// 以当前位置调用 AdvanceTo 是幂等的。
	s.Equal(arr, sink.AdvanceTo(sink.Output()))

	offset := serial.NewBasicSink(10)
	s.Equal(10, offset.Output())
	s.Equal(25, offset.AdvanceTo(25))
	s.Equal(25, offset.Output())
}

func (s *SerialSuite) TestBasicSinkZeroValuePanics() {
	var sink serial.BasicSink[int]
	s.Panics(func() { sink.Output() })
	s.Panics(func() { sink.AdvanceTo(1) })
}

func (s *SerialSuite) TestSerializeNoArgs() {
	sink := serial.NewBasicSink(s.buf)
	s.NoError(serial.Serialize(s.registry, sink))
	s.Len(sink.Output(), 0)
	s.Equal(cap(s.buf), cap(sink.Output()))

	// 没有参数时 sink 可以为 nil。
	s.NoError(serial.Serialize[[]byte](s.registry, nil))
}

func (s *SerialSuite) TestSerializeMixed() {
	sink := serial.NewBasicSink(s.buf)
	s.Require().NoError(serial.Serialize(s.registry, sink, s.mixedArgs()...))

	s.Equal(expectedMixed, string(sink.Output()))
	s.Len(sink.Output(), len(expectedMixed))
}

func (s *SerialSuite) TestSerializeOverride() {
	sink := serial.NewBasicSink(s.buf)
	err := serial.Serialize(s.registry, sink,
		serial.Pair[[]byte](1, serial.Strategy[int, []byte](textfmt.IntWithPrefix[int]("FOO "))))
	s.Require().NoError(err)
	s.Equal("FOO 1", string(sink.Output()))

	// 覆盖只作用于当前这个值。
	s.Require().NoError(serial.Serialize(s.registry, sink, serial.Value[[]byte](1)))
	s.Equal("FOO 1INT 1", string(sink.Output()))
}

func (s *SerialSuite) TestSerializeCustomSink() {
	r := serial.NewRegistry[[]byte]()
	s.Require().NoError(serial.RegisterDefault[int, contextAwareInt](r))
	s.Require().NoError(serial.RegisterDefault[float64, textfmt.Float[float64]](r))
	s.Require().NoError(serial.RegisterDefault[string, textfmt.String](r))

	sink := &customSink{BasicSink: serial.NewBasicSink(s.buf)}
	s.Require().NoError(serial.Serialize[[]byte](r, sink))
	s.Len(sink.Output(), 0)

	s.Require().NoError(serial.Serialize[[]byte](r, sink, s.mixedArgs()...))
	expected := "CUSTOM CONTEXT: INT 1CUSTOM CONTEXT: INT 2DBL 3.000000FOO"
	s.Equal(expected, string(sink.Output()))

	// 同样的注册表在 BasicSink 上不输出标记。
	out, err := serial.SerializeInto(r, s.buf[:0], s.mixedArgs()...)
	s.Require().NoError(err)
	s.Equal(expectedMixed, string(out))
}

func (s *SerialSuite) TestSerializeInto() {
	begin := s.buf[:0]

	end, err := serial.SerializeInto(s.registry, begin)
	s.Require().NoError(err)
	s.Len(end, 0)
	s.Equal(cap(begin), cap(end))

	end, err = serial.SerializeInto(s.registry, begin, s.mixedArgs()...)
	s.Require().NoError(err)
	s.Equal(len(expectedMixed), len(end))
	s.Equal(expectedMixed, string(end))

	end, err = serial.SerializeInto(s.registry, begin,
		serial.Pair[[]byte](2, serial.Strategy[int, []byte](textfmt.IntWithPrefix[int]("FOO "))))
	s.Require().NoError(err)
	s.Equal("FOO 2", string(end))
}

func (s *SerialSuite) TestConcatenationLaw() {
	one := serial.NewBasicSink(make([]byte, 0, 64))
	s.Require().NoError(serial.Serialize(s.registry, one, serial.Value[[]byte](1)))
	s.Require().NoError(serial.Serialize(s.registry, one, serial.Value[[]byte](2)))

	both := serial.NewBasicSink(make([]byte, 0, 64))
	s.Require().NoError(serial.Serialize(s.registry, both, serial.Value[[]byte](1), serial.Value[[]byte](2)))

	s.Equal(string(both.Output()), string(one.Output()))
	s.Equal(len(both.Output()), len(one.Output()))
}

func (s *SerialSuite) TestDefaultResolutionMatchesExplicitDefault() {
	bare, err := serial.SerializeInto(s.registry, nil, serial.Value[[]byte](7))
	s.Require().NoError(err)

	paired, err := serial.SerializeInto[[]byte](nil, nil,
		serial.Pair[[]byte](7, serial.Strategy[int, []byte](textfmt.Int[int]{})))
	s.Require().NoError(err)

	typed, err := serial.SerializeInto[[]byte](nil, nil, serial.Typed[[]byte, textfmt.Int[int]](7))
	s.Require().NoError(err)

	s.Equal("INT 7", string(bare))
	s.Equal(bare, paired)
	s.Equal(bare, typed)
}

func (s *SerialSuite) TestCommitEqualsStrategyResult() {
	sink := &recordingSink{BasicSink: serial.NewBasicSink(s.buf)}
	s.Require().NoError(serial.Serialize[[]byte](s.registry, sink, s.mixedArgs()...))
	s.Equal([]int{5, 10, 22, 25}, sink.commits)
}

func (s *SerialSuite) TestStrategyFailureStopsDispatch() {
	errBoom := errors.New("boom")
	failing := serial.StrategyFunc[string, []byte](func(v string, sink serial.Sink[[]byte]) ([]byte, error) {
		// 写入一部分后失败，写入的字节不会被提交。
		_ = append(sink.Output(), v...)
		return nil, errBoom
	})

	sink := &recordingSink{BasicSink: serial.NewBasicSink(s.buf)}
	err := serial.Serialize[[]byte](s.registry, sink,
		serial.Value[[]byte](1),
		serial.Pair[[]byte]("BAD", serial.Strategy[string, []byte](failing)),
		serial.Value[[]byte](2),
	)
	s.Equal(errBoom, err)
	s.Equal("INT 1", string(sink.Output()))
	s.Equal([]int{5}, sink.commits)
}

func (s *SerialSuite) TestUnknownType() {
	type unknown struct{ X int }

	end, err := serial.SerializeInto(s.registry, s.buf,
		serial.Value[[]byte](1),
		serial.Value[[]byte](unknown{X: 1}),
		serial.Value[[]byte](2),
	)
	s.ErrorIs(err, merr.ErrStrategyNotFound)
	s.Contains(err.Error(), "unknown")
	s.Equal("INT 1", string(end))

	_, err = serial.SerializeInto[[]byte](nil, nil, serial.Value[[]byte](1))
	s.ErrorIs(err, merr.ErrStrategyNotFound)

	_, err = serial.SerializeInto(s.registry, nil, serial.Dynamic[[]byte](nil))
	s.ErrorIs(err, merr.ErrStrategyNotFound)
}

func (s *SerialSuite) TestInvalidArgs() {
	_, err := serial.SerializeInto(s.registry, nil, serial.Pair[[]byte, int](1, nil))
	s.ErrorIs(err, merr.ErrStrategyInvalid)

	_, err = serial.SerializeInto(s.registry, nil, nil)
	s.ErrorIs(err, merr.ErrParameterInvalid)

	err = serial.Serialize[[]byte](s.registry, nil, serial.Value[[]byte](1))
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *SerialSuite) TestDynamicValues() {
	args := serial.Values[[]byte](1, 2, 3.0, "FOO")
	end, err := serial.SerializeInto(s.registry, s.buf, args...)
	s.Require().NoError(err)
	s.Equal(expectedMixed, string(end))

	// 已经是 Arg 的参数原样保留。
	args = serial.Values[[]byte](
		serial.Pair[[]byte](1, serial.Strategy[int, []byte](textfmt.IntWithPrefix[int]("FOO "))),
		"BAR",
	)
	end, err = serial.SerializeInto(s.registry, s.buf, args...)
	s.Require().NoError(err)
	s.Equal("FOO 1BAR", string(end))
}

func (s *SerialSuite) TestRegistry() {
	r := serial.NewRegistry[[]byte]()
	calls := 0
	factory := func() serial.Strategy[int, []byte] {
		calls++
		return textfmt.Int[int]{}
	}
	s.Require().NoError(serial.Register(r, factory))
	s.ErrorIs(serial.Register(r, factory), merr.ErrStrategyConflict)
	s.ErrorIs(serial.RegisterDefault[int, textfmt.Int[int]](r), merr.ErrStrategyConflict)
	s.ErrorIs(serial.Register[string, []byte](r, nil), merr.ErrStrategyInvalid)
	s.ErrorIs(serial.Register[string, []byte](nil, nil), merr.ErrParameterInvalid)

	// 每次解析都会重新缺省构造策略。
	_, err := serial.Lookup[int](r)
	s.Require().NoError(err)
	_, err = serial.Lookup[int](r)
	s.Require().NoError(err)
	s.Equal(2, calls)

	_, err = serial.Lookup[string](r)
	s.ErrorIs(err, merr.ErrStrategyNotFound)

	s.True(r.Has(reflect.TypeFor[int]()))
	s.False(r.Has(reflect.TypeFor[int64]()))
	s.False(r.Has(nil))

	s.Panics(func() { serial.MustRegister(r, factory) })
	s.Equal([]string{"float32", "float64", "int", "int16", "int32", "int64", "int8", "string", "uint", "uint16", "uint32", "uint64", "uint8"}, s.registry.Types())
	s.Nil((*serial.Registry[[]byte])(nil).Types())
}

func (s *SerialSuite) TestFactoryReturnsNil() {
	r := serial.NewRegistry[[]byte]()
	s.Require().NoError(serial.Register(r, func() serial.Strategy[int, []byte] { return nil }))

	_, err := serial.Lookup[int](r)
	s.ErrorIs(err, merr.ErrStrategyInvalid)

	end, err := serial.SerializeInto(r, []byte("x"), serial.Value[[]byte](1))
	s.ErrorIs(err, merr.ErrStrategyInvalid)
	s.Equal("x", string(end))

	end, err = serial.SerializeInto(r, []byte("x"), serial.Dynamic[[]byte](1))
	s.ErrorIs(err, merr.ErrStrategyInvalid)
	s.Equal("x", string(end))
}

func (s *SerialSuite) TestExactTypeMatch() {
	type myInt int

	_, err := serial.SerializeInto(s.registry, nil, serial.Value[[]byte](myInt(1)))
	s.ErrorIs(err, merr.ErrStrategyNotFound)

	var boxed any = 1
	_, err = serial.SerializeInto(s.registry, nil, serial.Value[[]byte](boxed))
	s.ErrorIs(err, merr.ErrStrategyNotFound)

	end, err := serial.SerializeInto(s.registry, nil, serial.Dynamic[[]byte](boxed))
	s.Require().NoError(err)
	s.Equal("INT 1", string(end))
}

func (s *SerialSuite) TestDispatcher() {
	var events []serial.Event
	d := serial.NewDispatcher(s.registry,
		serial.WithName("test"),
		serial.WithObserver(serial.ObserverFunc(func(ev serial.Event) {
			events = append(events, ev)
		})),
	)
	s.Same(s.registry, d.Registry())

	end, err := d.SerializeInto(context.Background(), s.buf, s.mixedArgs()...)
	s.Require().NoError(err)
	s.Equal(expectedMixed, string(end))
	s.Require().Len(events, 4)
	s.Equal([]string{"int", "int", "float64", "string"}, []string{events[0].Type, events[1].Type, events[2].Type, events[3].Type})
	for i, ev := range events {
		s.Equal("test", ev.Dispatcher)
		s.Equal(i, ev.Index)
		s.NoError(ev.Err)
	}

	events = events[:0]
	sink := serial.NewBasicSink(s.buf)
	err = d.Serialize(context.Background(), sink, serial.Value[[]byte](1), serial.Value[[]byte](struct{}{}))
	s.ErrorIs(err, merr.ErrStrategyNotFound)
	s.Require().Len(events, 2)
	s.Equal("struct {}", events[1].Type)
	s.ErrorIs(events[1].Err, merr.ErrStrategyNotFound)
	s.Equal("INT 1", string(sink.Output()))

	events = events[:0]
	s.NoError(d.Serialize(context.Background(), sink))
	s.Empty(events)
}

func (s *SerialSuite) TestDispatcherLogger() {
	core, logs := observer.New(zapcore.DebugLevel)
	d := serial.NewDispatcher(s.registry,
		serial.WithName("logger-test"),
		serial.WithLogger(&log.MLogger{Logger: zap.New(core)}),
	)

	_, err := d.SerializeInto(context.Background(), nil, serial.Value[[]byte](struct{}{}))
	s.ErrorIs(err, merr.ErrStrategyNotFound)

	entries := logs.FilterMessage("serialize value failed").All()
	s.Require().Len(entries, 1)
	fields := entries[0].ContextMap()
	s.Equal("dispatcher", fields[log.FieldNameComponent])
	s.Equal("logger-test", fields["name"])

	// 替换基础 Logger 后仍使用 Dispatcher 自己的限流分组。
	passed := 0
	for i := 0; i < 100; i++ {
		if d.Logger().RatedWarn(1, "rated") {
			passed++
		}
	}
	s.LessOrEqual(passed, 11)
	s.Positive(passed)
}

func TestSerial(t *testing.T) {
	suite.Run(t, new(SerialSuite))
}
