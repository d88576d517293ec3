package serial

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/pkg/log"
)

// Event 描述一次单值序列化的结果，提供给 Observer。
type Event struct {
	Dispatcher string
	Index      int
	Type       string
	Duration   time.Duration
	Err        error
}

// Observer 观察分发过程中每个值的处理结果，必须是非阻塞的。
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc 让普通函数可以作为 Observer 使用。
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

type options struct {
	name     string
	observer Observer
	logger   *log.MLogger
}

type Option func(*options)

// WithName 设置 Dispatcher 名称，用于日志与指标标签。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver 设置每个值处理结束后的观察者。
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithLogger 设置 Dispatcher 日志的基础 Logger，缺省为全局 Logger。
// Dispatcher 会在其上附加组件字段并绑定 serial.dispatcher.<name> 限流分组。
func WithLogger(logger *log.MLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Dispatcher 是绑定了注册表的分发器，语义与 Serialize/SerializeInto 完全一致，
// 额外提供按值的观察回调与失败日志。Dispatcher 本身不加锁，共享 Sink 时由调用方保证串行。
type Dispatcher[C any] struct {
	log.Binder

	registry *Registry[C]
	opts     options
}

// NewDispatcher 创建一个使用 r 解析缺省策略的 Dispatcher。
func NewDispatcher[C any](r *Registry[C], opts ...Option) *Dispatcher[C] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Dispatcher[C]{
		registry: r,
		opts:     o,
	}
	base := o.logger
	if base == nil {
		base = log.With()
	}
	d.SetLogger(base.With(log.FieldComponent("dispatcher"), zap.String("name", o.name)).
		WithRateGroup("serial.dispatcher."+o.name, 1, 10))
	return d
}

// Registry 返回 Dispatcher 使用的注册表。
func (d *Dispatcher[C]) Registry() *Registry[C] {
	return d.registry
}

// Serialize 见包级 Serialize。ctx 只用于日志，分发过程不可取消。
func (d *Dispatcher[C]) Serialize(ctx context.Context, sink Sink[C], args ...Arg[C]) error {
	start := time.Now()
	err := dispatch(d.registry, sink, args, func(index int, typ reflect.Type, err error) {
		now := time.Now()
		d.observe(index, typ, now.Sub(start), err)
		start = now
	})
	if err != nil {
		log.Ctx(ctx).Debug("serialize failed",
			zap.String("dispatcher", d.opts.name),
			zap.Int("args", len(args)),
			zap.Error(err))
	}
	return err
}

// SerializeInto 见包级 SerializeInto。
func (d *Dispatcher[C]) SerializeInto(ctx context.Context, first C, args ...Arg[C]) (C, error) {
	sink := NewBasicSink(first)
	err := d.Serialize(ctx, sink, args...)
	return sink.Output(), err
}

func (d *Dispatcher[C]) observe(index int, typ reflect.Type, cost time.Duration, err error) {
	name := "<unknown>"
	if typ != nil {
		name = typ.String()
	}
	if d.opts.observer != nil {
		d.opts.observer.Observe(Event{
			Dispatcher: d.opts.name,
			Index:      index,
			Type:       name,
			Duration:   cost,
			Err:        err,
		})
	}
	if err != nil {
		d.Logger().RatedWarn(1, "serialize value failed",
			log.FieldIndex(index),
			log.FieldValueType(name),
			zap.Error(err))
	}
}
