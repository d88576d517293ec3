package serial

import (
	"reflect"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/util/merr"
)

// Registry 维护“值类型 -> 缺省策略”的映射，每个类型至多注册一个策略。
//
// 注册是开放的：任何包都可以为自己的类型注册策略，无需修改已有代码。
// 键为值的精确静态类型（reflect.TypeFor[T]），不做接口或底层类型匹配。
type Registry[C any] struct {
	log.Binder

	mu      sync.RWMutex
	entries map[reflect.Type]entry[C]
}

// entry 保存某个类型的策略工厂，以及在只知道 any 时调用该策略的桥接函数。
type entry[C any] struct {
	typ    reflect.Type
	newAny func() any
	erased func(v any, sink Sink[C]) (C, error)
}

// NewRegistry 创建一个空的 Registry。
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{
		entries: make(map[reflect.Type]entry[C]),
	}
}

// Register 为类型 T 注册缺省策略工厂。
// 每次解析都会调用 factory 构造一个新的策略实例（即“缺省构造”）。
// T 已注册时返回 ErrStrategyConflict。
func Register[T, C any](r *Registry[C], factory func() Strategy[T, C]) error {
	typ := reflect.TypeFor[T]()
	if r == nil {
		return merr.WrapErrParameterInvalid("registry", "nil", "register "+typ.String())
	}
	if factory == nil {
		return merr.WrapErrStrategyInvalid("nil factory for " + typ.String())
	}

	e := entry[C]{
		typ:    typ,
		newAny: func() any { return factory() },
		erased: func(v any, sink Sink[C]) (C, error) {
			s := factory()
			if s == nil {
				var zero C
				return zero, merr.WrapErrStrategyInvalid("factory returned nil strategy for " + typ.String())
			}
			return s.Serialize(v.(T), sink)
		},
	}

	r.mu.Lock()
	if _, ok := r.entries[typ]; ok {
		r.mu.Unlock()
		return merr.WrapErrStrategyConflict(typ)
	}
	r.entries[typ] = e
	r.mu.Unlock()

	r.Logger().Debug("strategy registered", log.FieldValueType(typ.String()))
	return nil
}

// MustRegister 与 Register 相同，失败时 panic，适合在 init 中使用。
func MustRegister[T, C any](r *Registry[C], factory func() Strategy[T, C]) {
	if err := Register(r, factory); err != nil {
		panic(err)
	}
}

// RegisterDefault 以 S 的零值作为 T 的缺省策略。
// S 必须是零值可用的值类型；S 未实现 Strategy[T, C] 时编译失败。
func RegisterDefault[T any, S Strategy[T, C], C any](r *Registry[C]) error {
	return Register(r, func() Strategy[T, C] {
		var s S
		return s
	})
}

// Lookup 缺省构造 T 的已注册策略。未注册时返回 ErrStrategyNotFound，
// 工厂返回 nil 时返回 ErrStrategyInvalid。
func Lookup[T, C any](r *Registry[C]) (Strategy[T, C], error) {
	e, err := r.lookup(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	s, ok := e.newAny().(Strategy[T, C])
	if !ok || s == nil {
		return nil, merr.WrapErrStrategyInvalid("factory returned nil strategy for " + e.typ.String())
	}
	return s, nil
}

// Has 判断类型 t 是否已注册策略。
func (r *Registry[C]) Has(t reflect.Type) bool {
	_, err := r.lookup(t)
	return err == nil
}

// Types 返回所有已注册类型的名字，按字典序排列。
func (r *Registry[C]) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := lo.MapToSlice(r.entries, func(t reflect.Type, _ entry[C]) string {
		return t.String()
	})
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

func (r *Registry[C]) lookup(t reflect.Type) (entry[C], error) {
	if r == nil || t == nil {
		return entry[C]{}, merr.WrapErrStrategyNotFound(t)
	}
	r.mu.RLock()
	e, ok := r.entries[t]
	r.mu.RUnlock()
	if !ok {
		return entry[C]{}, merr.WrapErrStrategyNotFound(t)
	}
	return e, nil
}
