// Package batch 在协程池上并发执行多组互不相关的分发。
//
// 每组参数拥有独立的 BasicSink，组内仍严格按从左到右顺序提交；
// 组与组之间没有顺序关系，结果按提交顺序返回。
package batch

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/pkg/log"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
	"github.com/lk2023060901/danmu-serial/pkg/util/conc"
)

// Job 是一组参数及其初始游标。
type Job[C any] struct {
	First C
	Args  []serial.Arg[C]
}

// NewJob 以 first 为初始游标构造 Job。
func NewJob[C any](first C, args ...serial.Arg[C]) Job[C] {
	return Job[C]{First: first, Args: args}
}

// NewPool 创建供 Encoder 使用的协程池。
//
// 策略 panic 时只记录日志，由对应 Job 的错误返回给 Encode 的调用方；
// conc 的缺省行为是在 worker 上重新 panic，会导致进程退出。
func NewPool[C any](cap int, opts ...conc.PoolOption) (*conc.Pool[C], error) {
	return conc.NewPool[C](cap, append([]conc.PoolOption{conc.WithConcealPanic(true)}, opts...)...)
}

// Encoder 把 Job 提交到协程池执行。
//
// pool 应由 NewPool 创建，或自行设置 conc.WithConcealPanic / conc.WithPanicHandler。
// Dispatcher 的 Observer 会被多个 worker 并发调用，需要自行保证并发安全。
type Encoder[C any] struct {
	dispatcher *serial.Dispatcher[C]
	pool       *conc.Pool[C]
}

// NewEncoder 创建 Encoder，pool 的生命周期由调用方管理。
func NewEncoder[C any](d *serial.Dispatcher[C], pool *conc.Pool[C]) *Encoder[C] {
	return &Encoder[C]{
		dispatcher: d,
		pool:       pool,
	}
}

// Encode 并发执行 jobs，返回与 jobs 一一对应的最终游标。
//
// 失败的组返回其最后一次成功提交的游标；err 为按顺序第一个失败组的错误，
// 附带组下标，原始错误仍可通过 errors.Is 判断。
func (e *Encoder[C]) Encode(ctx context.Context, jobs ...Job[C]) ([]C, error) {
	futures := make([]*conc.Future[C], 0, len(jobs))
	for _, job := range jobs {
		job := job
		futures = append(futures, e.pool.Submit(func() (C, error) {
			return e.dispatcher.SerializeInto(ctx, job.First, job.Args...)
		}))
	}

	results := make([]C, len(jobs))
	var first error
	for i, future := range futures {
		out, err := future.Await()
		results[i] = out
		if err != nil && first == nil {
			first = errors.Wrapf(err, "job %d", i)
		}
	}
	if first != nil {
		log.Ctx(ctx).Debug("batch encode failed", zap.Int("jobs", len(jobs)), zap.Error(first))
	}
	return results, first
}
