// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/pkg/log"
)

// poolOption 收集 Pool 的可选配置，最终转换为 ants.Option。
type poolOption struct {
	preAlloc       bool
	nonBlocking    bool
	disablePurge   bool
	expiryDuration time.Duration

	// concealPanic 为 true 时任务 panic 只记录日志，不再向上抛出。
	concealPanic bool
	panicHandler func(any)

	// preHandler 在每个任务执行前调用，例如绑定 goroutine 级别的资源。
	preHandler func()
}

// PoolOption 用于配置协程池行为的选项函数。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{}
}

func (opt *poolOption) onPanic(v any) {
	if opt.panicHandler != nil {
		opt.panicHandler(v)
		return
	}
	log.Error("conc pool panicked", zap.Any("panic", v), zap.Stack("stack"))
	if !opt.concealPanic {
		panic(v)
	}
}

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithDisablePurge(opt.disablePurge),
		// ants 会 recover 任务中的 panic，但不会把它交还给调用方。
		ants.WithPanicHandler(opt.onPanic),
	}
	if opt.expiryDuration > 0 {
		result = append(result, ants.WithExpiryDuration(opt.expiryDuration))
	}
	return result
}

// WithPreAlloc 预先分配全部 worker，适合容量固定且任务密集的场景。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) { opt.preAlloc = v }
}

// WithNonBlocking 为 true 时池满直接返回 ants.ErrPoolOverload，由 Future 携带。
func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) { opt.nonBlocking = v }
}

func WithDisablePurge(v bool) PoolOption {
	return func(opt *poolOption) { opt.disablePurge = v }
}

func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) { opt.expiryDuration = d }
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) { opt.concealPanic = v }
}

// WithPanicHandler 替换缺省的 panic 处理逻辑（记录日志后重新 panic）。
func WithPanicHandler(fn func(any)) PoolOption {
	return func(opt *poolOption) { opt.panicHandler = fn }
}

func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) { opt.preHandler = fn }
}
