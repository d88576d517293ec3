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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/danmu-serial/pkg/serial"
)

const (
	// serialNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	serialNamespace = "serial"

	dispatchSubsystem = "dispatch"

	dispatcherLabelName = "dispatcher"
	typeLabelName       = "value_type"
	outcomeLabelName    = "outcome"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// buckets 为单值序列化耗时直方图的桶划分，单位为微秒。
	buckets = prometheus.ExponentialBuckets(1, 4, 10)

	SerialValuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serialNamespace,
			Subsystem: dispatchSubsystem,
			Name:      "values_total",
			Help:      "number of values dispatched, by value type and outcome",
		}, []string{dispatcherLabelName, typeLabelName, outcomeLabelName})

	SerialValueLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serialNamespace,
			Subsystem: dispatchSubsystem,
			Name:      "value_latency_us",
			Help:      "time spent resolving and serializing a single value, in microseconds",
			Buckets:   buckets,
		}, []string{dispatcherLabelName, typeLabelName})

	registerOnce sync.Once
)

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(SerialValuesTotal)
		r.MustRegister(SerialValueLatency)
	})
}

// NewObserver 返回一个把分发事件写入上述指标的 serial.Observer。
func NewObserver() serial.Observer {
	return serial.ObserverFunc(func(ev serial.Event) {
		outcome := OutcomeSuccess
		if ev.Err != nil {
			outcome = OutcomeFailure
		}
		SerialValuesTotal.WithLabelValues(ev.Dispatcher, ev.Type, outcome).Inc()
		SerialValueLatency.WithLabelValues(ev.Dispatcher, ev.Type).Observe(float64(ev.Duration.Microseconds()))
	})
}
