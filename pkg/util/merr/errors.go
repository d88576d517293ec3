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

package merr

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrorType 区分调用方输入错误与系统内部错误。
type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// 叶子错误统一定义在此处。
// WARN: 新增错误前请先确认下面已有的错误是否能够复用。
// 命名规则：Err + 相关前缀 + 错误名
var (
	// Strategy 相关
	ErrStrategyNotFound = newSerialError("no known strategy for type", 100, false, WithErrorType(InputError))
	ErrStrategyConflict = newSerialError("strategy already registered for type", 101, false, WithErrorType(InputError))
	ErrStrategyInvalid  = newSerialError("invalid strategy", 102, false, WithErrorType(InputError))

	// Sink 相关
	ErrSinkUninitialized = newSerialError("sink used without an initial cursor", 200, false)
	ErrShortBuffer       = newSerialError("short buffer", 201, true)

	// Codec 相关
	ErrCodecTypeMismatch = newSerialError("codec type mismatch", 300, false, WithErrorType(InputError))
	ErrCodecFailed       = newSerialError("codec failed", 301, false)

	// 参数与配置相关
	ErrParameterInvalid = newSerialError("invalid parameter", 400, false, WithErrorType(InputError))
	ErrConfigInvalid    = newSerialError("invalid config", 401, false, WithErrorType(InputError))

	// 不要导出该错误，仅用于将未知错误转换为 serialError。
	errUnexpected = newSerialError("unexpected error", (1<<16)-1, false)
)

// errorOption 在定义叶子错误时调整其属性。
type errorOption func(*serialError)

func WithDetail(detail string) errorOption {
	return func(err *serialError) { err.detail = detail }
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *serialError) { err.errType = etype }
}

// serialError 是带错误码的叶子错误，按错误码判等，因此附加了字段的副本
// 仍然与原始定义 errors.Is 相等。
type serialError struct {
	msg       string
	detail    string
	errCode   int32
	errType   ErrorType
	retriable bool
}

func newSerialError(msg string, code int32, retriable bool, options ...errorOption) serialError {
	err := serialError{msg: msg, detail: msg, errCode: code, retriable: retriable}
	for _, apply := range options {
		apply(&err)
	}
	return err
}

func (e serialError) code() int32    { return e.errCode }
func (e serialError) Error() string  { return e.msg }
func (e serialError) Detail() string { return e.detail }

func (e serialError) Is(target error) bool {
	other, ok := errors.Cause(target).(serialError)
	return ok && other.errCode == e.errCode
}

// combined 把多个错误串成一条链：Error 从左到右拼接，
// Unwrap 依次剥掉最前面的错误，因此 errors.Cause 得到的是最后一个错误。
type combined []error

func (c combined) Error() string {
	msgs := lo.Map(c, func(err error, _ int) string { return err.Error() })
	return strings.Join(msgs, ": ")
}

func (c combined) Unwrap() error {
	switch len(c) {
	case 0, 1:
		return nil
	case 2:
		return c[1]
	default:
		return c[1:]
	}
}

func (c combined) Is(target error) bool {
	return lo.ContainsBy(c, func(err error) bool { return errors.Is(err, target) })
}

// Combine 合并多个错误，nil 会被忽略；全部为 nil 时返回 nil，只有一个时原样返回。
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return combined(errs)
	}
}
