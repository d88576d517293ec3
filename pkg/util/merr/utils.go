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
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码，nil 返回 0，非本包错误返回 errUnexpected 的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}
	if serr, ok := errors.Cause(err).(serialError); ok {
		return serr.code()
	}
	return errUnexpected.code()
}

// IsRetryableErr 判断错误链上是否存在可重试的 serialError。
func IsRetryableErr(err error) bool {
	var serr serialError
	return errors.As(err, &serr) && serr.retriable
}

// GetErrorType 返回错误链上第一个 serialError 的类型，缺省为 SystemError。
func GetErrorType(err error) ErrorType {
	var serr serialError
	if errors.As(err, &serr) {
		return serr.errType
	}
	return SystemError
}

func WrapErrStrategyNotFound(t reflect.Type, msg ...string) error {
	return wrap(ErrStrategyNotFound, "", fields{kv("type", typeName(t))}, msg)
}

func WrapErrStrategyConflict(t reflect.Type, msg ...string) error {
	return wrap(ErrStrategyConflict, "", fields{kv("type", typeName(t))}, msg)
}

func WrapErrStrategyInvalid(reason string, msg ...string) error {
	return wrap(ErrStrategyInvalid, reason, nil, msg)
}

func WrapErrSinkUninitialized(msg ...string) error {
	return wrap(ErrSinkUninitialized, "", nil, msg)
}

// WrapErrShortBuffer 表示写入后的游标 need 超出了上限 limit。
func WrapErrShortBuffer(need, limit int, msg ...string) error {
	return wrap(ErrShortBuffer, "", fields{outOfRange("cursor", need, 0, limit)}, msg)
}

func WrapErrCodecTypeMismatch(codec string, expected string, actual any, msg ...string) error {
	return wrap(ErrCodecTypeMismatch, "", fields{
		kv("codec", codec),
		kv("expected", expected),
		kv("actual", fmt.Sprintf("%T", actual)),
	}, msg)
}

// WrapErrCodecFailed 把编解码器返回的错误归入 ErrCodecFailed，cause 仍可被 errors.Is 识别。
func WrapErrCodecFailed(codec string, cause error) error {
	return errors.Wrapf(Combine(cause, ErrCodecFailed), "codec=%s", codec)
}

func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	return wrap(ErrParameterInvalid, "", fields{
		kv("expected", expected),
		kv("actual", actual),
	}, msg)
}

func WrapErrConfigInvalid(key string, reason string) error {
	return wrap(ErrConfigInvalid, reason, fields{kv("key", key)}, nil)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// wrap 生成形如 "base[field]...: desc" 的叶子错误，再用 msg 逐层包装。
func wrap(base serialError, desc string, fs fields, msg []string) error {
	var sb strings.Builder
	sb.WriteString(base.msg)
	for _, f := range fs {
		sb.WriteString("[" + f.String() + "]")
	}
	if desc != "" {
		sb.WriteString(": " + desc)
	}
	base.msg = sb.String()
	base.detail = base.msg

	var err error = base
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

type fields []fmt.Stringer

type field struct {
	render func() string
}

func (f field) String() string {
	return f.render()
}

func kv(name string, value any) field {
	return field{render: func() string {
		return fmt.Sprintf("%s=%v", name, value)
	}}
}

func outOfRange(name string, value, lower, upper any) field {
	return field{render: func() string {
		return fmt.Sprintf("%v out of range %v <= %s <= %v", value, lower, name, upper)
	}}
}
