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
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrStrategyNotFound(reflect.TypeFor[int]())
	err = errors.Wrap(err, "failed to resolve value")
	s.ErrorIs(err, ErrStrategyNotFound)
	s.Equal(Code(ErrStrategyNotFound), Code(err))
	s.Equal(int32(0), Code(nil))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))

	sameCodeErr := newSerialError("new error", ErrStrategyNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrStrategyNotFound))
	s.False(sameCodeErr.Is(ErrStrategyConflict))
}

func (s *ErrSuite) TestWrap() {
	// Strategy 相关错误。
	s.ErrorIs(WrapErrStrategyNotFound(reflect.TypeFor[string]()), ErrStrategyNotFound)
	s.ErrorIs(WrapErrStrategyNotFound(nil, "resolve"), ErrStrategyNotFound)
	s.ErrorIs(WrapErrStrategyConflict(reflect.TypeFor[float64](), "register"), ErrStrategyConflict)
	s.ErrorIs(WrapErrStrategyInvalid("nil factory"), ErrStrategyInvalid)

	// Sink 相关错误。
	s.ErrorIs(WrapErrSinkUninitialized("Output"), ErrSinkUninitialized)
	s.ErrorIs(WrapErrShortBuffer(10, 8), ErrShortBuffer)

	// Codec 与参数相关错误。
	s.ErrorIs(WrapErrCodecTypeMismatch("proto", "proto.Message", 1), ErrCodecTypeMismatch)
	s.ErrorIs(WrapErrParameterInvalid(1, 2, "mismatch"), ErrParameterInvalid)
	s.ErrorIs(WrapErrConfigInvalid("values", "empty"), ErrConfigInvalid)
}

func (s *ErrSuite) TestMessageFields() {
	err := WrapErrStrategyNotFound(reflect.TypeFor[int]())
	s.Equal("no known strategy for type[type=int]", err.Error())

	err = WrapErrShortBuffer(10, 8)
	s.Equal("short buffer[10 out of range 0 <= cursor <= 8]", err.Error())

	err = WrapErrConfigInvalid("values", "empty")
	s.Equal("invalid config[key=values]: empty", err.Error())
}

func (s *ErrSuite) TestCodecFailed() {
	cause := errors.New("boom")
	err := WrapErrCodecFailed("json", cause)
	s.ErrorIs(err, ErrCodecFailed)
	s.ErrorIs(err, cause)
	s.Equal(Code(ErrCodecFailed), Code(err))
}

func (s *ErrSuite) TestRetryableAndType() {
	s.True(IsRetryableErr(WrapErrShortBuffer(1, 0)))
	s.False(IsRetryableErr(WrapErrStrategyNotFound(nil)))
	s.False(IsRetryableErr(errors.New("plain")))

	s.Equal(InputError, GetErrorType(errors.Wrap(ErrStrategyConflict, "wrapped")))
	s.Equal(SystemError, GetErrorType(ErrSinkUninitialized))
	s.Equal("input_error", InputError.String())
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineOnlyNil() {
	s.Nil(Combine(nil, nil))
	s.NotNil(Combine(nil, errors.New("non-nil")))
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrStrategyConflict(nil), WrapErrStrategyNotFound(nil))
	s.Equal(Code(ErrStrategyNotFound), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
