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
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrTypeNotFound("example.Colour")
	errors.Wrap(err, "failed to resolve codec")
	s.ErrorIs(err, ErrCodecTypeNotFound)
	s.Equal(Code(ErrCodecTypeNotFound), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newCodecError("new error", ErrCodecTypeNotFound.errCode, false)
	s.True(sameCodeErr.Is(ErrCodecTypeNotFound))
}

func (s *ErrSuite) TestWrap() {
	// 类型解析相关错误。
	s.ErrorIs(WrapErrTypeNotFound("pkg.Missing", "failed to decode tag"), ErrCodecTypeNotFound)
	s.ErrorIs(WrapErrTypeUnsupported("chan int"), ErrCodecTypeUnsupported)
	s.ErrorIs(WrapErrBuildFailed("pkg.Broken", os.ErrInvalid, "reflective walk failed"), ErrCodecBuildFailed)

	// 编解码相关错误。
	s.ErrorIs(WrapErrStructureMismatch("object", "string", "while decoding field %s", "name"), ErrCodecStructureMismatch)
	s.ErrorIs(WrapErrInstantiation("pkg.NoCtor"), ErrCodecInstantiation)
	s.ErrorIs(WrapErrValueOverflow("int8", 4096), ErrCodecValueOverflow)

	// 字段相关错误。
	s.ErrorIs(WrapErrFieldNotFound("age", "failed to decode"), ErrFieldNotFound)
	s.ErrorIs(WrapErrFieldDuplicate("name"), ErrFieldDuplicate)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid("non-nil value", "nil"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("ctor", "builder terminated without map"), ErrParameterMissing)

	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("stream", os.ErrClosed), ErrIoFailed)
}

func (s *ErrSuite) TestIsRetryable() {
	s.True(IsRetryableErr(ErrIoUnexpectEOF))
	s.False(IsRetryableErr(ErrCodecTypeNotFound))
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

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrFieldNotFound("age"), WrapErrTypeNotFound("pkg.Missing"))
	s.Equal(Code(ErrCodecTypeNotFound), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
