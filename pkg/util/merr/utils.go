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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case codecError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(codecError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// wrapFields 将附加信息拼接到错误消息后。
func wrapFields(err error, fields ...string) error {
	if len(fields) > 0 {
		return errors.Wrap(err, strings.Join(fields, ", "))
	}
	return err
}

func field(name string, value any) string {
	return fmt.Sprintf("%s=%v", name, value)
}

// WrapErrTypeNotFound 包装“类型名未注册”错误。
func WrapErrTypeNotFound(typeName string, msgAndArgs ...any) error {
	err := wrapFields(ErrCodecTypeNotFound, field("type", typeName))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrTypeUnsupported 包装“类型不受支持”错误。
func WrapErrTypeUnsupported(typeName string, msgAndArgs ...any) error {
	err := wrapFields(ErrCodecTypeUnsupported, field("type", typeName))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrBuildFailed 包装“codec 构建失败”错误。
func WrapErrBuildFailed(typeName string, cause error, msgAndArgs ...any) error {
	err := wrapFields(ErrCodecBuildFailed, field("type", typeName))
	if cause != nil {
		err = Combine(err, cause)
	}
	return appendMsg(err, msgAndArgs...)
}

// WrapErrStructureMismatch 包装“载体结构不符合预期”错误。
func WrapErrStructureMismatch(expect, got string, msgAndArgs ...any) error {
	err := wrapFields(ErrCodecStructureMismatch, field("expect", expect), field("got", got))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrInstantiation 包装“目标类型无法实例化”错误。
func WrapErrInstantiation(typeName string, msgAndArgs ...any) error {
	err := wrapFields(ErrCodecInstantiation, field("type", typeName))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrValueOverflow 包装“解码值超出目标类型表示范围”错误。
func WrapErrValueOverflow(typeName string, value any, msgAndArgs ...any) error {
	err := wrapFields(ErrCodecValueOverflow, field("type", typeName), field("value", value))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrFieldNotFound 包装“载体中缺少字段”错误。
func WrapErrFieldNotFound(fieldName string, msgAndArgs ...any) error {
	err := wrapFields(ErrFieldNotFound, field("field", fieldName))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrFieldDuplicate 包装“字段重复声明”错误。
func WrapErrFieldDuplicate(fieldName string, msgAndArgs ...any) error {
	err := wrapFields(ErrFieldDuplicate, field("field", fieldName))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrParameterInvalid 包装“参数非法”错误。
func WrapErrParameterInvalid(expect, got any, msgAndArgs ...any) error {
	err := wrapFields(ErrParameterInvalid, field("expect", expect), field("got", got))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrParameterMissing 包装“缺少参数”错误。
func WrapErrParameterMissing(name string, msgAndArgs ...any) error {
	err := wrapFields(ErrParameterMissing, field("param", name))
	return appendMsg(err, msgAndArgs...)
}

// WrapErrIoFailed 包装 IO 错误。
func WrapErrIoFailed(key string, cause error, msgAndArgs ...any) error {
	err := wrapFields(ErrIoFailed, field("key", key))
	if cause != nil {
		err = Combine(err, cause)
	}
	return appendMsg(err, msgAndArgs...)
}

func appendMsg(err error, msgAndArgs ...any) error {
	if len(msgAndArgs) == 0 {
		return err
	}
	msg, ok := msgAndArgs[0].(string)
	if !ok {
		return err
	}
	if len(msgAndArgs) > 1 {
		return errors.Wrapf(err, msg, msgAndArgs[1:]...)
	}
	return errors.Wrap(err, msg)
}
