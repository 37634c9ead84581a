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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

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

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Codec resolution related
	ErrCodecTypeNotFound    = newCodecError("type name not registered", 100, false)
	ErrCodecTypeUnsupported = newCodecError("type not supported by any codec", 101, false)
	ErrCodecBuildFailed     = newCodecError("codec construction failed", 102, false)

	// Encode/decode related
	ErrCodecStructureMismatch = newCodecError("carrier structure mismatch", 200, false)
	ErrCodecInstantiation     = newCodecError("cannot instantiate target type", 201, false)
	ErrCodecValueOverflow     = newCodecError("decoded value overflows target type", 203, false)

	// Field related
	ErrFieldNotFound  = newCodecError("field not found in carrier", 300, false)
	ErrFieldDuplicate = newCodecError("field declared more than once", 301, false)

	// Parameter related
	ErrParameterInvalid = newCodecError("invalid parameter", 1100, false)
	ErrParameterMissing = newCodecError("missing parameter", 1101, false)

	// IO related
	ErrIoFailed      = newCodecError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newCodecError("unexpected EOF", 1002, true)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to codecError
	errUnexpected = newCodecError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*codecError)

func WithDetail(detail string) errorOption {
	return func(err *codecError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *codecError) {
		err.errType = etype
	}
}

type codecError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newCodecError(msg string, code int32, retriable bool, options ...errorOption) codecError {
	err := codecError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e codecError) code() int32 {
	return e.errCode
}

func (e codecError) Error() string {
	return e.msg
}

func (e codecError) Detail() string {
	return e.detail
}

func (e codecError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(codecError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
