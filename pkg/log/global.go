// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxLogKeyType struct{}

// CtxLogKey 为 context 中存放 MLogger 的 key。
var CtxLogKey = ctxLogKeyType{}

// MLogger 是 zap.Logger 的轻量封装，
// 便于在 With 之后继续携带包装类型。
type MLogger struct {
	*zap.Logger
}

// With 创建一个携带额外字段的子 Logger。
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: l.Logger.With(fields...)}
}

// Debug 在 Debug 级别输出一条日志。
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Info 在 Info 级别输出一条日志。
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn 在 Warn 级别输出一条日志。
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error 在 Error 级别输出一条日志。
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// Fatal 在 Fatal 级别输出一条日志，并退出进程。
func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
}

// With 基于全局 Logger 创建一个携带额外字段的子 Logger。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: L().With(fields...)}
}

// Ctx 返回与 ctx 关联的 Logger。
// ctx 中没有 Logger 时退回全局 Logger；
// 如果 ctx 携带了 trace span，自动附加 traceID 字段。
func Ctx(ctx context.Context) *MLogger {
	if ctx == nil {
		return &MLogger{Logger: L()}
	}
	if v, ok := ctx.Value(CtxLogKey).(*MLogger); ok && v != nil {
		return v
	}

	logger := L()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With(zap.String("traceID", sc.TraceID().String()))
	}
	return &MLogger{Logger: logger}
}

// WithCtx 将 logger 写入 ctx，供下游通过 Ctx 取回。
func WithCtx(ctx context.Context, logger *MLogger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CtxLogKey, logger)
}
