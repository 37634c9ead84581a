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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// codecNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	codecNamespace = "codecgarden"

	// 以下为当前使用的通用标签名。
	carrierLabelName = "carrier"
	opLabelName      = "op"
	statusLabelName  = "status"

	OpEncode = "encode"
	OpDecode = "decode"

	StatusOK   = "ok"
	StatusFail = "fail"
)

var (
	// durationBuckets 为编解码耗时直方图的桶划分，单位为微秒。
	durationBuckets = prometheus.ExponentialBuckets(1, 2, 18)

	// CodecResolveTotal 统计 codec 解析请求次数（含缓存命中）。
	CodecResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: codecNamespace,
			Name:      "codec_resolve_total",
			Help:      "number of codec resolutions, cache hits included",
		}, []string{carrierLabelName})

	// CodecBuildTotal 统计实际构建 codec 的次数。
	CodecBuildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: codecNamespace,
			Name:      "codec_build_total",
			Help:      "number of codec constructions",
		}, []string{carrierLabelName, statusLabelName})

	// CodecOpTotal 统计顶层 encode/decode 调用次数。
	CodecOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: codecNamespace,
			Name:      "codec_op_total",
			Help:      "number of top-level encode/decode calls",
		}, []string{carrierLabelName, opLabelName, statusLabelName})

	// CodecOpDuration 统计顶层 encode/decode 耗时。
	CodecOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: codecNamespace,
			Name:      "codec_op_duration_us",
			Help:      "latency of top-level encode/decode calls in microseconds",
			Buckets:   durationBuckets,
		}, []string{carrierLabelName, opLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(CodecResolveTotal)
	r.MustRegister(CodecBuildTotal)
	r.MustRegister(CodecOpTotal)
	r.MustRegister(CodecOpDuration)
	metricRegisterer = r
}
