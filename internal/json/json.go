package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// 统一使用与标准库语义兼容的 sonic 配置，
// 避免各处直接依赖具体 JSON 实现。
var api = sonic.ConfigStd

// Marshal 将任意对象编码为 JSON 字节序列。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalIndent 将任意对象编码为带缩进的 JSON 字节序列。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal 将 JSON 字节序列解码到 v 指向的对象。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// NewEncoder 创建一个向 w 写入 JSON 的编码器。
func NewEncoder(w io.Writer) sonic.Encoder {
	return api.NewEncoder(w)
}

// NewDecoder 创建一个从 r 读取 JSON 的解码器。
func NewDecoder(r io.Reader) sonic.Decoder {
	return api.NewDecoder(r)
}
