// Package binio 提供顺序二进制流编码载体。
//
// 流上不落盘字段名，对象字段依赖两侧一致的字段顺序；
// 空值与类型标签通过前置标记字节保证编解码对称。
package binio

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// Stream 是二进制载体的读写句柄。
// 同一个 Stream 既作编码目标也作解码来源，
// 写入结束后必须调用 Flush 才能保证数据落到底层。
type Stream struct {
	r *bufio.Reader
	w *bufio.Writer
}

// NewStream 在 rw 上创建读写流，bytes.Buffer 是最常见的底层。
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{
		r: bufio.NewReader(rw),
		w: bufio.NewWriter(rw),
	}
}

// NewReader 创建只读流，写操作会报 IO 错误。
func NewReader(r io.Reader) *Stream {
	return &Stream{r: bufio.NewReader(r)}
}

// NewWriter 创建只写流，读操作会报 IO 错误。
func NewWriter(w io.Writer) *Stream {
	return &Stream{w: bufio.NewWriter(w)}
}

// Flush 将写缓冲刷到底层。
func (s *Stream) Flush() error {
	if s.w == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return wrapIO(err)
	}
	return nil
}

func (s *Stream) writeByte(b byte) error {
	if s.w == nil {
		return merr.WrapErrIoFailed("binio", errors.New("stream is read-only"))
	}
	if err := s.w.WriteByte(b); err != nil {
		return wrapIO(err)
	}
	return nil
}

func (s *Stream) write(p []byte) error {
	if s.w == nil {
		return merr.WrapErrIoFailed("binio", errors.New("stream is read-only"))
	}
	if _, err := s.w.Write(p); err != nil {
		return wrapIO(err)
	}
	return nil
}

func (s *Stream) writeUvarint(n uint64) error {
	var buf [binary.MaxVarintLen64]byte
	return s.write(buf[:binary.PutUvarint(buf[:], n)])
}

func (s *Stream) writeVarint(n int64) error {
	var buf [binary.MaxVarintLen64]byte
	return s.write(buf[:binary.PutVarint(buf[:], n)])
}

func (s *Stream) readByte() (byte, error) {
	if s.r == nil {
		return 0, merr.WrapErrIoFailed("binio", errors.New("stream is write-only"))
	}
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, wrapIO(err)
	}
	return b, nil
}

func (s *Stream) read(p []byte) error {
	if s.r == nil {
		return merr.WrapErrIoFailed("binio", errors.New("stream is write-only"))
	}
	if _, err := io.ReadFull(s.r, p); err != nil {
		return wrapIO(err)
	}
	return nil
}

// readChunk 是按长度前缀读取时的分块步长。
// 长度前缀不可信，按块推进可以让截断或损坏的输入尽早失败，
// 而不是先按前缀一次性分配。
const readChunk = 32 << 10

func (s *Stream) readN(n uint64) ([]byte, error) {
	if s.r == nil {
		return nil, merr.WrapErrIoFailed("binio", errors.New("stream is write-only"))
	}
	buf := make([]byte, 0, min(n, readChunk))
	for n > 0 {
		step := min(n, readChunk)
		off := len(buf)
		buf = append(buf, make([]byte, step)...)
		if _, err := io.ReadFull(s.r, buf[off:]); err != nil {
			return nil, wrapIO(err)
		}
		n -= step
	}
	return buf, nil
}

func (s *Stream) readUvarint() (uint64, error) {
	if s.r == nil {
		return 0, merr.WrapErrIoFailed("binio", errors.New("stream is write-only"))
	}
	n, err := binary.ReadUvarint(s.r)
	if err != nil {
		return 0, wrapIO(err)
	}
	return n, nil
}

func (s *Stream) readVarint() (int64, error) {
	if s.r == nil {
		return 0, merr.WrapErrIoFailed("binio", errors.New("stream is write-only"))
	}
	n, err := binary.ReadVarint(s.r)
	if err != nil {
		return 0, wrapIO(err)
	}
	return n, nil
}

// wrapIO 统一包装底层 IO 错误，
// 数据中途截断映射为可重试的非预期 EOF。
func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsAny(err, io.EOF, io.ErrUnexpectedEOF) {
		return merr.Combine(merr.ErrIoUnexpectEOF, err)
	}
	return merr.WrapErrIoFailed("binio", err)
}
