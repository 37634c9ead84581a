package binio

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/lk2023060901/codec-garden-go/pkg/codec"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

const (
	flagAbsent  byte = 0
	flagPresent byte = 1

	// maxEntryCount 限制序列的条目数前缀，条目槽本身占内存，
	// 损坏的计数不应触发超量分配。
	maxEntryCount = 1 << 20
	// maxByteLen 限制字符串与字节串的长度前缀，
	// 读取按块推进，截断的输入在首个块内就失败。
	maxByteLen = 1 << 30
)

// Format 实现二进制流载体的编码契约。
// 所有节点原语都退化为对同一个流的顺序读写。
type Format struct{}

var (
	_ codec.Format[*Stream]         = Format{}
	_ codec.RawBytesFormat[*Stream] = Format{}
)

// NewCore 创建绑定二进制流载体的编解码核心。
func NewCore() *codec.Core[*Stream] {
	return codec.NewCore[*Stream](Format{})
}

func (Format) Name() string {
	return "binio"
}

func (Format) NullCodec() codec.NullCodec[*Stream] {
	return nullCodec{}
}

func (Format) BoolCodec() codec.BoolCodec[*Stream] {
	return boolCodec{}
}

func (Format) IntCodec() codec.IntCodec[*Stream] {
	return intCodec{}
}

func (Format) UintCodec() codec.UintCodec[*Stream] {
	return uintCodec{}
}

func (Format) FloatCodec() codec.FloatCodec[*Stream] {
	return floatCodec{}
}

func (Format) StringCodec() codec.StringCodec[*Stream] {
	return stringCodec{}
}

// BeginEntries 落盘条目数。
func (Format) BeginEntries(enc *Stream, size int) (*Stream, error) {
	if err := enc.writeUvarint(uint64(size)); err != nil {
		return nil, err
	}
	return enc, nil
}

func (Format) NewEntry(seq *Stream) (*Stream, error) {
	return seq, nil
}

// Entries 读出条目数并返回 n 个指向流自身的节点，
// 调用方按序逐个解码。
func (Format) Entries(enc *Stream) ([]*Stream, error) {
	n, err := enc.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > maxEntryCount {
		return nil, merr.WrapErrStructureMismatch(
			"entry count <= "+strconv.Itoa(maxEntryCount), strconv.FormatUint(n, 10))
	}
	entries := make([]*Stream, n)
	for i := range entries {
		entries[i] = enc
	}
	return entries, nil
}

// BeginObject 在流上为空操作，对象边界由字段顺序约定。
func (Format) BeginObject(enc *Stream) (*Stream, error) {
	return enc, nil
}

// NewField 不写字段名，字段顺序由两侧的对象描述保证一致。
func (Format) NewField(enc *Stream, _ string) (*Stream, error) {
	return enc, nil
}

func (Format) FieldByName(enc *Stream, _ string) (*Stream, bool, error) {
	return enc, true, nil
}

func (Format) WriteTypeTag(enc *Stream, typeName string) (*Stream, error) {
	if err := enc.writeByte(flagPresent); err != nil {
		return nil, err
	}
	if err := writeString(enc, typeName); err != nil {
		return nil, err
	}
	return enc, nil
}

func (Format) WriteUntagged(enc *Stream) (*Stream, error) {
	if err := enc.writeByte(flagAbsent); err != nil {
		return nil, err
	}
	return enc, nil
}

func (Format) ReadTypeTag(enc *Stream) (string, bool, error) {
	flag, err := enc.readByte()
	if err != nil {
		return "", false, err
	}
	switch flag {
	case flagAbsent:
		return "", false, nil
	case flagPresent:
		name, err := readString(enc)
		if err != nil {
			return "", false, err
		}
		return name, true, nil
	default:
		return "", false, merr.WrapErrStructureMismatch(
			"tag flag", strconv.Itoa(int(flag)))
	}
}

// EncodeBytes 落盘长度前缀加原始字节。
func (Format) EncodeBytes(val []byte, enc *Stream) (*Stream, error) {
	if err := enc.writeUvarint(uint64(len(val))); err != nil {
		return nil, err
	}
	if err := enc.write(val); err != nil {
		return nil, err
	}
	return enc, nil
}

func (Format) DecodeBytes(enc *Stream) ([]byte, error) {
	n, err := enc.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > maxByteLen {
		return nil, merr.WrapErrStructureMismatch(
			"byte count <= "+strconv.Itoa(maxByteLen), strconv.FormatUint(n, 10))
	}
	return enc.readN(n)
}

func writeString(enc *Stream, s string) error {
	if err := enc.writeUvarint(uint64(len(s))); err != nil {
		return err
	}
	return enc.write([]byte(s))
}

func readString(enc *Stream) (string, error) {
	n, err := enc.readUvarint()
	if err != nil {
		return "", err
	}
	if n > maxByteLen {
		return "", merr.WrapErrStructureMismatch(
			"string length <= "+strconv.Itoa(maxByteLen), strconv.FormatUint(n, 10))
	}
	buf, err := enc.readN(n)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

type nullCodec struct{}

func (nullCodec) EncodeNull(enc *Stream) (*Stream, error) {
	if err := enc.writeByte(flagAbsent); err != nil {
		return nil, err
	}
	return enc, nil
}

// EncodeNotNull 写出存在标记，与解码侧的 IsNull 恰好对称。
func (nullCodec) EncodeNotNull(enc *Stream) (*Stream, error) {
	if err := enc.writeByte(flagPresent); err != nil {
		return nil, err
	}
	return enc, nil
}

func (nullCodec) IsNull(enc *Stream) (bool, error) {
	flag, err := enc.readByte()
	if err != nil {
		return false, err
	}
	switch flag {
	case flagAbsent:
		return true, nil
	case flagPresent:
		return false, nil
	default:
		return false, merr.WrapErrStructureMismatch(
			"null flag", strconv.Itoa(int(flag)))
	}
}

type boolCodec struct{}

func (boolCodec) EncodeBool(val bool, enc *Stream) (*Stream, error) {
	b := flagAbsent
	if val {
		b = flagPresent
	}
	if err := enc.writeByte(b); err != nil {
		return nil, err
	}
	return enc, nil
}

func (boolCodec) DecodeBool(enc *Stream) (bool, error) {
	b, err := enc.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, merr.WrapErrStructureMismatch("bool byte", strconv.Itoa(int(b)))
	}
}

type intCodec struct{}

func (intCodec) EncodeInt(val int64, enc *Stream) (*Stream, error) {
	if err := enc.writeVarint(val); err != nil {
		return nil, err
	}
	return enc, nil
}

func (intCodec) DecodeInt(enc *Stream) (int64, error) {
	return enc.readVarint()
}

type uintCodec struct{}

func (uintCodec) EncodeUint(val uint64, enc *Stream) (*Stream, error) {
	if err := enc.writeUvarint(val); err != nil {
		return nil, err
	}
	return enc, nil
}

func (uintCodec) DecodeUint(enc *Stream) (uint64, error) {
	return enc.readUvarint()
}

type floatCodec struct{}

func (floatCodec) EncodeFloat(val float64, enc *Stream) (*Stream, error) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(val))
	if err := enc.write(buf[:]); err != nil {
		return nil, err
	}
	return enc, nil
}

func (floatCodec) DecodeFloat(enc *Stream) (float64, error) {
	var buf [8]byte
	if err := enc.read(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

type stringCodec struct{}

func (stringCodec) EncodeString(val string, enc *Stream) (*Stream, error) {
	if err := writeString(enc, val); err != nil {
		return nil, err
	}
	return enc, nil
}

func (stringCodec) DecodeString(enc *Stream) (string, error) {
	return readString(enc)
}
