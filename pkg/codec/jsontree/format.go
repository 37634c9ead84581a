package jsontree

import (
	"encoding/base64"
	"strconv"

	"github.com/lk2023060901/codec-garden-go/pkg/codec"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// Format 实现值树载体的编码契约。
// 所有原语都在 *Value 节点上就地操作。
type Format struct{}

var (
	_ codec.Format[*Value]         = Format{}
	_ codec.RawBytesFormat[*Value] = Format{}
)

// NewCore 创建绑定值树载体的编解码核心。
func NewCore() *codec.Core[*Value] {
	return codec.NewCore[*Value](Format{})
}

func (Format) Name() string {
	return "jsontree"
}

func (Format) NullCodec() codec.NullCodec[*Value] {
	return nullCodec{}
}

func (Format) BoolCodec() codec.BoolCodec[*Value] {
	return boolCodec{}
}

func (Format) IntCodec() codec.IntCodec[*Value] {
	return intCodec{}
}

func (Format) UintCodec() codec.UintCodec[*Value] {
	return uintCodec{}
}

func (Format) FloatCodec() codec.FloatCodec[*Value] {
	return floatCodec{}
}

func (Format) StringCodec() codec.StringCodec[*Value] {
	return stringCodec{}
}

func (Format) BeginEntries(enc *Value, size int) (*Value, error) {
	enc.setArray(size)
	return enc, nil
}

func (Format) NewEntry(seq *Value) (*Value, error) {
	if seq.kind != KindArray {
		return nil, merr.WrapErrStructureMismatch(KindArray.String(), seq.kind.String())
	}
	entry := New()
	seq.arr = append(seq.arr, entry)
	return entry, nil
}

func (Format) Entries(enc *Value) ([]*Value, error) {
	if enc.kind != KindArray {
		return nil, merr.WrapErrStructureMismatch(KindArray.String(), enc.kind.String())
	}
	return enc.arr, nil
}

func (Format) BeginObject(enc *Value) (*Value, error) {
	if enc.kind == KindInvalid {
		enc.setObject()
	}
	if enc.kind != KindObject {
		return nil, merr.WrapErrStructureMismatch(KindObject.String(), enc.kind.String())
	}
	return enc, nil
}

func (Format) NewField(enc *Value, name string) (*Value, error) {
	if enc.kind == KindInvalid {
		enc.setObject()
	}
	if enc.kind != KindObject {
		return nil, merr.WrapErrStructureMismatch(KindObject.String(), enc.kind.String())
	}
	child := New()
	enc.obj = append(enc.obj, Member{Name: name, Value: child})
	return child, nil
}

func (Format) FieldByName(enc *Value, name string) (*Value, bool, error) {
	if enc.kind != KindObject {
		return nil, false, merr.WrapErrStructureMismatch(KindObject.String(), enc.kind.String())
	}
	child, ok := enc.Field(name)
	return child, ok, nil
}

func (Format) WriteTypeTag(enc *Value, typeName string) (*Value, error) {
	enc.tag = typeName
	return enc, nil
}

// WriteUntagged 为空操作，值树上“无标签”就是标签缺省。
func (Format) WriteUntagged(enc *Value) (*Value, error) {
	return enc, nil
}

func (Format) ReadTypeTag(enc *Value) (string, bool, error) {
	return enc.tag, enc.tag != "", nil
}

// EncodeBytes 将字节串落为 base64 字符串节点。
func (Format) EncodeBytes(val []byte, enc *Value) (*Value, error) {
	enc.setString(base64.StdEncoding.EncodeToString(val))
	return enc, nil
}

func (Format) DecodeBytes(enc *Value) ([]byte, error) {
	if enc.kind != KindString {
		return nil, merr.WrapErrStructureMismatch(KindString.String(), enc.kind.String())
	}
	b, err := base64.StdEncoding.DecodeString(enc.str)
	if err != nil {
		return nil, merr.WrapErrStructureMismatch("base64 string", enc.str, "decode failed: %v", err)
	}
	return b, nil
}

type nullCodec struct{}

func (nullCodec) EncodeNull(enc *Value) (*Value, error) {
	enc.setNull()
	return enc, nil
}

func (nullCodec) EncodeNotNull(enc *Value) (*Value, error) {
	return enc, nil
}

func (nullCodec) IsNull(enc *Value) (bool, error) {
	return enc.kind == KindNull, nil
}

type boolCodec struct{}

func (boolCodec) EncodeBool(val bool, enc *Value) (*Value, error) {
	enc.setBool(val)
	return enc, nil
}

func (boolCodec) DecodeBool(enc *Value) (bool, error) {
	if enc.kind != KindBool {
		return false, merr.WrapErrStructureMismatch(KindBool.String(), enc.kind.String())
	}
	return enc.b, nil
}

type intCodec struct{}

func (intCodec) EncodeInt(val int64, enc *Value) (*Value, error) {
	enc.setNumber(strconv.FormatInt(val, 10))
	return enc, nil
}

func (intCodec) DecodeInt(enc *Value) (int64, error) {
	if enc.kind != KindNumber {
		return 0, merr.WrapErrStructureMismatch(KindNumber.String(), enc.kind.String())
	}
	n, err := strconv.ParseInt(enc.num, 10, 64)
	if err != nil {
		return 0, merr.WrapErrStructureMismatch("integer", enc.num, "parse failed: %v", err)
	}
	return n, nil
}

type uintCodec struct{}

func (uintCodec) EncodeUint(val uint64, enc *Value) (*Value, error) {
	enc.setNumber(strconv.FormatUint(val, 10))
	return enc, nil
}

func (uintCodec) DecodeUint(enc *Value) (uint64, error) {
	if enc.kind != KindNumber {
		return 0, merr.WrapErrStructureMismatch(KindNumber.String(), enc.kind.String())
	}
	n, err := strconv.ParseUint(enc.num, 10, 64)
	if err != nil {
		return 0, merr.WrapErrStructureMismatch("unsigned integer", enc.num, "parse failed: %v", err)
	}
	return n, nil
}

type floatCodec struct{}

func (floatCodec) EncodeFloat(val float64, enc *Value) (*Value, error) {
	enc.setNumber(strconv.FormatFloat(val, 'g', -1, 64))
	return enc, nil
}

func (floatCodec) DecodeFloat(enc *Value) (float64, error) {
	if enc.kind != KindNumber {
		return 0, merr.WrapErrStructureMismatch(KindNumber.String(), enc.kind.String())
	}
	f, err := strconv.ParseFloat(enc.num, 64)
	if err != nil {
		return 0, merr.WrapErrStructureMismatch("float", enc.num, "parse failed: %v", err)
	}
	return f, nil
}

type stringCodec struct{}

func (stringCodec) EncodeString(val string, enc *Value) (*Value, error) {
	enc.setString(val)
	return enc, nil
}

func (stringCodec) DecodeString(enc *Value) (string, error) {
	if enc.kind != KindString {
		return "", merr.WrapErrStructureMismatch(KindString.String(), enc.kind.String())
	}
	return enc.str, nil
}
