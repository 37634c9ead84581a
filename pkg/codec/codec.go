package codec

import (
	"reflect"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// Codec 是单一类型针对单一载体的编解码单元。
// E 为载体节点类型，树形载体通常为节点指针，流式载体为流本身。
type Codec[E any] interface {
	// Encode 将 val 写入 enc，返回承载结果的节点。
	// 树形载体返回被写入的节点，流式载体返回流自身。
	Encode(val reflect.Value, enc E) (E, error)

	// Decode 从 enc 读出一个 dynType 类型的值。
	// dynType 在解码点才确定，同一个 Codec 实例可以服务多个
	// 底层表示相同的具名类型。
	Decode(dynType reflect.Type, enc E) (reflect.Value, error)
}

// NullCodec 是载体提供的空值哨兵编码。
//
// 约定：空值安全包装对每个可空节点恰好调用一次 IsNull，
// 值存在时先调用 EncodeNotNull 再委托底层 Codec；
// 树形载体的 EncodeNotNull 通常为空操作，
// 流式载体借此写出存在标记以保证编解码对称。
type NullCodec[E any] interface {
	EncodeNull(enc E) (E, error)
	EncodeNotNull(enc E) (E, error)
	IsNull(enc E) (bool, error)
}

// BoolCodec 为载体的布尔叶子编码。
type BoolCodec[E any] interface {
	EncodeBool(val bool, enc E) (E, error)
	DecodeBool(enc E) (bool, error)
}

// IntCodec 为载体的有符号整数叶子编码，统一经 int64 出入。
type IntCodec[E any] interface {
	EncodeInt(val int64, enc E) (E, error)
	DecodeInt(enc E) (int64, error)
}

// UintCodec 为载体的无符号整数叶子编码，统一经 uint64 出入。
type UintCodec[E any] interface {
	EncodeUint(val uint64, enc E) (E, error)
	DecodeUint(enc E) (uint64, error)
}

// FloatCodec 为载体的浮点叶子编码，统一经 float64 出入。
type FloatCodec[E any] interface {
	EncodeFloat(val float64, enc E) (E, error)
	DecodeFloat(enc E) (float64, error)
}

// StringCodec 为载体的字符串叶子编码。
type StringCodec[E any] interface {
	EncodeString(val string, enc E) (E, error)
	DecodeString(enc E) (string, error)
}

// 以下 adapter 将裸类型叶子编码提升为 Codec，
// 窄宽度与具名类型通过 dynType 还原，窄化时做溢出检查。

type boolAdapter[E any] struct {
	prim BoolCodec[E]
}

func adaptBool[E any](prim BoolCodec[E]) Codec[E] {
	return boolAdapter[E]{prim: prim}
}

func (c boolAdapter[E]) Encode(val reflect.Value, enc E) (E, error) {
	return c.prim.EncodeBool(val.Bool(), enc)
}

func (c boolAdapter[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	b, err := c.prim.DecodeBool(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	out.SetBool(b)
	return out, nil
}

type intAdapter[E any] struct {
	prim IntCodec[E]
}

func adaptInt[E any](prim IntCodec[E]) Codec[E] {
	return intAdapter[E]{prim: prim}
}

func (c intAdapter[E]) Encode(val reflect.Value, enc E) (E, error) {
	return c.prim.EncodeInt(val.Int(), enc)
}

func (c intAdapter[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	n, err := c.prim.DecodeInt(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, merr.WrapErrValueOverflow(TypeName(dynType), n)
	}
	out.SetInt(n)
	return out, nil
}

type uintAdapter[E any] struct {
	prim UintCodec[E]
}

func adaptUint[E any](prim UintCodec[E]) Codec[E] {
	return uintAdapter[E]{prim: prim}
}

func (c uintAdapter[E]) Encode(val reflect.Value, enc E) (E, error) {
	return c.prim.EncodeUint(val.Uint(), enc)
}

func (c uintAdapter[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	n, err := c.prim.DecodeUint(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, merr.WrapErrValueOverflow(TypeName(dynType), n)
	}
	out.SetUint(n)
	return out, nil
}

type floatAdapter[E any] struct {
	prim FloatCodec[E]
}

func adaptFloat[E any](prim FloatCodec[E]) Codec[E] {
	return floatAdapter[E]{prim: prim}
}

func (c floatAdapter[E]) Encode(val reflect.Value, enc E) (E, error) {
	return c.prim.EncodeFloat(val.Float(), enc)
}

func (c floatAdapter[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	f, err := c.prim.DecodeFloat(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	if out.OverflowFloat(f) {
		return reflect.Value{}, merr.WrapErrValueOverflow(TypeName(dynType), f)
	}
	out.SetFloat(f)
	return out, nil
}

type stringAdapter[E any] struct {
	prim StringCodec[E]
}

func adaptString[E any](prim StringCodec[E]) Codec[E] {
	return stringAdapter[E]{prim: prim}
}

func (c stringAdapter[E]) Encode(val reflect.Value, enc E) (E, error) {
	return c.prim.EncodeString(val.String(), enc)
}

func (c stringAdapter[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	s, err := c.prim.DecodeString(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	out.SetString(s)
	return out, nil
}
