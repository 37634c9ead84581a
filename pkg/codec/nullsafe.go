package codec

import (
	"reflect"
)

// nullSafeCodec 在底层 Codec 外叠加空值处理：
// 值缺失时只落空值哨兵，存在时先写存在标记再委托底层。
// 解码侧恰好消费一次 IsNull 后分支，保证两侧对称。
type nullSafeCodec[E any] struct {
	null NullCodec[E]
	base Codec[E]
}

// makeNullSafe 包装出空值安全版本的 cd。
func (c *Core[E]) makeNullSafe(cd Codec[E]) Codec[E] {
	return &nullSafeCodec[E]{null: c.format.NullCodec(), base: cd}
}

func (c *nullSafeCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	if isAbsent(val) {
		return c.null.EncodeNull(enc)
	}
	enc, err := c.null.EncodeNotNull(enc)
	if err != nil {
		var zero E
		return zero, err
	}
	return c.base.Encode(val, enc)
}

func (c *nullSafeCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	isNull, err := c.null.IsNull(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	if isNull {
		return reflect.Zero(dynType), nil
	}
	return c.base.Decode(dynType, enc)
}

// isAbsent 判断 val 是否视作空值。
func isAbsent(val reflect.Value) bool {
	if !val.IsValid() {
		return true
	}
	switch val.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return val.IsNil()
	default:
		return false
	}
}

// ptrCodec 处理指针类型：nil 落空值哨兵，
// 非 nil 则写存在标记后对指向值编码，解码时重建指针。
type ptrCodec[E any] struct {
	null NullCodec[E]
	elem Codec[E]
}

func (c *ptrCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	if val.IsNil() {
		return c.null.EncodeNull(enc)
	}
	enc, err := c.null.EncodeNotNull(enc)
	if err != nil {
		var zero E
		return zero, err
	}
	return c.elem.Encode(val.Elem(), enc)
}

func (c *ptrCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	isNull, err := c.null.IsNull(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	if isNull {
		return reflect.Zero(dynType), nil
	}
	v, err := c.elem.Decode(dynType.Elem(), enc)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(dynType.Elem())
	p.Elem().Set(v)
	return p, nil
}
