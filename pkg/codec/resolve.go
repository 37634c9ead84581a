package codec

import (
	"encoding"
	"reflect"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// buildCodec 为 t 构建空值无关的 Codec，解析顺序：
// 文本自描述类型、基础 kind、字节切片快路径、容器、
// 指针、结构体、接口；其余 kind 一律报不支持。
func (c *Core[E]) buildCodec(t reflect.Type) (Codec[E], error) {
	if isTextSelfDescribing(t) {
		return textCodec[E]{str: c.format.StringCodec()}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return adaptBool(c.format.BoolCodec()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return adaptInt(c.format.IntCodec()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return adaptUint(c.format.UintCodec()), nil
	case reflect.Float32, reflect.Float64:
		return adaptFloat(c.format.FloatCodec()), nil
	case reflect.String:
		return adaptString(c.format.StringCodec()), nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if raw, ok := any(c.format).(RawBytesFormat[E]); ok {
				return bytesCodec[E]{raw: raw}, nil
			}
		}
		elem, err := c.fieldCodec(t.Elem())
		if err != nil {
			return nil, err
		}
		return &sliceCodec[E]{format: c.format, elem: elem, elemType: t.Elem()}, nil

	case reflect.Array:
		elem, err := c.fieldCodec(t.Elem())
		if err != nil {
			return nil, err
		}
		return &arrayCodec[E]{format: c.format, elem: elem, elemType: t.Elem(), length: t.Len()}, nil

	case reflect.Map:
		key, err := c.fieldCodec(t.Key())
		if err != nil {
			return nil, err
		}
		val, err := c.fieldCodec(t.Elem())
		if err != nil {
			return nil, err
		}
		return &mapCodec[E]{
			format:  c.format,
			key:     key,
			val:     val,
			keyType: t.Key(),
			valType: t.Elem(),
		}, nil

	case reflect.Pointer:
		elem, err := c.resolve(t.Elem())
		if err != nil {
			return nil, err
		}
		return &ptrCodec[E]{null: c.format.NullCodec(), elem: elem}, nil

	case reflect.Struct:
		return c.buildStructCodec(t)

	case reflect.Interface:
		// 接口类型没有静态底座，永远经由动态分发。
		return c.dynamicCodec(t)

	default:
		return nil, merr.WrapErrTypeUnsupported(TypeName(t))
	}
}

// fieldCodec 返回 t 作为字段、元素或键值出现时使用的 Codec。
// 可空 kind 在这里叠加空值安全包装，指针自身即是空值安全的。
func (c *Core[E]) fieldCodec(t reflect.Type) (Codec[E], error) {
	switch t.Kind() {
	case reflect.Interface:
		cd, err := c.dynamicCodec(t)
		if err != nil {
			return nil, err
		}
		return c.makeNullSafe(cd), nil
	case reflect.Pointer:
		return c.resolve(t)
	case reflect.Slice, reflect.Map:
		cd, err := c.resolve(t)
		if err != nil {
			return nil, err
		}
		return c.makeNullSafe(cd), nil
	default:
		return c.resolve(t)
	}
}

// isTextSelfDescribing 判断 t 是否自带文本表示：
// 值实现 TextMarshaler 且其指针实现 TextUnmarshaler，
// time.Time 等类型借此走字符串叶子而非逐字段展开。
func isTextSelfDescribing(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(textMarshalerType) &&
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// textCodec 将自描述类型映射到载体的字符串叶子。
type textCodec[E any] struct {
	str StringCodec[E]
}

func (c textCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	tm, ok := val.Interface().(encoding.TextMarshaler)
	if !ok {
		var zero E
		return zero, merr.WrapErrTypeUnsupported(TypeName(val.Type()),
			"value does not implement TextMarshaler")
	}
	b, err := tm.MarshalText()
	if err != nil {
		var zero E
		return zero, merr.WrapErrIoFailed(TypeName(val.Type()), err)
	}
	return c.str.EncodeString(string(b), enc)
}

func (c textCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	s, err := c.str.DecodeString(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(dynType)
	um, ok := p.Interface().(encoding.TextUnmarshaler)
	if !ok {
		return reflect.Value{}, merr.WrapErrTypeUnsupported(TypeName(dynType),
			"pointer does not implement TextUnmarshaler")
	}
	if err := um.UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, merr.WrapErrStructureMismatch(TypeName(dynType), s, "unmarshal text failed: %v", err)
	}
	return p.Elem(), nil
}

// bytesCodec 走载体的原生字节表示。
type bytesCodec[E any] struct {
	raw RawBytesFormat[E]
}

func (c bytesCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	return c.raw.EncodeBytes(val.Bytes(), enc)
}

func (c bytesCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	b, err := c.raw.DecodeBytes(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	out.SetBytes(b)
	return out, nil
}

// stringProxyCodec 经由用户提供的字符串互转函数编解码。
type stringProxyCodec[T any, E any] struct {
	str    StringCodec[E]
	encode func(T) (string, error)
	decode func(string) (T, error)
}

func (c *stringProxyCodec[T, E]) Encode(val reflect.Value, enc E) (E, error) {
	v, ok := val.Interface().(T)
	if !ok {
		var zero E
		return zero, merr.WrapErrStructureMismatch(
			TypeName(typeFor[T]()), TypeName(val.Type()))
	}
	s, err := c.encode(v)
	if err != nil {
		var zero E
		return zero, err
	}
	return c.str.EncodeString(s, enc)
}

func (c *stringProxyCodec[T, E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	s, err := c.str.DecodeString(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := c.decode(s)
	if err != nil {
		return reflect.Value{}, merr.WrapErrStructureMismatch(TypeName(dynType), s, "proxy decode failed: %v", err)
	}
	return reflect.ValueOf(&v).Elem(), nil
}

// RegisterStringProxy 将 T 注册为经字符串互转的叶子类型，
// 典型用途是枚举样的具名类型。
func RegisterStringProxy[T any, E any](c *Core[E], encode func(T) (string, error), decode func(string) (T, error)) {
	RegisterCodecFor[T](c, &stringProxyCodec[T, E]{
		str:    c.format.StringCodec(),
		encode: encode,
		decode: decode,
	})
}
