package codec

import (
	"reflect"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// dynamicCodec 返回 t 的动态分发包装。
// 具体类型的包装持有静态底座，运行时类型与声明一致时
// 不写标签直接走底座；接口类型没有底座，始终依赖标签。
func (c *Core[E]) dynamicCodec(t reflect.Type) (Codec[E], error) {
	if t.Kind() == reflect.Interface {
		return &dynCodec[E]{core: c, declared: t}, nil
	}
	base, err := c.resolve(t)
	if err != nil {
		return nil, err
	}
	return &dynCodec[E]{core: c, declared: t, base: base}, nil
}

// dynCodec 按运行时类型分发编解码。
//
// 编码：运行时类型等于声明类型时写“无标签”标记后走底座；
// 否则落盘运行时类型标签，再按运行时类型解析 Codec。
// 解码：读到标签则按名查类型并分发，无标签退回声明类型底座。
type dynCodec[E any] struct {
	core     *Core[E]
	declared reflect.Type
	// base 为声明类型的静态底座，接口声明类型时为 nil。
	base Codec[E]
}

func (c *dynCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	var zero E

	rv := val
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return c.core.format.NullCodec().EncodeNull(enc)
		}
		rv = rv.Elem()
	}

	// 这里比较原始运行时类型，代理映射由 resolve 内部处理；
	// 被代理的具名类型照常走无标签路径。
	rt := rv.Type()
	if rt == c.declared && c.base != nil {
		enc, err := c.core.format.WriteUntagged(enc)
		if err != nil {
			return zero, err
		}
		return c.base.Encode(rv, enc)
	}

	// 运行时类型与声明不符，落盘标签并登记类型名，
	// 保证同进程解码一定能按名找回类型。
	name := TypeName(rt)
	c.core.typeNames.GetOrInsert(name, rt)
	rtc, err := c.core.resolve(rt)
	if err != nil {
		return zero, err
	}
	enc, err = c.core.format.WriteTypeTag(enc, name)
	if err != nil {
		return zero, err
	}
	return rtc.Encode(rv, enc)
}

func (c *dynCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	name, tagged, err := c.core.format.ReadTypeTag(enc)
	if err != nil {
		return reflect.Value{}, err
	}

	if !tagged {
		if c.base == nil {
			return reflect.Value{}, merr.WrapErrStructureMismatch(
				"type tag", "untagged value",
				"interface type %s cannot be decoded without a tag", TypeName(c.declared))
		}
		return c.base.Decode(c.declared, enc)
	}

	rt, ok := c.core.typeNames.Get(name)
	if !ok {
		return reflect.Value{}, merr.WrapErrTypeNotFound(name,
			"type tag does not match any registered type")
	}
	rtc, err := c.core.resolve(rt)
	if err != nil {
		return reflect.Value{}, err
	}
	return rtc.Decode(rt, enc)
}
