package codec

import (
	"reflect"
	"strconv"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// sliceCodec 将切片编码为载体序列，逐元素委托元素 Codec。
type sliceCodec[E any] struct {
	format   Format[E]
	elem     Codec[E]
	elemType reflect.Type
}

func (c *sliceCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	var zero E
	n := val.Len()
	seq, err := c.format.BeginEntries(enc, n)
	if err != nil {
		return zero, err
	}
	for i := 0; i < n; i++ {
		entry, err := c.format.NewEntry(seq)
		if err != nil {
			return zero, err
		}
		if _, err := c.elem.Encode(val.Index(i), entry); err != nil {
			return zero, err
		}
	}
	return seq, nil
}

func (c *sliceCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	entries, err := c.format.Entries(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(dynType, len(entries), len(entries))
	for i, entry := range entries {
		v, err := c.elem.Decode(dynType.Elem(), entry)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

// arrayCodec 与 sliceCodec 类似，但长度固定，
// 解码时条目数与数组长度不符视为结构错误。
type arrayCodec[E any] struct {
	format   Format[E]
	elem     Codec[E]
	elemType reflect.Type
	length   int
}

func (c *arrayCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	var zero E
	seq, err := c.format.BeginEntries(enc, c.length)
	if err != nil {
		return zero, err
	}
	for i := 0; i < c.length; i++ {
		entry, err := c.format.NewEntry(seq)
		if err != nil {
			return zero, err
		}
		if _, err := c.elem.Encode(val.Index(i), entry); err != nil {
			return zero, err
		}
	}
	return seq, nil
}

func (c *arrayCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	entries, err := c.format.Entries(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(entries) != c.length {
		return reflect.Value{}, merr.WrapErrStructureMismatch(
			strconv.Itoa(c.length)+" entries", strconv.Itoa(len(entries))+" entries",
			"array type %s", TypeName(dynType))
	}
	out := reflect.New(dynType).Elem()
	for i, entry := range entries {
		v, err := c.elem.Decode(dynType.Elem(), entry)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

const (
	mapEntryKeyField = "key"
	mapEntryValField = "value"
)

// mapCodec 将 map 编码为“键值对条目”序列。
// 统一走条目表示而不对字符串键做特化，
// 使流式与树形载体共享同一套结构约定。
type mapCodec[E any] struct {
	format  Format[E]
	key     Codec[E]
	val     Codec[E]
	keyType reflect.Type
	valType reflect.Type
}

func (c *mapCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	var zero E
	seq, err := c.format.BeginEntries(enc, val.Len())
	if err != nil {
		return zero, err
	}
	iter := val.MapRange()
	for iter.Next() {
		entry, err := c.format.NewEntry(seq)
		if err != nil {
			return zero, err
		}
		kNode, err := c.format.NewField(entry, mapEntryKeyField)
		if err != nil {
			return zero, err
		}
		if _, err := c.key.Encode(iter.Key(), kNode); err != nil {
			return zero, err
		}
		vNode, err := c.format.NewField(entry, mapEntryValField)
		if err != nil {
			return zero, err
		}
		if _, err := c.val.Encode(iter.Value(), vNode); err != nil {
			return zero, err
		}
	}
	return seq, nil
}

func (c *mapCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	entries, err := c.format.Entries(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(dynType, len(entries))
	for _, entry := range entries {
		kNode, ok, err := c.format.FieldByName(entry, mapEntryKeyField)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			return reflect.Value{}, merr.WrapErrFieldNotFound(mapEntryKeyField,
				"map type %s", TypeName(dynType))
		}
		k, err := c.key.Decode(dynType.Key(), kNode)
		if err != nil {
			return reflect.Value{}, err
		}
		vNode, ok, err := c.format.FieldByName(entry, mapEntryValField)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			return reflect.Value{}, merr.WrapErrFieldNotFound(mapEntryValField,
				"map type %s", TypeName(dynType))
		}
		v, err := c.val.Decode(dynType.Elem(), vNode)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}
