package codec

import (
	"reflect"
	"slices"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
	"github.com/lk2023060901/codec-garden-go/pkg/util/typeutil"
)

// objectField 描述结构化对象的一个字段：
// 编码名、声明类型、字段 Codec 与取值函数。
type objectField[E any] struct {
	name  string
	ftype reflect.Type
	codec Codec[E]
	get   func(obj reflect.Value) (reflect.Value, error)
}

// objectAcc 在解码过程中累积字段值并在最后产出实例。
// 反射路径按字段路径就地赋值，builder 路径收集参数后调构造函数。
type objectAcc interface {
	setField(i int, name string, v reflect.Value) error
	finish() (reflect.Value, error)
}

// objectCodec 是结构化对象编解码的公共骨架，
// 反射路径与 builder 路径只在字段来源和累积器上不同。
type objectCodec[E any] struct {
	format Format[E]
	typ    reflect.Type
	fields []objectField[E]
	newAcc func(dynType reflect.Type) (objectAcc, error)
}

func (c *objectCodec[E]) Encode(val reflect.Value, enc E) (E, error) {
	var zero E
	enc, err := c.format.BeginObject(enc)
	if err != nil {
		return zero, err
	}
	for i := range c.fields {
		f := &c.fields[i]
		fv, err := f.get(val)
		if err != nil {
			return zero, err
		}
		node, err := c.format.NewField(enc, f.name)
		if err != nil {
			return zero, err
		}
		if _, err := f.codec.Encode(fv, node); err != nil {
			return zero, err
		}
	}
	return enc, nil
}

func (c *objectCodec[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	acc, err := c.newAcc(dynType)
	if err != nil {
		return reflect.Value{}, err
	}
	for i := range c.fields {
		f := &c.fields[i]
		node, ok, err := c.format.FieldByName(enc, f.name)
		if err != nil {
			return reflect.Value{}, err
		}
		if !ok {
			return reflect.Value{}, merr.WrapErrFieldNotFound(f.name,
				"type %s", TypeName(dynType))
		}
		v, err := f.codec.Decode(f.ftype, node)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := acc.setField(i, f.name, v); err != nil {
			return reflect.Value{}, err
		}
	}
	return acc.finish()
}

// slotAcc 将解码出的字段按路径写回构造好的实例。
type slotAcc struct {
	val   reflect.Value
	paths [][]int
}

func (a *slotAcc) setField(i int, name string, v reflect.Value) error {
	target := a.val.FieldByIndex(a.paths[i])
	if !target.CanSet() {
		return merr.WrapErrStructureMismatch("settable field", name,
			"type %s", TypeName(a.val.Type()))
	}
	target.Set(v)
	return nil
}

func (a *slotAcc) finish() (reflect.Value, error) {
	return a.val, nil
}

// buildStructCodec 反射遍历 t 的导出字段构建对象 Codec。
//
// 匿名嵌入的结构体原位展开，形成扁平的字段序列；
// 展开后出现重名时，后出现的字段名前面加 "*" 予以区分，
// 两侧使用同一套展开规则，编码名因此保持确定。
func (c *Core[E]) buildStructCodec(t reflect.Type) (Codec[E], error) {
	var fields []objectField[E]
	var paths [][]int
	names := typeutil.NewSet[string]()

	var walk func(st reflect.Type, prefix []int) error
	walk = func(st reflect.Type, prefix []int) error {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			if !f.IsExported() {
				continue
			}
			if f.Anonymous && f.Type.Kind() == reflect.Struct && !isTextSelfDescribing(f.Type) {
				if err := walk(f.Type, append(prefix, i)); err != nil {
					return err
				}
				continue
			}

			name := f.Name
			for names.Contain(name) {
				name = "*" + name
			}
			names.Insert(name)

			fc, err := c.fieldCodec(f.Type)
			if err != nil {
				return err
			}

			idx := slices.Clone(append(prefix, i))
			fields = append(fields, objectField[E]{
				name:  name,
				ftype: f.Type,
				codec: fc,
				get: func(obj reflect.Value) (reflect.Value, error) {
					return obj.FieldByIndex(idx), nil
				},
			})
			paths = append(paths, idx)
		}
		return nil
	}
	if err := walk(t, nil); err != nil {
		return nil, err
	}

	ctor := c.typeConstructor(t)
	return &objectCodec[E]{
		format: c.format,
		typ:    t,
		fields: fields,
		newAcc: func(dynType reflect.Type) (objectAcc, error) {
			v, err := ctor()
			if err != nil {
				return nil, merr.WrapErrInstantiation(TypeName(dynType), "constructor failed: %v", err)
			}
			if !v.IsValid() || v.Type() != t {
				return nil, merr.WrapErrInstantiation(TypeName(dynType),
					"constructor returned wrong type")
			}
			if !v.CanSet() {
				// 用户构造器可能返回不可寻址的值，复制到可写实例。
				p := reflect.New(t)
				p.Elem().Set(v)
				v = p.Elem()
			}
			return &slotAcc{val: v, paths: paths}, nil
		},
	}, nil
}
