package codec

import (
	"reflect"

	"github.com/lk2023060901/codec-garden-go/pkg/log"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
	"github.com/lk2023060901/codec-garden-go/pkg/util/typeutil"
	"go.uber.org/zap"
)

// builderState 是各阶段 builder 共享的累积状态。
// 字段声明过程中的错误滞后到 Map 终结时统一上报，
// 只保留第一个错误。
type builderState[T any, E any] struct {
	core   *Core[E]
	fields []objectField[E]
	names  typeutil.Set[string]
	err    error
}

func (s *builderState[T, E]) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// addField 追加一个字段声明。
// explicit 非 nil 时直接采用调用方给定的 Codec。
func (s *builderState[T, E]) addField(name string, ftype reflect.Type, nullable bool, explicit Codec[E], get func(obj reflect.Value) (reflect.Value, error)) {
	if s.err != nil {
		return
	}
	if s.names.Contain(name) {
		s.fail(merr.WrapErrFieldDuplicate(name, "type %s", TypeName(typeFor[T]())))
		return
	}
	s.names.Insert(name)

	cd := explicit
	if cd == nil {
		var err error
		cd, err = s.fieldCodec(ftype, nullable)
		if err != nil {
			s.fail(err)
			return
		}
	} else if nullable {
		cd = s.core.makeNullSafe(cd)
	}

	s.fields = append(s.fields, objectField[E]{
		name:  name,
		ftype: ftype,
		codec: cd,
		get:   get,
	})
}

// fieldCodec 解析 builder 字段使用的 Codec。
// 可空指针、接口、切片与 map 本身就带空值处理；
// 其余类型按 nullable 决定是否叠加空值安全包装。
func (s *builderState[T, E]) fieldCodec(ftype reflect.Type, nullable bool) (Codec[E], error) {
	switch ftype.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return s.core.fieldCodec(ftype)
	default:
		cd, err := s.core.fieldCodec(ftype)
		if err != nil {
			return nil, err
		}
		if nullable {
			cd = s.core.makeNullSafe(cd)
		}
		return cd, nil
	}
}

// build 终结声明，产出对象 Codec 并注册到核心。
func (s *builderState[T, E]) build(ctor func(args []any) (reflect.Value, error)) (Codec[E], error) {
	if s.err != nil {
		return nil, s.err
	}
	t := typeFor[T]()
	cd := &objectCodec[E]{
		format: s.core.format,
		typ:    t,
		fields: s.fields,
		newAcc: func(reflect.Type) (objectAcc, error) {
			return &argsAcc{args: make([]any, len(s.fields)), ctor: ctor}, nil
		},
	}
	s.core.RegisterCodec(t, cd)
	log.Debug("struct codec registered via builder",
		zap.String("carrier", s.core.format.Name()),
		zap.String("type", TypeName(t)),
		zap.Int("fields", len(s.fields)))
	return cd, nil
}

// argsAcc 按声明顺序收集字段值，终结时交给构造函数。
type argsAcc struct {
	args []any
	ctor func(args []any) (reflect.Value, error)
}

func (a *argsAcc) setField(i int, _ string, v reflect.Value) error {
	if v.IsValid() {
		a.args[i] = v.Interface()
	}
	return nil
}

func (a *argsAcc) finish() (reflect.Value, error) {
	return a.ctor(a.args)
}

// typedGetter 将 func(T) A 提升为反射取值函数。
func typedGetter[T any, A any](get func(T) A) func(obj reflect.Value) (reflect.Value, error) {
	return func(obj reflect.Value) (reflect.Value, error) {
		v, ok := obj.Interface().(T)
		if !ok {
			return reflect.Value{}, merr.WrapErrStructureMismatch(
				TypeName(typeFor[T]()), TypeName(obj.Type()))
		}
		a := get(v)
		// 经指针取 Elem，nil 指针与 nil 接口同样得到带类型的值。
		return reflect.ValueOf(&a).Elem(), nil
	}
}

// untypedGetter 将无类型取值函数提升为反射取值函数，
// 返回值归一化到声明类型 ftype。
func untypedGetter[T any](ftype reflect.Type, get func(T) any) func(obj reflect.Value) (reflect.Value, error) {
	return func(obj reflect.Value) (reflect.Value, error) {
		v, ok := obj.Interface().(T)
		if !ok {
			return reflect.Value{}, merr.WrapErrStructureMismatch(
				TypeName(typeFor[T]()), TypeName(obj.Type()))
		}
		a := get(v)
		if a == nil {
			return reflect.Zero(ftype), nil
		}
		if ftype.Kind() == reflect.Interface {
			iv := reflect.New(ftype).Elem()
			iv.Set(reflect.ValueOf(a))
			return iv, nil
		}
		rv := reflect.ValueOf(a)
		if rv.Type() != ftype && !rv.Type().AssignableTo(ftype) {
			return reflect.Value{}, merr.WrapErrStructureMismatch(
				TypeName(ftype), TypeName(rv.Type()))
		}
		return rv, nil
	}
}

// typedArg 从参数槽取回第 i 个类型化参数，
// 空值槽位退化为零值。
func typedArg[A any](args []any, i int) A {
	a, _ := args[i].(A)
	return a
}

func wrapCtorResult[T any](v T) (reflect.Value, error) {
	return reflect.ValueOf(&v).Elem(), nil
}

// StructBuilder 是结构化对象 Codec 的声明入口，尚未声明任何字段。
// 前四个字段可使用类型化的 Field/NullField 阶梯，
// 超出后经 FieldN 进入无类型模式，以 MapN 终结。
//
// Go 的方法不能引入新的类型参数，
// 类型化的字段声明因此都是自由函数。
type StructBuilder[T any, E any] struct {
	s *builderState[T, E]
}

// NewStructBuilder 为 T 创建 builder。
// Map/MapN 终结时产出的 Codec 自动注册到 core。
func NewStructBuilder[T any, E any](core *Core[E]) *StructBuilder[T, E] {
	return &StructBuilder[T, E]{s: &builderState[T, E]{
		core:  core,
		names: typeutil.NewSet[string](),
	}}
}

// StructBuilder1 持有一个已声明字段。
type StructBuilder1[T any, E any, A any] struct {
	s *builderState[T, E]
}

// StructBuilder2 持有两个已声明字段。
type StructBuilder2[T any, E any, A any, B any] struct {
	s *builderState[T, E]
}

// StructBuilder3 持有三个已声明字段。
type StructBuilder3[T any, E any, A any, B any, C any] struct {
	s *builderState[T, E]
}

// StructBuilder4 持有四个已声明字段。
type StructBuilder4[T any, E any, A any, B any, C any, D any] struct {
	s *builderState[T, E]
}

// StructBuilderN 为无类型模式，字段数不限。
type StructBuilderN[T any, E any] struct {
	s *builderState[T, E]
}

// Field 声明第一个字段。
func Field[T any, E any, A any](b *StructBuilder[T, E], name string, get func(T) A) *StructBuilder1[T, E, A] {
	b.s.addField(name, typeFor[A](), false, nil, typedGetter(get))
	return &StructBuilder1[T, E, A]{s: b.s}
}

// NullField 声明第一个字段，值可缺失。
func NullField[T any, E any, A any](b *StructBuilder[T, E], name string, get func(T) A) *StructBuilder1[T, E, A] {
	b.s.addField(name, typeFor[A](), true, nil, typedGetter(get))
	return &StructBuilder1[T, E, A]{s: b.s}
}

// FieldWith 声明第一个字段并指定其 Codec。
func FieldWith[T any, E any, A any](b *StructBuilder[T, E], name string, get func(T) A, cd Codec[E]) *StructBuilder1[T, E, A] {
	b.s.addField(name, typeFor[A](), false, cd, typedGetter(get))
	return &StructBuilder1[T, E, A]{s: b.s}
}

// Field2 声明第二个字段。
func Field2[T any, E any, A any, B any](b *StructBuilder1[T, E, A], name string, get func(T) B) *StructBuilder2[T, E, A, B] {
	b.s.addField(name, typeFor[B](), false, nil, typedGetter(get))
	return &StructBuilder2[T, E, A, B]{s: b.s}
}

// NullField2 声明第二个字段，值可缺失。
func NullField2[T any, E any, A any, B any](b *StructBuilder1[T, E, A], name string, get func(T) B) *StructBuilder2[T, E, A, B] {
	b.s.addField(name, typeFor[B](), true, nil, typedGetter(get))
	return &StructBuilder2[T, E, A, B]{s: b.s}
}

// FieldWith2 声明第二个字段并指定其 Codec。
func FieldWith2[T any, E any, A any, B any](b *StructBuilder1[T, E, A], name string, get func(T) B, cd Codec[E]) *StructBuilder2[T, E, A, B] {
	b.s.addField(name, typeFor[B](), false, cd, typedGetter(get))
	return &StructBuilder2[T, E, A, B]{s: b.s}
}

// Field3 声明第三个字段。
func Field3[T any, E any, A any, B any, C any](b *StructBuilder2[T, E, A, B], name string, get func(T) C) *StructBuilder3[T, E, A, B, C] {
	b.s.addField(name, typeFor[C](), false, nil, typedGetter(get))
	return &StructBuilder3[T, E, A, B, C]{s: b.s}
}

// NullField3 声明第三个字段，值可缺失。
func NullField3[T any, E any, A any, B any, C any](b *StructBuilder2[T, E, A, B], name string, get func(T) C) *StructBuilder3[T, E, A, B, C] {
	b.s.addField(name, typeFor[C](), true, nil, typedGetter(get))
	return &StructBuilder3[T, E, A, B, C]{s: b.s}
}

// FieldWith3 声明第三个字段并指定其 Codec。
func FieldWith3[T any, E any, A any, B any, C any](b *StructBuilder2[T, E, A, B], name string, get func(T) C, cd Codec[E]) *StructBuilder3[T, E, A, B, C] {
	b.s.addField(name, typeFor[C](), false, cd, typedGetter(get))
	return &StructBuilder3[T, E, A, B, C]{s: b.s}
}

// Field4 声明第四个字段。
func Field4[T any, E any, A any, B any, C any, D any](b *StructBuilder3[T, E, A, B, C], name string, get func(T) D) *StructBuilder4[T, E, A, B, C, D] {
	b.s.addField(name, typeFor[D](), false, nil, typedGetter(get))
	return &StructBuilder4[T, E, A, B, C, D]{s: b.s}
}

// NullField4 声明第四个字段，值可缺失。
func NullField4[T any, E any, A any, B any, C any, D any](b *StructBuilder3[T, E, A, B, C], name string, get func(T) D) *StructBuilder4[T, E, A, B, C, D] {
	b.s.addField(name, typeFor[D](), true, nil, typedGetter(get))
	return &StructBuilder4[T, E, A, B, C, D]{s: b.s}
}

// FieldWith4 声明第四个字段并指定其 Codec。
func FieldWith4[T any, E any, A any, B any, C any, D any](b *StructBuilder3[T, E, A, B, C], name string, get func(T) D, cd Codec[E]) *StructBuilder4[T, E, A, B, C, D] {
	b.s.addField(name, typeFor[D](), false, cd, typedGetter(get))
	return &StructBuilder4[T, E, A, B, C, D]{s: b.s}
}

// Map 以单参数构造函数终结声明。
func (b *StructBuilder1[T, E, A]) Map(ctor func(A) T) (Codec[E], error) {
	return b.s.build(func(args []any) (reflect.Value, error) {
		return wrapCtorResult(ctor(typedArg[A](args, 0)))
	})
}

// Map 以双参数构造函数终结声明。
func (b *StructBuilder2[T, E, A, B]) Map(ctor func(A, B) T) (Codec[E], error) {
	return b.s.build(func(args []any) (reflect.Value, error) {
		return wrapCtorResult(ctor(typedArg[A](args, 0), typedArg[B](args, 1)))
	})
}

// Map 以三参数构造函数终结声明。
func (b *StructBuilder3[T, E, A, B, C]) Map(ctor func(A, B, C) T) (Codec[E], error) {
	return b.s.build(func(args []any) (reflect.Value, error) {
		return wrapCtorResult(ctor(typedArg[A](args, 0), typedArg[B](args, 1), typedArg[C](args, 2)))
	})
}

// Map 以四参数构造函数终结声明。
func (b *StructBuilder4[T, E, A, B, C, D]) Map(ctor func(A, B, C, D) T) (Codec[E], error) {
	return b.s.build(func(args []any) (reflect.Value, error) {
		return wrapCtorResult(ctor(
			typedArg[A](args, 0), typedArg[B](args, 1),
			typedArg[C](args, 2), typedArg[D](args, 3)))
	})
}

// FieldN 从无字段状态直接进入无类型模式。
// ftype 为字段的声明类型。
func (b *StructBuilder[T, E]) FieldN(name string, ftype reflect.Type, get func(T) any) *StructBuilderN[T, E] {
	b.s.addField(name, ftype, false, nil, untypedGetter(ftype, get))
	return &StructBuilderN[T, E]{s: b.s}
}

// FieldN 在四个类型化字段之后继续声明字段，进入无类型模式。
func (b *StructBuilder4[T, E, A, B, C, D]) FieldN(name string, ftype reflect.Type, get func(T) any) *StructBuilderN[T, E] {
	b.s.addField(name, ftype, false, nil, untypedGetter(ftype, get))
	return &StructBuilderN[T, E]{s: b.s}
}

// FieldN 追加一个无类型字段。
func (b *StructBuilderN[T, E]) FieldN(name string, ftype reflect.Type, get func(T) any) *StructBuilderN[T, E] {
	b.s.addField(name, ftype, false, nil, untypedGetter(ftype, get))
	return b
}

// NullFieldN 追加一个可缺失的无类型字段。
func (b *StructBuilderN[T, E]) NullFieldN(name string, ftype reflect.Type, get func(T) any) *StructBuilderN[T, E] {
	b.s.addField(name, ftype, true, nil, untypedGetter(ftype, get))
	return b
}

// MapN 以无类型构造函数终结声明，
// 参数切片按字段声明顺序排列。
func (b *StructBuilderN[T, E]) MapN(ctor func(args []any) (T, error)) (Codec[E], error) {
	return b.s.build(func(args []any) (reflect.Value, error) {
		v, err := ctor(args)
		if err != nil {
			return reflect.Value{}, merr.WrapErrInstantiation(TypeName(typeFor[T]()),
				"constructor failed: %v", err)
		}
		return wrapCtorResult(v)
	})
}
