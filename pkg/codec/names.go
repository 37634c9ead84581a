package codec

import (
	"fmt"
	"reflect"
)

// TypeName 返回类型的规范名称，作为注册表和类型标签的键。
//
// 具名类型使用完整包路径加类型名，匿名组合类型按元素递归拼装，
// 保证同一逻辑类型在任何构建中得到相同的名称。
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if name := t.Name(); name != "" {
		if pkg := t.PkgPath(); pkg != "" {
			return pkg + "." + name
		}
		return name
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), TypeName(t.Elem()))
	case reflect.Map:
		return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
	default:
		// 匿名 struct、chan、func 等，reflect 的字符串表示已经稳定。
		return t.String()
	}
}

// typeFor 返回类型参数 T 对应的 reflect.Type。
// 与 reflect.TypeOf 不同，T 为接口类型时返回接口本身。
func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
