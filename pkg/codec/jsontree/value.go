// Package jsontree 提供基于 JSON 值树的编码载体。
//
// 树中的对象成员保持写入顺序，节点可携带动态类型标签，
// 标签在字节投影中以 "@type"/"@value" 包装对象表示。
package jsontree

import (
	"bytes"
	"encoding/json"
	"strconv"

	ijson "github.com/lk2023060901/codec-garden-go/internal/json"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// Kind 标识节点承载的值类别。
type Kind uint8

const (
	// KindInvalid 表示尚未写入任何值的空白节点。
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member 是对象节点的一个具名成员。
type Member struct {
	Name  string
	Value *Value
}

// Value 是 JSON 值树的节点。
// 数值统一保存十进制文本，int64 全域不丢精度。
type Value struct {
	kind Kind
	b    bool
	num  string
	str  string
	arr  []*Value
	obj  []Member

	// tag 为动态类型标签，独立于值本体。
	tag string
}

// New 返回一个空白节点，由编码过程写入内容。
func New() *Value {
	return &Value{}
}

// Null 构造 null 节点。
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool 构造布尔节点。
func Bool(b bool) *Value {
	return &Value{kind: KindBool, b: b}
}

// Int 构造整数数值节点。
func Int(n int64) *Value {
	return &Value{kind: KindNumber, num: strconv.FormatInt(n, 10)}
}

// Uint 构造无符号整数数值节点。
func Uint(n uint64) *Value {
	return &Value{kind: KindNumber, num: strconv.FormatUint(n, 10)}
}

// Float 构造浮点数值节点。
func Float(f float64) *Value {
	return &Value{kind: KindNumber, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

// String 构造字符串节点。
func String(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// ArrayOf 构造数组节点。
func ArrayOf(items ...*Value) *Value {
	return &Value{kind: KindArray, arr: items}
}

// ObjectOf 构造对象节点。
func ObjectOf(members ...Member) *Value {
	return &Value{kind: KindObject, obj: members}
}

// Kind 返回节点类别。
func (v *Value) Kind() Kind {
	return v.kind
}

// IsNull 判断节点是否为 null。
func (v *Value) IsNull() bool {
	return v.kind == KindNull
}

// Bool 返回布尔载荷，仅 KindBool 节点有意义。
func (v *Value) Bool() bool {
	return v.b
}

// Number 返回数值的十进制文本，仅 KindNumber 节点有意义。
func (v *Value) Number() string {
	return v.num
}

// Text 返回字符串载荷，仅 KindString 节点有意义。
func (v *Value) Text() string {
	return v.str
}

// Items 返回数组的全部条目。
func (v *Value) Items() []*Value {
	return v.arr
}

// Members 返回对象的全部成员，顺序与写入一致。
func (v *Value) Members() []Member {
	return v.obj
}

// Field 按名查找对象成员。
func (v *Value) Field(name string) (*Value, bool) {
	for i := range v.obj {
		if v.obj[i].Name == name {
			return v.obj[i].Value, true
		}
	}
	return nil, false
}

// Tag 返回节点携带的动态类型标签，空串表示无标签。
func (v *Value) Tag() string {
	return v.tag
}

// String 返回节点的紧凑 JSON 文本，便于日志与调试。
func (v *Value) String() string {
	b, err := Marshal(v)
	if err != nil {
		return "<invalid " + v.kind.String() + ">"
	}
	return string(b)
}

// 以下 setter 供同包的载体实现使用，写值时保留已有标签。

func (v *Value) setNull() {
	v.kind = KindNull
}

func (v *Value) setBool(b bool) {
	v.kind = KindBool
	v.b = b
}

func (v *Value) setNumber(text string) {
	v.kind = KindNumber
	v.num = text
}

func (v *Value) setString(s string) {
	v.kind = KindString
	v.str = s
}

func (v *Value) setArray(capacity int) {
	v.kind = KindArray
	v.arr = make([]*Value, 0, capacity)
}

func (v *Value) setObject() {
	v.kind = KindObject
}

const (
	tagTypeField  = "@type"
	tagValueField = "@value"
)

// Marshal 将值树投影为 JSON 字节序列。
// 对象成员按写入顺序落盘，带标签的节点包装为
// {"@type": 标签, "@value": 本体}。
func Marshal(v *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v *Value, withTag bool) error {
	if v == nil {
		buf.WriteString("null")
		return nil
	}
	if withTag && v.tag != "" {
		buf.WriteString(`{"` + tagTypeField + `":`)
		if err := writeString(buf, v.tag); err != nil {
			return err
		}
		buf.WriteString(`,"` + tagValueField + `":`)
		if err := writeValue(buf, v, false); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	}

	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if v.num == "" {
			return merr.WrapErrStructureMismatch("number text", "empty")
		}
		buf.WriteString(v.num)
	case KindString:
		return writeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item, true); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, v.obj[i].Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, v.obj[i].Value, true); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return merr.WrapErrStructureMismatch("written value", v.kind.String())
	}
	return nil
}

// writeString 输出一个带引号的 JSON 字符串，转义交给 JSON 库。
func writeString(buf *bytes.Buffer, s string) error {
	b, err := ijson.Marshal(s)
	if err != nil {
		return merr.WrapErrIoFailed("jsontree", err)
	}
	buf.Write(b)
	return nil
}

// Unmarshal 将 JSON 字节序列还原为值树。
// JSON 对象不保序，还原后的成员顺序以输入文本为准不作保证，
// 解码路径只按名访问成员，不受影响。
func Unmarshal(data []byte) (*Value, error) {
	dec := ijson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, merr.WrapErrIoFailed("jsontree", err)
	}
	return fromAny(raw)
}

func fromAny(raw any) (*Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		return &Value{kind: KindNumber, num: x.String()}, nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []any:
		items := make([]*Value, 0, len(x))
		for _, item := range x {
			v, err := fromAny(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return ArrayOf(items...), nil
	case map[string]any:
		if len(x) == 2 {
			if tag, ok := x[tagTypeField].(string); ok {
				if inner, exists := x[tagValueField]; exists {
					v, err := fromAny(inner)
					if err != nil {
						return nil, err
					}
					v.tag = tag
					return v, nil
				}
			}
		}
		members := make([]Member, 0, len(x))
		for name, item := range x {
			v, err := fromAny(item)
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Name: name, Value: v})
		}
		return ObjectOf(members...), nil
	default:
		return nil, merr.WrapErrStructureMismatch("json value", "unexpected type")
	}
}
