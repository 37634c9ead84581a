package jsontree

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/codec-garden-go/pkg/codec"
)

type primitives struct {
	B   bool
	I   int
	I8  int8
	I16 int16
	I32 int32
	I64 int64
	U8  uint8
	U16 uint16
	U32 uint32
	U64 uint64
	F32 float32
	F64 float64
	S   string
	By  []byte
}

type address struct {
	City string
	Zip  string
}

type person struct {
	Name    string
	Age     int
	Home    address
	Work    *address
	Aliases []string
	Rank    map[string]int64
	Born    time.Time
}

type Meta struct {
	Name string
}

type document struct {
	Meta
	Name string
	Body string
}

type treeNode struct {
	Label    string
	Children []*treeNode
}

type FormatSuite struct {
	suite.Suite

	core *codec.Core[*Value]
}

func (s *FormatSuite) SetupTest() {
	s.core = NewCore()
}

// roundTrip 先经值树、再经字节投影各走一个来回。
func (s *FormatSuite) roundTrip(val any) any {
	root := New()
	_, err := s.core.EncodeAs(reflect.TypeOf(val), val, root)
	s.Require().NoError(err)

	data, err := Marshal(root)
	s.Require().NoError(err)
	back, err := Unmarshal(data)
	s.Require().NoError(err)

	out, err := s.core.Decode(reflect.TypeOf(val), back)
	s.Require().NoError(err)
	return out
}

func (s *FormatSuite) TestPrimitives() {
	in := primitives{
		B: true,
		I: -1, I8: -8, I16: -16, I32: -32, I64: 1 << 60,
		U8: 8, U16: 16, U32: 32, U64: 1 << 60,
		F32: 0.5, F64: -2.25,
		S:  "héllo",
		By: []byte{0x00, 0xff, 0x10},
	}
	s.Equal(in, s.roundTrip(in))
}

func (s *FormatSuite) TestZeroValues() {
	s.Equal(primitives{}, s.roundTrip(primitives{}))
}

func (s *FormatSuite) TestBytesAsBase64() {
	root := New()
	_, err := codec.Encode(s.core, primitives{By: []byte("abc")}, root)
	s.Require().NoError(err)

	node, ok := root.Field("By")
	s.Require().True(ok)
	s.Equal(KindString, node.Kind())
	s.Equal("YWJj", node.Text())
}

func (s *FormatSuite) TestNestedStruct() {
	born := time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)
	in := person{
		Name:    "ada",
		Age:     27,
		Home:    address{City: "sh", Zip: "200000"},
		Work:    &address{City: "bj", Zip: "100000"},
		Aliases: []string{"a", "b"},
		Rank:    map[string]int64{"x": 1, "y": 2},
		Born:    born,
	}
	out := s.roundTrip(in).(person)
	s.Equal(in.Name, out.Name)
	s.Equal(in.Home, out.Home)
	s.Equal(in.Work, out.Work)
	s.Equal(in.Aliases, out.Aliases)
	s.Equal(in.Rank, out.Rank)
	s.True(in.Born.Equal(out.Born))
}

func (s *FormatSuite) TestTimeAsString() {
	root := New()
	_, err := codec.Encode(s.core, person{Born: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}, root)
	s.Require().NoError(err)

	node, ok := root.Field("Born")
	s.Require().True(ok)
	s.Equal(KindString, node.Kind())
	s.Equal("2026-01-02T03:04:05Z", node.Text())
}

func (s *FormatSuite) TestFieldOrderStable() {
	root := New()
	_, err := codec.Encode(s.core, person{}, root)
	s.Require().NoError(err)

	var names []string
	for _, m := range root.Members() {
		names = append(names, m.Name)
	}
	s.Equal([]string{"Name", "Age", "Home", "Work", "Aliases", "Rank", "Born"}, names)
}

func (s *FormatSuite) TestEmbeddedCollision() {
	in := document{Meta: Meta{Name: "inner"}, Name: "outer", Body: "text"}
	root := New()
	_, err := codec.Encode(s.core, in, root)
	s.Require().NoError(err)

	// 嵌入字段先展开，后出现的同名字段加 "*" 前缀。
	var names []string
	for _, m := range root.Members() {
		names = append(names, m.Name)
	}
	s.Equal([]string{"Name", "*Name", "Body"}, names)

	out, err := codec.Decode[document](s.core, root)
	s.Require().NoError(err)
	s.Equal(in, out)
}

func (s *FormatSuite) TestEmptyStructProjectsAsObject() {
	type marker struct{}
	type flagged struct {
		M marker
		N int64
	}

	// 零字段的结构体也要占据一个有形的对象节点，
	// 否则字节投影会碰到从未写入的空白节点。
	root := New()
	_, err := codec.Encode(s.core, marker{}, root)
	s.Require().NoError(err)
	s.Equal(KindObject, root.Kind())

	data, err := Marshal(root)
	s.Require().NoError(err)
	s.Equal("{}", string(data))

	in := flagged{N: 5}
	s.Equal(in, s.roundTrip(in))
}

func (s *FormatSuite) TestRecursiveTree() {
	in := treeNode{
		Label: "root",
		Children: []*treeNode{
			{Label: "l"},
			{Label: "r", Children: []*treeNode{{Label: "rl"}}},
		},
	}
	s.Equal(in, s.roundTrip(in))
}

func (s *FormatSuite) TestMapWithIntKeys() {
	in := map[int32]string{1: "one", 2: "two"}
	out := s.roundTrip(in).(map[int32]string)
	s.Equal(in, out)
}

func (s *FormatSuite) TestSliceOfPointers() {
	one := address{City: "a"}
	in := []*address{&one, nil, {City: "c"}}
	out := s.roundTrip(in).([]*address)
	s.Require().Len(out, 3)
	s.Equal(&one, out[0])
	s.Nil(out[1])
	s.Equal("c", out[2].City)
}

func (s *FormatSuite) TestArray() {
	in := [3]int64{7, 8, 9}
	s.Equal(in, s.roundTrip(in))
}

func (s *FormatSuite) TestStructureMismatch() {
	// 布尔节点当数字解，报结构错误。
	_, err := s.core.Decode(reflect.TypeOf(int64(0)), Bool(true))
	s.Error(err)
}

func TestFormat(t *testing.T) {
	suite.Run(t, new(FormatSuite))
}
