package codec_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/codec-garden-go/pkg/codec"
	"github.com/lk2023060901/codec-garden-go/pkg/codec/jsontree"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

type inner struct {
	Name  string
	Count int64
}

type outer struct {
	Inner  inner
	Ptr    *inner
	Tags   []string
	Scores map[string]float64
}

type linkedNode struct {
	ID   int64
	Next *linkedNode
}

type shape interface {
	Area() float64
}

type circle struct {
	Radius float64
}

func (c circle) Area() float64 {
	return 3 * c.Radius * c.Radius
}

type square struct {
	Side float64
}

func (s square) Area() float64 {
	return s.Side * s.Side
}

type canvas struct {
	Title string
	Main  shape
}

type badField struct {
	C chan int
	N int64
}

type userID int64

type CoreSuite struct {
	suite.Suite

	core *codec.Core[*jsontree.Value]
}

func (s *CoreSuite) SetupTest() {
	s.core = jsontree.NewCore()
}

func (s *CoreSuite) roundTrip(val any) any {
	root := jsontree.New()
	_, err := s.core.EncodeAs(reflect.TypeOf(val), val, root)
	s.Require().NoError(err)

	out, err := s.core.Decode(reflect.TypeOf(val), root)
	s.Require().NoError(err)
	return out
}

func (s *CoreSuite) TestStructRoundTrip() {
	in := outer{
		Inner:  inner{Name: "alpha", Count: 7},
		Ptr:    &inner{Name: "beta", Count: -1},
		Tags:   []string{"x", "y"},
		Scores: map[string]float64{"x": 1.5, "y": -2.25},
	}
	s.Equal(in, s.roundTrip(in))
}

func (s *CoreSuite) TestNilFieldsRoundTrip() {
	in := outer{Inner: inner{Name: "only"}}
	out := s.roundTrip(in).(outer)
	s.Nil(out.Ptr)
	s.Nil(out.Tags)
	s.Nil(out.Scores)
	s.Equal(in, out)
}

func (s *CoreSuite) TestRecursiveDepths() {
	for depth := 0; depth < 4; depth++ {
		var head *linkedNode
		for i := depth; i > 0; i-- {
			head = &linkedNode{ID: int64(i), Next: head}
		}
		in := linkedNode{ID: 0, Next: head}
		s.Equal(in, s.roundTrip(in), "depth %d", depth)
	}
}

func (s *CoreSuite) TestTopLevelNull() {
	root := jsontree.New()
	_, err := s.core.Encode(nil, root)
	s.Require().NoError(err)
	s.True(root.IsNull())

	out, err := s.core.Decode(reflect.TypeOf(&inner{}), root)
	s.Require().NoError(err)
	s.Nil(out.(*inner))
}

func (s *CoreSuite) TestDynamicDispatch() {
	in := canvas{Title: "t", Main: circle{Radius: 2}}
	out := s.roundTrip(in).(canvas)
	s.Equal(in, out)
	s.InDelta(12.0, out.Main.Area(), 1e-9)

	in = canvas{Title: "t", Main: square{Side: 3}}
	s.Equal(in, s.roundTrip(in))
}

func (s *CoreSuite) TestNilInterfaceField() {
	in := canvas{Title: "empty"}
	out := s.roundTrip(in).(canvas)
	s.Nil(out.Main)
}

func (s *CoreSuite) TestUnknownTypeTag() {
	root := jsontree.New()
	_, err := codec.Encode(s.core, canvas{Main: circle{Radius: 1}}, root)
	s.Require().NoError(err)

	// 用一个从未注册过的名称替换标签。
	member, ok := root.Field("Main")
	s.Require().True(ok)
	_, err = jsontree.Format{}.WriteTypeTag(member, "no.such.Type")
	s.Require().NoError(err)

	_, err = codec.Decode[canvas](s.core, root)
	s.ErrorIs(err, merr.ErrCodecTypeNotFound)
}

func (s *CoreSuite) TestDecodeTagOnFreshCore() {
	root := jsontree.New()
	_, err := codec.Encode(s.core, canvas{Main: circle{Radius: 1}}, root)
	s.Require().NoError(err)

	// 另一个核心没见过 circle，标签解不开。
	fresh := jsontree.NewCore()
	_, err = codec.Decode[canvas](fresh, root)
	s.ErrorIs(err, merr.ErrCodecTypeNotFound)

	// 显式登记类型名后可解。
	codec.RegisterTypeNameFor[circle](fresh)
	out, err := codec.Decode[canvas](fresh, root)
	s.Require().NoError(err)
	s.Equal(circle{Radius: 1}, out.Main)
}

func (s *CoreSuite) TestUnsupportedTypeFailsAndRetries() {
	in := badField{N: 42}
	root := jsontree.New()
	_, err := codec.Encode(s.core, in, root)
	s.Require().Error(err)
	s.ErrorIs(err, merr.ErrCodecBuildFailed)

	// 失败不留缓存残骸：补注册 chan 的 Codec 后重试成功。
	codec.RegisterCodecFor[chan int](s.core, nopCodec{})
	root = jsontree.New()
	_, err = codec.Encode(s.core, in, root)
	s.Require().NoError(err)

	out, err := codec.Decode[badField](s.core, root)
	s.Require().NoError(err)
	s.Equal(int64(42), out.N)
}

func (s *CoreSuite) TestRegisteredCodecWins() {
	// 手写 Codec 覆盖自动解析。
	codec.RegisterCodecFor[inner](s.core, constCodec{text: "custom"})
	root := jsontree.New()
	_, err := codec.Encode(s.core, inner{Name: "ignored"}, root)
	s.Require().NoError(err)
	s.Equal(jsontree.KindString, root.Kind())
	s.Equal("custom", root.Text())
}

func (s *CoreSuite) TestTypeProxy() {
	codec.RegisterTypeProxyFor[userID, int64](s.core)
	type account struct {
		Owner userID
	}
	in := account{Owner: userID(900)}
	s.Equal(in, s.roundTrip(in))
}

func (s *CoreSuite) TestCustomConstructor() {
	calls := 0
	s.core.RegisterTypeConstructor(reflect.TypeOf(inner{}), func() (reflect.Value, error) {
		calls++
		return reflect.ValueOf(inner{Count: -100}), nil
	})

	in := inner{Name: "ctor", Count: 5}
	out := s.roundTrip(in).(inner)
	s.Equal(in, out)
	s.Equal(1, calls)
}

func (s *CoreSuite) TestConcurrentResolve() {
	in := outer{
		Inner:  inner{Name: "conc", Count: 1},
		Ptr:    &inner{Name: "p", Count: 2},
		Tags:   []string{"a"},
		Scores: map[string]float64{"a": 1},
	}

	var eg errgroup.Group
	for i := 0; i < 16; i++ {
		eg.Go(func() error {
			root := jsontree.New()
			if _, err := codec.Encode(s.core, in, root); err != nil {
				return err
			}
			out, err := codec.Decode[outer](s.core, root)
			if err != nil {
				return err
			}
			if out.Inner.Name != "conc" {
				return merr.WrapErrParameterInvalid("conc", out.Inner.Name)
			}
			return nil
		})
	}
	s.NoError(eg.Wait())
}

func (s *CoreSuite) TestIntOverflow() {
	root := jsontree.New()
	_, err := codec.Encode(s.core, int64(300), root)
	s.Require().NoError(err)

	_, err = codec.Decode[int8](s.core, root)
	s.ErrorIs(err, merr.ErrCodecValueOverflow)
}

func TestCore(t *testing.T) {
	suite.Run(t, new(CoreSuite))
}

// nopCodec 丢弃输入、解码为零值，测试里顶替不可编码的字段。
type nopCodec struct{}

func (nopCodec) Encode(_ reflect.Value, enc *jsontree.Value) (*jsontree.Value, error) {
	return jsontree.Format{}.BoolCodec().EncodeBool(true, enc)
}

func (nopCodec) Decode(dynType reflect.Type, enc *jsontree.Value) (reflect.Value, error) {
	if _, err := (jsontree.Format{}).BoolCodec().DecodeBool(enc); err != nil {
		return reflect.Value{}, err
	}
	return reflect.Zero(dynType), nil
}

// constCodec 编码为固定字符串。
type constCodec struct {
	text string
}

func (c constCodec) Encode(_ reflect.Value, enc *jsontree.Value) (*jsontree.Value, error) {
	return jsontree.Format{}.StringCodec().EncodeString(c.text, enc)
}

func (c constCodec) Decode(dynType reflect.Type, enc *jsontree.Value) (reflect.Value, error) {
	text, err := jsontree.Format{}.StringCodec().DecodeString(enc)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(dynType).Elem()
	out.FieldByName("Name").SetString(text)
	return out, nil
}
