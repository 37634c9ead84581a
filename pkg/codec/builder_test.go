package codec_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/codec-garden-go/pkg/codec"
	"github.com/lk2023060901/codec-garden-go/pkg/codec/jsontree"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

type colour int

const (
	red colour = iota
	green
	blue
)

var colourNames = map[colour]string{red: "red", green: "green", blue: "blue"}

func (c colour) text() (string, error) {
	if name, ok := colourNames[c]; ok {
		return name, nil
	}
	return "", merr.WrapErrParameterInvalid("known colour", int(c))
}

func parseColour(s string) (colour, error) {
	for c, name := range colourNames {
		if name == s {
			return c, nil
		}
	}
	return 0, merr.WrapErrParameterInvalid("known colour", s)
}

type profile struct {
	Colour *colour
	Date   *time.Time
	Flag   bool
	Name   *string
	Age    float64
}

type credentials struct {
	User  string
	Token string
}

type BuilderSuite struct {
	suite.Suite

	core *codec.Core[*jsontree.Value]
}

func (s *BuilderSuite) SetupTest() {
	s.core = jsontree.NewCore()
	codec.RegisterStringProxy(s.core,
		func(c colour) (string, error) { return c.text() },
		parseColour)
}

func (s *BuilderSuite) buildProfileCodec() {
	b := codec.NewStructBuilder[profile](s.core)
	b1 := codec.NullField(b, "colour", func(p profile) *colour { return p.Colour })
	b2 := codec.NullField2(b1, "date", func(p profile) *time.Time { return p.Date })
	b3 := codec.Field3(b2, "flag", func(p profile) bool { return p.Flag })
	b4 := codec.NullField4(b3, "name", func(p profile) *string { return p.Name })
	bn := b4.FieldN("age", reflect.TypeOf(float64(0)), func(p profile) any { return p.Age })
	_, err := bn.MapN(func(args []any) (profile, error) {
		p := profile{}
		p.Colour, _ = args[0].(*colour)
		p.Date, _ = args[1].(*time.Time)
		p.Flag, _ = args[2].(bool)
		p.Name, _ = args[3].(*string)
		p.Age, _ = args[4].(float64)
		return p, nil
	})
	s.Require().NoError(err)
}

func (s *BuilderSuite) roundTrip(in profile) profile {
	root := jsontree.New()
	_, err := codec.Encode(s.core, in, root)
	s.Require().NoError(err)

	out, err := codec.Decode[profile](s.core, root)
	s.Require().NoError(err)
	return out
}

func (s *BuilderSuite) TestProfileAllFields() {
	s.buildProfileCodec()

	c := green
	date := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	name := "gopher"
	in := profile{Colour: &c, Date: &date, Flag: true, Name: &name, Age: 33.5}

	out := s.roundTrip(in)
	s.Require().NotNil(out.Colour)
	s.Equal(green, *out.Colour)
	s.Require().NotNil(out.Date)
	s.True(date.Equal(*out.Date))
	s.True(out.Flag)
	s.Require().NotNil(out.Name)
	s.Equal("gopher", *out.Name)
	s.InDelta(33.5, out.Age, 1e-9)
}

func (s *BuilderSuite) TestProfileNilFields() {
	s.buildProfileCodec()

	out := s.roundTrip(profile{Age: 1})
	s.Nil(out.Colour)
	s.Nil(out.Date)
	s.False(out.Flag)
	s.Nil(out.Name)
	s.InDelta(1, out.Age, 1e-9)
}

func (s *BuilderSuite) TestBuilderFieldNamesOnCarrier() {
	s.buildProfileCodec()

	c := red
	root := jsontree.New()
	_, err := codec.Encode(s.core, profile{Colour: &c, Age: 2}, root)
	s.Require().NoError(err)

	members := root.Members()
	s.Require().Len(members, 5)
	// 成员顺序与字段声明顺序一致。
	for i, want := range []string{"colour", "date", "flag", "name", "age"} {
		s.Equal(want, members[i].Name)
	}

	// 枚举样类型经字符串代理落为字符串节点。
	node, ok := root.Field("colour")
	s.Require().True(ok)
	s.Equal(jsontree.KindString, node.Kind())
	s.Equal("red", node.Text())
}

func (s *BuilderSuite) TestTypedArity() {
	b := codec.NewStructBuilder[credentials](s.core)
	b1 := codec.Field(b, "user", func(c credentials) string { return c.User })
	b2 := codec.Field2(b1, "token", func(c credentials) string { return c.Token })
	_, err := b2.Map(func(user, token string) credentials {
		return credentials{User: user, Token: token}
	})
	s.Require().NoError(err)

	in := credentials{User: "u", Token: "t"}
	root := jsontree.New()
	_, err = codec.Encode(s.core, in, root)
	s.Require().NoError(err)

	out, err := codec.Decode[credentials](s.core, root)
	s.Require().NoError(err)
	s.Equal(in, out)
}

func (s *BuilderSuite) TestDuplicateFieldName() {
	b := codec.NewStructBuilder[credentials](s.core)
	b1 := codec.Field(b, "user", func(c credentials) string { return c.User })
	b2 := codec.Field2(b1, "user", func(c credentials) string { return c.Token })
	_, err := b2.Map(func(user, token string) credentials {
		return credentials{User: user, Token: token}
	})
	s.ErrorIs(err, merr.ErrFieldDuplicate)
}

func (s *BuilderSuite) TestBuilderInterchangeableWithReflection() {
	// builder 沿用反射路径的字段名时，两条路径的输出可以互换解码。
	reflective := jsontree.NewCore()
	built := jsontree.NewCore()

	b := codec.NewStructBuilder[credentials](built)
	b1 := codec.Field(b, "User", func(c credentials) string { return c.User })
	b2 := codec.Field2(b1, "Token", func(c credentials) string { return c.Token })
	_, err := b2.Map(func(user, token string) credentials {
		return credentials{User: user, Token: token}
	})
	s.Require().NoError(err)

	in := credentials{User: "u", Token: "t"}

	fromReflective := jsontree.New()
	_, err = codec.Encode(reflective, in, fromReflective)
	s.Require().NoError(err)
	fromBuilder := jsontree.New()
	_, err = codec.Encode(built, in, fromBuilder)
	s.Require().NoError(err)

	s.Equal(memberNames(fromReflective), memberNames(fromBuilder))

	out, err := codec.Decode[credentials](built, fromReflective)
	s.Require().NoError(err)
	s.Equal(in, out)

	out, err = codec.Decode[credentials](reflective, fromBuilder)
	s.Require().NoError(err)
	s.Equal(in, out)
}

func memberNames(v *jsontree.Value) []string {
	names := make([]string, 0, len(v.Members()))
	for _, m := range v.Members() {
		names = append(names, m.Name)
	}
	return names
}

func (s *BuilderSuite) TestBuilderOverridesReflection() {
	// 先让反射路径解析一次，builder 注册后以 builder 为准。
	in := credentials{User: "a", Token: "b"}
	root := jsontree.New()
	_, err := codec.Encode(s.core, in, root)
	s.Require().NoError(err)
	_, ok := root.Field("User")
	s.Require().True(ok)

	b := codec.NewStructBuilder[credentials](s.core)
	b1 := codec.Field(b, "user", func(c credentials) string { return c.User })
	b2 := codec.Field2(b1, "token", func(c credentials) string { return c.Token })
	_, err = b2.Map(func(user, token string) credentials {
		return credentials{User: user, Token: token}
	})
	s.Require().NoError(err)

	root = jsontree.New()
	_, err = codec.Encode(s.core, in, root)
	s.Require().NoError(err)
	_, ok = root.Field("user")
	s.True(ok, "builder codec should take over: %s", fmt.Sprint(root))
}

func TestBuilder(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}
