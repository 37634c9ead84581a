package codec

import (
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/codec-garden-go/pkg/log"
	"github.com/lk2023060901/codec-garden-go/pkg/metrics"
	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
	"github.com/lk2023060901/codec-garden-go/pkg/util/typeutil"
)

// TypeConstructor 负责构造某个类型的可写空白实例，
// 结构化解码在填充字段前通过它拿到实例。
type TypeConstructor func() (reflect.Value, error)

// Core 是绑定在单一载体上的编解码核心。
//
// 它持有按类型名索引的 Codec 注册表，首次遇到某类型时
// 惰性构建其 Codec 并缓存，后续命中缓存无锁返回。
// 所有方法并发安全，一个进程通常按载体各持一个实例。
type Core[E any] struct {
	format Format[E]

	codecs    *typeutil.ConcurrentMap[string, Codec[E]]
	ctors     *typeutil.ConcurrentMap[string, TypeConstructor]
	typeNames *typeutil.ConcurrentMap[string, reflect.Type]
	proxies   *typeutil.ConcurrentMap[string, reflect.Type]

	// buildMu 只保护 getCodec 的查找加占位插入这一小段，
	// codec 的实际构建在锁外进行。
	buildMu sync.Mutex
}

// NewCore 创建绑定到给定载体的编解码核心。
func NewCore[E any](format Format[E]) *Core[E] {
	return &Core[E]{
		format:    format,
		codecs:    typeutil.NewConcurrentMap[string, Codec[E]](),
		ctors:     typeutil.NewConcurrentMap[string, TypeConstructor](),
		typeNames: typeutil.NewConcurrentMap[string, reflect.Type](),
		proxies:   typeutil.NewConcurrentMap[string, reflect.Type](),
	}
}

// Format 返回核心绑定的载体契约。
func (c *Core[E]) Format() Format[E] {
	return c.format
}

// RegisterCodec 按类型注册一个手写 Codec，后写覆盖先写。
// 自动解析只在注册表没有命中时才会发生，
// 因此注册应在首次使用该类型之前完成。
func (c *Core[E]) RegisterCodec(t reflect.Type, cd Codec[E]) {
	name := TypeName(t)
	c.codecs.Insert(name, cd)
	c.typeNames.Insert(name, t)
}

// RegisterTypeConstructor 为指定类型注册实例构造器，
// 替换默认的零值构造。
func (c *Core[E]) RegisterTypeConstructor(t reflect.Type, ctor TypeConstructor) {
	c.ctors.Insert(TypeName(t), ctor)
}

// RegisterTypeProxy 声明 t 在编解码上等同于 proxy，
// 解析 t 时会直接换用 proxy 的 Codec。
func (c *Core[E]) RegisterTypeProxy(t reflect.Type, proxy reflect.Type) {
	c.proxies.Insert(TypeName(t), proxy)
}

// RegisterTypeName 显式登记一个可作为动态类型标签出现的类型。
// 编码侧解析过的类型会自动登记，只有“先解码、且值的运行时
// 类型从未在本进程编码过”的场景需要手工注册。
func (c *Core[E]) RegisterTypeName(t reflect.Type) {
	c.typeNames.Insert(TypeName(t), t)
}

// remapType 应用类型代理映射。
func (c *Core[E]) remapType(t reflect.Type) reflect.Type {
	if proxy, ok := c.proxies.Get(TypeName(t)); ok {
		return proxy
	}
	return t
}

// getCodec 按名称返回缓存的 Codec，未命中时用 build 构建。
//
// 两阶段解析：先在锁内完成查找与转发占位的插入，
// 随后在锁外构建。构建中的递归查找会拿到占位并立即返回，
// 构建成功后占位转发成立；构建失败则撤下占位并对其投毒，
// 这样失败不会留下缓存残骸，后续调用可以重试构建。
func (c *Core[E]) getCodec(name string, build func() (Codec[E], error)) (Codec[E], error) {
	metrics.CodecResolveTotal.WithLabelValues(c.format.Name()).Inc()

	if cd, ok := c.codecs.Get(name); ok {
		return cd, nil
	}

	c.buildMu.Lock()
	if cd, ok := c.codecs.Get(name); ok {
		c.buildMu.Unlock()
		return cd, nil
	}
	ref := newCodecRef[E](name)
	c.codecs.Insert(name, ref)
	c.buildMu.Unlock()

	cd, err := build()
	if err != nil {
		c.buildMu.Lock()
		c.codecs.Remove(name)
		c.buildMu.Unlock()
		ref.fail(err)
		metrics.CodecBuildTotal.WithLabelValues(c.format.Name(), metrics.StatusFail).Inc()
		log.Warn("codec build failed",
			zap.String("carrier", c.format.Name()),
			zap.String("type", name),
			zap.Error(err))
		return nil, merr.WrapErrBuildFailed(name, err)
	}

	ref.set(cd)
	c.codecs.Insert(name, cd)
	metrics.CodecBuildTotal.WithLabelValues(c.format.Name(), metrics.StatusOK).Inc()
	log.Debug("codec built",
		zap.String("carrier", c.format.Name()),
		zap.String("type", name))
	return cd, nil
}

// resolve 返回 t 的空值无关 Codec，必要时惰性构建。
// 成功解析过的类型自动登记到类型名表，供动态标签解码使用。
func (c *Core[E]) resolve(t reflect.Type) (Codec[E], error) {
	t = c.remapType(t)
	name := TypeName(t)
	cd, err := c.getCodec(name, func() (Codec[E], error) {
		return c.buildCodec(t)
	})
	if err != nil {
		return nil, err
	}
	c.typeNames.GetOrInsert(name, t)
	return cd, nil
}

// typeConstructor 返回 t 的实例构造器，未注册时退回零值构造。
func (c *Core[E]) typeConstructor(t reflect.Type) TypeConstructor {
	if ctor, ok := c.ctors.Get(TypeName(t)); ok {
		return ctor
	}
	return func() (reflect.Value, error) {
		return reflect.New(t).Elem(), nil
	}
}

// Encode 将 val 按其运行时类型编码到 enc。
func (c *Core[E]) Encode(val any, enc E) (E, error) {
	if val == nil {
		return c.format.NullCodec().EncodeNull(enc)
	}
	rv := reflect.ValueOf(val)
	return c.EncodeAs(rv.Type(), val, enc)
}

// EncodeAs 以 t 作为声明类型将 val 编码到 enc。
// 运行时类型与 t 不一致时落盘类型标签，解码侧据此还原。
func (c *Core[E]) EncodeAs(t reflect.Type, val any, enc E) (E, error) {
	start := time.Now()
	out, err := c.encodeAs(t, val, enc)
	c.observeOp(metrics.OpEncode, start, err)
	return out, err
}

// topCodec 返回顶层使用的 Codec：
// 动态分发包装外再叠一层空值安全，nil 顶层值因此与
// 可空字段走同一套空值哨兵约定，流式载体保持对称。
func (c *Core[E]) topCodec(t reflect.Type) (Codec[E], error) {
	cd, err := c.dynamicCodec(t)
	if err != nil {
		return nil, err
	}
	return c.makeNullSafe(cd), nil
}

func (c *Core[E]) encodeAs(t reflect.Type, val any, enc E) (E, error) {
	cd, err := c.topCodec(t)
	if err != nil {
		var zero E
		return zero, err
	}
	// reflect.ValueOf 已经拆掉了 any 的外壳；nil 得到无效值，
	// 由空值安全层落哨兵。
	return cd.Encode(reflect.ValueOf(val), enc)
}

// Decode 从 enc 解出一个声明类型为 t 的值。
func (c *Core[E]) Decode(t reflect.Type, enc E) (any, error) {
	start := time.Now()
	v, err := c.decode(t, enc)
	c.observeOp(metrics.OpDecode, start, err)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

func (c *Core[E]) decode(t reflect.Type, enc E) (reflect.Value, error) {
	cd, err := c.topCodec(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return cd.Decode(t, enc)
}

func (c *Core[E]) observeOp(op string, start time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusFail
	}
	metrics.CodecOpTotal.WithLabelValues(c.format.Name(), op, status).Inc()
	metrics.CodecOpDuration.WithLabelValues(c.format.Name(), op).
		Observe(float64(time.Since(start).Microseconds()))
}

// Encode 以 T 作为声明类型编码 val，是 Core.EncodeAs 的泛型入口。
func Encode[T any, E any](c *Core[E], val T, enc E) (E, error) {
	return c.EncodeAs(typeFor[T](), val, enc)
}

// Decode 从 enc 解出一个 T 类型的值，是 Core.Decode 的泛型入口。
func Decode[T any, E any](c *Core[E], enc E) (T, error) {
	var zero T
	v, err := c.Decode(typeFor[T](), enc)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, merr.WrapErrStructureMismatch(
			TypeName(typeFor[T]()), TypeName(reflect.TypeOf(v)))
	}
	return out, nil
}

// RegisterCodecFor 按类型参数注册手写 Codec。
func RegisterCodecFor[T any, E any](c *Core[E], cd Codec[E]) {
	c.RegisterCodec(typeFor[T](), cd)
}

// RegisterTypeNameFor 按类型参数登记动态标签类型。
func RegisterTypeNameFor[T any, E any](c *Core[E]) {
	c.RegisterTypeName(typeFor[T]())
}

// RegisterTypeProxyFor 按类型参数声明代理映射。
func RegisterTypeProxyFor[T any, P any, E any](c *Core[E]) {
	c.RegisterTypeProxy(typeFor[T](), typeFor[P]())
}
