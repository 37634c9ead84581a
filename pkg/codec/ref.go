package codec

import (
	"reflect"

	"go.uber.org/atomic"

	"github.com/lk2023060901/codec-garden-go/pkg/util/merr"
)

// codecRef 是注册表在构建期间先行插入的转发占位。
//
// 递归类型在构建自身时会再次按同名查找，拿到的就是这个占位；
// 构建完成后占位开始向真正的 Codec 转发，递归环由此打破，
// 每条递归边只残留一次指针间接。
type codecRef[E any] struct {
	name string

	resolved atomic.Pointer[Codec[E]]
	failure  atomic.Error
	done     chan struct{}
}

func newCodecRef[E any](name string) *codecRef[E] {
	return &codecRef[E]{
		name: name,
		done: make(chan struct{}),
	}
}

// set 填入构建完成的 Codec，唤醒所有等待方。
func (r *codecRef[E]) set(c Codec[E]) {
	r.resolved.Store(&c)
	close(r.done)
}

// fail 宣告构建失败，占位被投毒，
// 所有持有者后续使用都会得到构建失败错误。
func (r *codecRef[E]) fail(err error) {
	r.failure.Store(err)
	close(r.done)
}

func (r *codecRef[E]) get() (Codec[E], error) {
	// 解析完成后走无锁快路径。
	if p := r.resolved.Load(); p != nil {
		return *p, nil
	}
	<-r.done
	if p := r.resolved.Load(); p != nil {
		return *p, nil
	}
	return nil, merr.WrapErrBuildFailed(r.name, r.failure.Load())
}

func (r *codecRef[E]) Encode(val reflect.Value, enc E) (E, error) {
	c, err := r.get()
	if err != nil {
		var zero E
		return zero, err
	}
	return c.Encode(val, enc)
}

func (r *codecRef[E]) Decode(dynType reflect.Type, enc E) (reflect.Value, error) {
	c, err := r.get()
	if err != nil {
		return reflect.Value{}, err
	}
	return c.Decode(dynType, enc)
}
