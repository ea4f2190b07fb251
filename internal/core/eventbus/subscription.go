package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan interface{}
	closeOnce sync.Once
}

// Out 返回事件通道
func (s *Subscription) Out() <-chan interface{} {
	return s.out
}

// Close 取消订阅
//
// 并发安全，可以多次调用。先从总线移除再关闭通道，
// 移除时持有节点锁，因此关闭后不会再有发送。
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.removeSub(s)
		close(s.out)
	})
	return nil
}

// Emitter 事件发射器
type Emitter struct {
	node   *node
	typ    reflect.Type
	closed atomic.Bool
}

// Emit 发射事件，事件的类型必须与获取发射器时一致
func (e *Emitter) Emit(event interface{}) error {
	if e.closed.Load() {
		return errors.New("eventbus: emitter is closed")
	}
	if t := reflect.TypeOf(event); t != e.typ {
		return fmt.Errorf("%w: emitter for %v got %v", ErrInvalidEventType, e.typ, t)
	}
	e.node.emit(event)
	return nil
}

// Close 关闭发射器
func (e *Emitter) Close() error {
	e.closed.Store(true)
	return nil
}
