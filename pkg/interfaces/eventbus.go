package interfaces

// EventBus 名称变更通知使用的事件总线
//
// 发射端由名称服务持有，订阅端由复制通知与外部观察者持有。
type EventBus interface {
	// Subscribe 订阅指定类型（以指针传入）的事件
	Subscribe(eventType interface{}, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取指定类型的发射器
	Emitter(eventType interface{}) (Emitter, error)
}

// Subscription 事件订阅
type Subscription interface {
	// Out 返回接收事件的通道，取消订阅或总线关闭后通道关闭
	Out() <-chan interface{}

	// Close 取消订阅
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	// Emit 非阻塞地投递事件，缓冲区满的订阅者丢弃该事件
	Emit(event interface{}) error

	Close() error
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*SubscriptionSettings)

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}
