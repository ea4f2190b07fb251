package nameserver

import (
	"context"

	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
	"github.com/dep2p/go-wins/pkg/types"
)

// EventNotifier 把名称变更发布到事件总线
//
// 订阅 *types.EvtNameChanged 即可收到事件（钩子脚本、导出器等）。
// 总线对慢消费者丢弃事件，Notify 不会阻塞请求处理。
type EventNotifier struct {
	emitter pkgif.Emitter
}

// NewEventNotifier 在总线上创建变更事件发射器
func NewEventNotifier(bus pkgif.EventBus) (*EventNotifier, error) {
	em, err := bus.Emitter(new(types.EvtNameChanged))
	if err != nil {
		return nil, err
	}
	return &EventNotifier{emitter: em}, nil
}

// Notify 实现 Notifier
func (n *EventNotifier) Notify(_ context.Context, evt types.EvtNameChanged) {
	if err := n.emitter.Emit(evt); err != nil {
		logger.Debug("发布名称变更失败", "name", evt.Record.Key, "error", err)
	}
}

// Close 关闭发射器
func (n *EventNotifier) Close() error {
	return n.emitter.Close()
}

// logChanges 以日志记录名称变更，直到订阅关闭
func logChanges(sub pkgif.Subscription) {
	for e := range sub.Out() {
		evt, ok := e.(types.EvtNameChanged)
		if !ok {
			continue
		}
		logger.Info("名称变更",
			"op", evt.Op,
			"name", evt.Record.Key,
			"ips", evt.Record.IPs,
			"ttl", evt.TTL,
			"version", evt.Record.Version)
	}
}

var _ pkgif.Notifier = (*EventNotifier)(nil)
