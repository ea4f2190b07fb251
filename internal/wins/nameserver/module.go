package nameserver

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-wins/config"
	"github.com/dep2p/go-wins/internal/core/metrics"
	"github.com/dep2p/go-wins/internal/wins/namedb"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
	"github.com/dep2p/go-wins/pkg/types"
)

// Params nameserver 模块依赖参数
//
// 协作者都是可选的：缺省时质询只能以超时结束，地址按前缀排序，不做 DNS 回退。
type Params struct {
	fx.In

	Store      *namedb.Store
	Bus        pkgif.EventBus
	UnifiedCfg *config.Config    `optional:"true"`
	Metrics    *metrics.Metrics  `optional:"true"`
	Clock      clock.Clock       `optional:"true"`
	Notifier   pkgif.Notifier    `name:"external_notifier" optional:"true"`
	Prober     pkgif.OwnerProber `optional:"true"`
	Closeness  pkgif.Closeness   `optional:"true"`
	DNS        pkgif.DNSFallback `optional:"true"`
}

// Result nameserver 模块导出结果
type Result struct {
	fx.Out

	Service  *Service
	Notifier *EventNotifier
}

// Module 返回 nameserver Fx 模块
func Module() fx.Option {
	return fx.Module("nameserver",
		fx.Provide(ProvideService),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideService 组装名称服务
func ProvideService(p Params) (Result, error) {
	unified := p.UnifiedCfg
	if unified == nil {
		unified = config.NewConfig()
	}
	cfg, err := ConfigFromUnified(unified)
	if err != nil {
		return Result{}, err
	}

	events, err := NewEventNotifier(p.Bus)
	if err != nil {
		return Result{}, err
	}

	opts := []Option{WithNotifier(fanout{events, p.Notifier})}
	if p.Metrics != nil {
		opts = append(opts, WithMetrics(p.Metrics))
	}
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	if p.Prober != nil {
		opts = append(opts, WithProber(p.Prober))
	}
	if p.Closeness != nil {
		opts = append(opts, WithCloseness(p.Closeness))
	}
	if p.DNS != nil {
		opts = append(opts, WithDNSFallback(p.DNS))
	}

	return Result{
		Service:  New(cfg, p.Store, opts...),
		Notifier: events,
	}, nil
}

func registerLifecycle(lc fx.Lifecycle, svc *Service, events *EventNotifier, bus pkgif.EventBus) error {
	sub, err := bus.Subscribe(new(types.EvtNameChanged), pkgif.BufSize(256))
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go logChanges(sub)
			return svc.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return multierr.Combine(
				svc.Stop(),
				events.Close(),
				sub.Close(),
			)
		},
	})
	return nil
}

// fanout 依次通知多个 Notifier，跳过 nil
type fanout []pkgif.Notifier

// Notify 实现 Notifier
func (f fanout) Notify(ctx context.Context, evt types.EvtNameChanged) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, evt)
		}
	}
}
