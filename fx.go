package wins

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-wins/internal/core/eventbus"
	"github.com/dep2p/go-wins/internal/core/metrics"
	"github.com/dep2p/go-wins/internal/core/storage"
	"github.com/dep2p/go-wins/internal/wins/dnsproxy"
	"github.com/dep2p/go-wins/internal/wins/namedb"
	"github.com/dep2p/go-wins/internal/wins/nameserver"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
	"github.com/dep2p/go-wins/pkg/lib/log"
)

var fxLogger = log.Logger("wins/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Storage → EventBus → Metrics
//  2. NameDB（依赖 Storage）
//  3. DNSProxy（条件加载）
//  4. NameServer（依赖以上全部）
func buildFxApp(cfg *serverConfig, srv *Server) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 基础组件（必须加载）
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg.config),

		storage.Module(),  // BadgerDB 存储引擎
		eventbus.Module(), // 名称变更事件
		metrics.Module(),  // Prometheus 指标
		namedb.Module(),   // 名称记录存储（依赖 storage）
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 外部协作者（可选注入）
	// ════════════════════════════════════════════════════════════════════════
	if cfg.clock != nil {
		clk := cfg.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if cfg.prober != nil {
		prober := cfg.prober
		modules = append(modules, fx.Provide(func() pkgif.OwnerProber { return prober }))
	}
	if cfg.closeness != nil {
		closeness := cfg.closeness
		modules = append(modules, fx.Provide(func() pkgif.Closeness { return closeness }))
	}
	if cfg.notifier != nil {
		notifier := cfg.notifier
		modules = append(modules, fx.Provide(
			fx.Annotate(
				func() pkgif.Notifier { return notifier },
				fx.ResultTags(`name:"external_notifier"`),
			),
		))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. DNS 回退（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	switch {
	case cfg.dns != nil:
		dns := cfg.dns
		modules = append(modules, fx.Provide(func() pkgif.DNSFallback { return dns }))
	case cfg.config.DNSProxy.Enabled:
		modules = append(modules, dnsproxy.Module())
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. 名称服务
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, nameserver.Module())

	// ════════════════════════════════════════════════════════════════════════
	// 6. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 7. Server 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Populate(&srv.svc, &srv.gatherer, &srv.bus))

	// ════════════════════════════════════════════════════════════════════════
	// 8. Fx 日志
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.WithLogger(newFxEventLogger(cfg.fxLogging)))

	fxLogger.Debug("Fx 模块已组装", "modules", len(modules), "dnsProxy", cfg.config.DNSProxy.Enabled)
	return fx.New(modules...), nil
}

// newFxEventLogger 返回 Fx 事件日志构造函数
//
// 默认丢弃 Fx 日志，避免干扰服务日志。
func newFxEventLogger(verbose bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if !verbose {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		zl, err := zap.NewDevelopment()
		if err != nil {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		return &fxevent.ZapLogger{Logger: zl}
	}
}
