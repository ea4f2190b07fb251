package dnsproxy

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-wins/config"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
)

// Params dnsproxy 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 dnsproxy Fx 模块
//
// 提供 pkgif.DNSFallback，仅在配置启用 DNS 回退时装配。
func Module() fx.Option {
	return fx.Module("dnsproxy",
		fx.Provide(ProvideResolver),
	)
}

// ProvideResolver 提供 DNS 回退解析器
func ProvideResolver(p Params) pkgif.DNSFallback {
	cfg := config.DefaultDNSProxyConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.DNSProxy
	}
	logger.Info("DNS 回退已启用", "servers", cfg.Servers, "domain", cfg.Domain)
	return New(cfg)
}
