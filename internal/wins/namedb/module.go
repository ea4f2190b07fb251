package namedb

import (
	"context"

	"github.com/dep2p/go-wins/config"
	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"go.uber.org/fx"
)

// Params namedb 模块依赖参数
type Params struct {
	fx.In

	Engine     engine.Engine
	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 namedb Fx 模块
//
// 提供 *Store；配置了 ClearOnStart 时在启动阶段清空记录。
func Module() fx.Option {
	return fx.Module("namedb",
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore 提供名称记录存储
func ProvideStore(p Params) (*Store, error) {
	storageCfg := config.DefaultStorageConfig()
	if p.UnifiedCfg != nil {
		storageCfg = p.UnifiedCfg.Storage
	}
	return NewStore(p.Engine, storageCfg.CacheSize)
}

func registerLifecycle(lc fx.Lifecycle, s *Store, p Params) {
	wipe := p.UnifiedCfg != nil && p.UnifiedCfg.Storage.ClearOnStart
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if !wipe {
				return nil
			}
			n, err := s.Clear()
			if err != nil {
				return err
			}
			logger.Info("启动时已清空名称记录", "count", n)
			return nil
		},
	})
}
