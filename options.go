package wins

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-wins/config"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
)

// Option 服务器配置选项函数
type Option func(*serverConfig) error

// serverConfig 内部选项结构
type serverConfig struct {
	// config 统一配置
	config *config.Config

	// 外部协作者，nil 表示使用默认实现
	clock     clock.Clock
	prober    pkgif.OwnerProber
	notifier  pkgif.Notifier
	closeness pkgif.Closeness
	dns       pkgif.DNSFallback

	// fxLogging 输出 Fx 装配日志
	fxLogging bool

	// userFxOptions 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newServerConfig 创建默认选项
func newServerConfig() *serverConfig {
	return &serverConfig{
		config: config.NewConfig(),
	}
}

// WithConfig 使用完整配置替换默认配置
//
// 应放在其他选项之前，之后的选项在此基础上覆盖。
func WithConfig(cfg *config.Config) Option {
	return func(c *serverConfig) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		c.config = cfg
		return nil
	}
}

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(c *serverConfig) error {
		if dir == "" {
			return errors.New("empty data dir")
		}
		c.config.Storage.DataDir = dir
		return nil
	}
}

// WithIdentity 设置本机 NetBIOS 名称和地址
//
// 示例：
//
//	wins.WithIdentity([]string{"WINSSRV"}, "10.0.0.250", "10.0.1.250")
func WithIdentity(names []string, addrs ...string) Option {
	return func(c *serverConfig) error {
		if len(names) > 0 && len(addrs) == 0 {
			return fmt.Errorf("identity %v has no addrs", names)
		}
		c.config.Identity.Names = append([]string(nil), names...)
		c.config.Identity.Addrs = append([]string(nil), addrs...)
		return nil
	}
}

// WithClock 注入时钟，测试中使用 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(c *serverConfig) error {
		c.clock = clk
		return nil
	}
}

// WithProber 注入定向查询发送方
//
// 缺省时质询只能以超时结束。
func WithProber(p pkgif.OwnerProber) Option {
	return func(c *serverConfig) error {
		c.prober = p
		return nil
	}
}

// WithNotifier 注入额外的名称变更通知方（例如复制伙伴推送）
func WithNotifier(n pkgif.Notifier) Option {
	return func(c *serverConfig) error {
		c.notifier = n
		return nil
	}
}

// WithCloseness 注入地址远近排序
func WithCloseness(cl pkgif.Closeness) Option {
	return func(c *serverConfig) error {
		c.closeness = cl
		return nil
	}
}

// WithDNSFallback 注入 DNS 回退解析并启用回退
//
// 不调用此选项而在配置中启用 dns_proxy 时，使用内置的 DNS 解析器。
func WithDNSFallback(d pkgif.DNSFallback) Option {
	return func(c *serverConfig) error {
		c.dns = d
		c.config.DNSProxy.Enabled = d != nil
		return nil
	}
}

// WithFxLogging 输出 Fx 依赖装配日志，用于排查启动问题
func WithFxLogging(enable bool) Option {
	return func(c *serverConfig) error {
		c.fxLogging = enable
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *serverConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
