package nameserver

import (
	"net/netip"
	"time"

	"github.com/dep2p/go-wins/config"
)

// Config 名称服务运行参数
type Config struct {
	// Enabled 关闭时所有请求被丢弃，清扫暂停
	Enabled bool

	MinTTL time.Duration
	MaxTTL time.Duration

	// ExtinctionInterval Released 阶段时长
	ExtinctionInterval time.Duration
	// ExtinctionTimeout Tombstoned 阶段时长
	ExtinctionTimeout time.Duration

	WACKTTL    time.Duration
	MaxPending int
	QueryRate  float64
	QueryBurst int

	SweepInterval time.Duration
	SelfExtend    time.Duration

	// DNSProxy 查询未命中时是否走 DNS 回退
	DNSProxy bool

	// Names 本机 NetBIOS 名称（已大写）
	Names []string
	// Addrs 本机地址
	Addrs []netip.Addr
}

// DefaultConfig 返回默认参数
func DefaultConfig() Config {
	cfg, _ := ConfigFromUnified(config.NewConfig())
	return cfg
}

// ConfigFromUnified 从统一配置转换
func ConfigFromUnified(cfg *config.Config) (Config, error) {
	addrs, err := cfg.Identity.ParsedAddrs()
	if err != nil {
		return Config{}, err
	}
	names := make([]string, 0, len(cfg.Identity.Names))
	for _, name := range cfg.Identity.Names {
		names = append(names, normalizeName(name))
	}

	return Config{
		Enabled:            cfg.WINS.Enabled,
		MinTTL:             cfg.WINS.MinTTL.Duration(),
		MaxTTL:             cfg.WINS.MaxTTL.Duration(),
		ExtinctionInterval: cfg.WINS.ExtinctionInterval.Duration(),
		ExtinctionTimeout:  cfg.WINS.ExtinctionTimeout.Duration(),
		WACKTTL:            cfg.Arbiter.WACKTTL.Duration(),
		MaxPending:         cfg.Arbiter.MaxPending,
		QueryRate:          cfg.Arbiter.QueryRate,
		QueryBurst:         cfg.Arbiter.QueryBurst,
		SweepInterval:      cfg.Sweeper.Interval.Duration(),
		SelfExtend:         cfg.Sweeper.SelfExtend.Duration(),
		DNSProxy:           cfg.DNSProxy.Enabled,
		Names:              names,
		Addrs:              addrs,
	}, nil
}

// clampTTL 把客户端请求的 TTL 限制在 [MinTTL, MaxTTL]
func (c *Config) clampTTL(seconds uint32) time.Duration {
	ttl := time.Duration(seconds) * time.Second
	if ttl < c.MinTTL {
		return c.MinTTL
	}
	if ttl > c.MaxTTL {
		return c.MaxTTL
	}
	return ttl
}
