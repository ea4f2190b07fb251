package config

import (
	"fmt"
	"net"
	"time"
)

// DNSProxyConfig DNS 回退配置
//
// 启用后，<00> 和 <20> 名称查询未命中时转为 DNS A 记录查询，
// 结果以 Dns/DnsFail 记录缓存在名称数据库中。
type DNSProxyConfig struct {
	// Enabled 是否启用 DNS 回退
	Enabled bool `json:"enabled"`

	// Servers DNS 服务器（host:port）
	Servers []string `json:"servers"`

	// Domain 追加到名称后的搜索域，可为空
	Domain string `json:"domain"`

	// Timeout 单次查询超时
	Timeout Duration `json:"timeout"`
}

// DefaultDNSProxyConfig 返回默认 DNS 回退配置（关闭）
func DefaultDNSProxyConfig() DNSProxyConfig {
	return DNSProxyConfig{
		Servers: []string{"127.0.0.1:53"},
		Timeout: Duration(3 * time.Second),
	}
}

// Validate 验证 DNS 回退配置
func (c *DNSProxyConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Servers) == 0 {
		return fmt.Errorf("dns_proxy: at least one server is required")
	}
	for _, s := range c.Servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			return fmt.Errorf("dns_proxy: invalid server %q: %w", s, err)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("dns_proxy: timeout must be positive")
	}
	return nil
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否暴露 /metrics
	Enabled bool `json:"enabled"`

	// Addr HTTP 监听地址
	Addr string `json:"addr"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Addr: "127.0.0.1:9142",
	}
}

// Validate 验证指标配置
func (c *MetricsConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("metrics: addr cannot be empty when enabled")
	}
	return nil
}
