// Package config 提供 go-wins 的统一配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载：
//
//	cfg := config.NewConfig()
//	cfg.WINS.MaxTTL = config.Duration(72 * time.Hour)
//
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Config 是 go-wins 的完整配置结构
//
// 配置按照功能模块组织：
//   - WINS: 名称注册策略（TTL 区间、灭绝间隔）
//   - Arbiter: 所有权质询（WACK TTL、并发与速率限制）
//   - Sweeper: 生命周期清扫
//   - Identity: 本机 NetBIOS 名称和地址
//   - Storage: 数据目录
//   - DNSProxy: DNS 回退解析
//   - Metrics: Prometheus 指标
type Config struct {
	// WINS 名称注册配置
	WINS WINSConfig `json:"wins"`

	// Arbiter 所有权质询配置
	Arbiter ArbiterConfig `json:"arbiter"`

	// Sweeper 生命周期清扫配置
	Sweeper SweeperConfig `json:"sweeper"`

	// Identity 本机身份配置
	Identity IdentityConfig `json:"identity"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// DNSProxy DNS 回退配置
	DNSProxy DNSProxyConfig `json:"dns_proxy"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		WINS:     DefaultWINSConfig(),
		Arbiter:  DefaultArbiterConfig(),
		Sweeper:  DefaultSweeperConfig(),
		Identity: DefaultIdentityConfig(),
		Storage:  DefaultStorageConfig(),
		DNSProxy: DefaultDNSProxyConfig(),
		Metrics:  DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	validators := []interface{ Validate() error }{
		&c.WINS,
		&c.Arbiter,
		&c.Sweeper,
		&c.Identity,
		&c.Storage,
		&c.DNSProxy,
		&c.Metrics,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FromJSON 从 JSON 解析配置
//
// JSON 中缺省的字段保留默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse json: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
