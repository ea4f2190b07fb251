package config

import (
	"fmt"
	"time"
)

// WINSConfig 名称注册策略配置
type WINSConfig struct {
	// Enabled 是否作为 WINS 服务器应答请求
	// 关闭时所有请求被静默丢弃
	Enabled bool `json:"enabled"`

	// MinTTL 注册 TTL 下限
	MinTTL Duration `json:"min_ttl"`

	// MaxTTL 注册 TTL 上限，也是永久记录查询时返回的 TTL
	MaxTTL Duration `json:"max_ttl"`

	// ExtinctionInterval 释放后的保留时长（Released 阶段）
	ExtinctionInterval Duration `json:"extinction_interval"`

	// ExtinctionTimeout 墓碑保留时长（Tombstoned 阶段）
	ExtinctionTimeout Duration `json:"extinction_timeout"`
}

// DefaultWINSConfig 返回默认注册策略
func DefaultWINSConfig() WINSConfig {
	return WINSConfig{
		Enabled:            true,
		MinTTL:             Duration(6 * time.Hour),
		MaxTTL:             Duration(6 * 24 * time.Hour),
		ExtinctionInterval: Duration(4 * 24 * time.Hour),
		ExtinctionTimeout:  Duration(24 * time.Hour),
	}
}

// Validate 验证注册策略
func (c *WINSConfig) Validate() error {
	if c.MinTTL <= 0 {
		return fmt.Errorf("wins: min_ttl must be positive")
	}
	if c.MaxTTL < c.MinTTL {
		return fmt.Errorf("wins: max_ttl %s is below min_ttl %s", c.MaxTTL, c.MinTTL)
	}
	if c.ExtinctionInterval <= 0 || c.ExtinctionTimeout <= 0 {
		return fmt.Errorf("wins: extinction interval and timeout must be positive")
	}
	return nil
}

// ArbiterConfig 所有权质询配置
type ArbiterConfig struct {
	// WACKTTL 等待应答的 TTL，同时是质询超时
	WACKTTL Duration `json:"wack_ttl"`

	// MaxPending 同时挂起的质询上限
	MaxPending int `json:"max_pending"`

	// QueryRate 定向查询的每秒速率
	QueryRate float64 `json:"query_rate"`

	// QueryBurst 定向查询的突发量
	QueryBurst int `json:"query_burst"`
}

// DefaultArbiterConfig 返回默认质询配置
func DefaultArbiterConfig() ArbiterConfig {
	return ArbiterConfig{
		WACKTTL:    Duration(60 * time.Second),
		MaxPending: 1024,
		QueryRate:  50,
		QueryBurst: 100,
	}
}

// Validate 验证质询配置
func (c *ArbiterConfig) Validate() error {
	if c.WACKTTL <= 0 {
		return fmt.Errorf("arbiter: wack_ttl must be positive")
	}
	if c.MaxPending <= 0 {
		return fmt.Errorf("arbiter: max_pending must be positive")
	}
	if c.QueryRate <= 0 || c.QueryBurst <= 0 {
		return fmt.Errorf("arbiter: query_rate and query_burst must be positive")
	}
	return nil
}

// SweeperConfig 生命周期清扫配置
type SweeperConfig struct {
	// Interval 清扫周期
	Interval Duration `json:"interval"`

	// SelfExtend 本机名称到期时向后推迟的时长
	SelfExtend Duration `json:"self_extend"`
}

// DefaultSweeperConfig 返回默认清扫配置
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:   Duration(20 * time.Second),
		SelfExtend: Duration(300 * time.Second),
	}
}

// Validate 验证清扫配置
func (c *SweeperConfig) Validate() error {
	if c.Interval < Duration(time.Second) {
		return fmt.Errorf("sweeper: interval must be at least 1s")
	}
	if c.SelfExtend <= 0 {
		return fmt.Errorf("sweeper: self_extend must be positive")
	}
	return nil
}
