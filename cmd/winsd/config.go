package main

import (
	"os"
	"strings"

	"github.com/dep2p/go-wins/config"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量名（均使用 WINS_ 前缀）
const (
	EnvPrefix      = "WINS_"
	EnvDataDir     = "DATA_DIR"
	EnvNames       = "NAMES"
	EnvAddrs       = "ADDRS"
	EnvDNSServers  = "DNS_SERVERS"
	EnvDNSDomain   = "DNS_DOMAIN"
	EnvMetricsAddr = "METRICS_ADDR"
	EnvLogFile     = "LOG_FILE"
)

// loadConfigFile 从 JSON 文件加载配置
func loadConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return config.FromJSON(data)
}

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 支持的环境变量：
//   - WINS_DATA_DIR: 数据目录
//   - WINS_NAMES: 本机 NetBIOS 名称（逗号分隔）
//   - WINS_ADDRS: 本机 IPv4 地址（逗号分隔）
//   - WINS_DNS_SERVERS: DNS 回退服务器（逗号分隔，设置即启用回退）
//   - WINS_DNS_DOMAIN: DNS 回退搜索域
//   - WINS_METRICS_ADDR: 指标监听地址（设置即启用，off 关闭）
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(EnvPrefix + EnvDataDir); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv(EnvPrefix + EnvNames); v != "" {
		cfg.Identity.Names = splitAndTrim(v, ",")
	}

	if v := os.Getenv(EnvPrefix + EnvAddrs); v != "" {
		cfg.Identity.Addrs = splitAndTrim(v, ",")
	}

	if v := os.Getenv(EnvPrefix + EnvDNSServers); v != "" {
		cfg.DNSProxy.Servers = splitAndTrim(v, ",")
		cfg.DNSProxy.Enabled = len(cfg.DNSProxy.Servers) > 0
	}

	if v := os.Getenv(EnvPrefix + EnvDNSDomain); v != "" {
		cfg.DNSProxy.Domain = v
	}

	if v := os.Getenv(EnvPrefix + EnvMetricsAddr); v != "" {
		if isOff(v) {
			cfg.Metrics.Enabled = false
		} else {
			cfg.Metrics.Addr = v
			cfg.Metrics.Enabled = true
		}
	}
}

// getLogFileFromEnv 从环境变量获取日志文件路径
func getLogFileFromEnv() string {
	return os.Getenv(EnvPrefix + EnvLogFile)
}

// ============================================================================
//                              辅助函数
// ============================================================================

// isOff 判断取值是否表示关闭
func isOff(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "false" || s == "0" || s == "no" || s == "off"
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
