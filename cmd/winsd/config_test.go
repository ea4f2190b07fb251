package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wins/config"
)

// TestLoadConfigFile 测试从 JSON 加载配置并保留默认值
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wins.json")
	data := `{
  "storage": {"data_dir": "/var/lib/wins"},
  "identity": {"names": ["WINSSRV"], "addrs": ["10.0.0.250"]}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/wins", cfg.Storage.DataDir)
	assert.Equal(t, []string{"WINSSRV"}, cfg.Identity.Names)
	assert.Equal(t, 4096, cfg.Storage.CacheSize)
}

// TestLoadConfigFile_Invalid 测试非法配置文件
func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wins.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"identity": {"names": ["WINSSRV"]}}`), 0600))

	_, err := loadConfigFile(path)
	assert.Error(t, err)

	_, err = loadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// TestApplyEnvOverrides 测试环境变量覆盖
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("WINS_DATA_DIR", "/tmp/wins")
	t.Setenv("WINS_NAMES", "WINSSRV, BACKUP")
	t.Setenv("WINS_ADDRS", "10.0.0.250,10.0.1.250")
	t.Setenv("WINS_DNS_SERVERS", "10.0.0.53:53")
	t.Setenv("WINS_DNS_DOMAIN", "corp.example")
	t.Setenv("WINS_METRICS_ADDR", "0.0.0.0:9142")

	cfg := config.NewConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "/tmp/wins", cfg.Storage.DataDir)
	assert.Equal(t, []string{"WINSSRV", "BACKUP"}, cfg.Identity.Names)
	assert.Equal(t, []string{"10.0.0.250", "10.0.1.250"}, cfg.Identity.Addrs)
	assert.True(t, cfg.DNSProxy.Enabled)
	assert.Equal(t, []string{"10.0.0.53:53"}, cfg.DNSProxy.Servers)
	assert.Equal(t, "corp.example", cfg.DNSProxy.Domain)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:9142", cfg.Metrics.Addr)
	assert.NoError(t, cfg.Validate())

	t.Setenv("WINS_METRICS_ADDR", "off")
	applyEnvOverrides(cfg)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:9142", cfg.Metrics.Addr)
}

// TestSplitAndTrim 测试逗号分隔解析
func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b ,", ","))
	assert.Empty(t, splitAndTrim("", ","))
}
