// Package main 提供 winsd 命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-wins"
	"github.com/dep2p/go-wins/config"
	"github.com/dep2p/go-wins/pkg/lib/log"
)

var logger = log.Logger("wins/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖 / 快速测试
//   JSON 配置文件：持久化配置（TTL 区间、质询限制、DNS 回退等）
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径")
	dataDir     = flag.String("data-dir", "", "数据目录（默认: ./data）")
	names       = flag.String("names", "", "本机 NetBIOS 名称（逗号分隔）")
	addrs       = flag.String("addrs", "", "本机 IPv4 地址（逗号分隔）")
	metricsAddr = flag.String("metrics", "", "指标监听地址（如 127.0.0.1:9142）")

	logFile  = flag.String("log", "", "日志文件路径")
	logLevel = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	fxLog    = flag.Bool("fx-log", false, "输出 Fx 装配日志")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(wins.VersionInfo())
		return nil
	}

	logFileHandle, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v\n", err)
		fmt.Fprintln(os.Stderr, "将继续使用控制台输出日志")
	}
	if logFileHandle != nil {
		defer func() { _ = logFileHandle.Close() }()
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("启动 WINS 服务器", "version", wins.Version, "commit", wins.GitCommit, "buildDate", wins.BuildDate)

	srv, err := wins.Start(ctx,
		wins.WithConfig(cfg),
		wins.WithFxLogging(*fxLog),
	)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		httpSrv := newMetricsServer(cfg.Metrics.Addr, srv.Gatherer())
		g.Go(func() error {
			logger.Info("指标服务已启动", "addr", cfg.Metrics.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("正在关闭 WINS 服务器")
		return srv.Close()
	})

	fmt.Printf("%s 已启动，数据目录 %s，按 Ctrl+C 退出\n", wins.VersionInfo(), cfg.Storage.DataDir)
	return g.Wait()
}

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（WINS_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		cfg, err = loadConfigFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if isFlagSet("data-dir") {
		cfg.Storage.DataDir = *dataDir
	}
	if isFlagSet("names") {
		cfg.Identity.Names = splitAndTrim(*names, ",")
	}
	if isFlagSet("addrs") {
		cfg.Identity.Addrs = splitAndTrim(*addrs, ",")
	}
	if isFlagSet("metrics") {
		cfg.Metrics.Addr = *metricsAddr
		cfg.Metrics.Enabled = *metricsAddr != ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newMetricsServer 创建 /metrics HTTP 服务
func newMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// setupLogging 设置日志输出
//
// 命令行 -log 优先于 WINS_LOG_FILE；都未设置时输出到控制台。
func setupLogging() (*os.File, error) {
	level := log.ParseLevel(os.Getenv(log.EnvLogLevel))
	if *logLevel != "" {
		level = log.ParseLevel(*logLevel)
	}

	logPath := *logFile
	if logPath == "" {
		logPath = getLogFileFromEnv()
	}
	if logPath == "" {
		log.SetOutputWithLevel(os.Stderr, level)
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0750); err != nil {
		log.SetOutputWithLevel(os.Stderr, level)
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.SetOutputWithLevel(os.Stderr, level)
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}

	log.SetOutputWithLevel(file, level)
	return file, nil
}
