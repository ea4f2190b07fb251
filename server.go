package wins

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-wins/internal/wins/nameserver"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
	"github.com/dep2p/go-wins/pkg/lib/log"
	"github.com/dep2p/go-wins/pkg/types"
)

var logger = log.Logger("wins")

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 30 * time.Second
)

// 质询结果，供传输层调用 ResolveChallenge 时使用
const (
	VerdictConfirmed = nameserver.VerdictConfirmed
	VerdictDenied    = nameserver.VerdictDenied
	VerdictTimedOut  = nameserver.VerdictTimedOut
)

// Verdict 所有权质询结果
type Verdict = nameserver.Verdict

// SweepStats 一次清扫的统计
type SweepStats = nameserver.SweepStats

// Server WINS 名称服务器
//
// Server 是用户交互的主入口，封装 Fx 装配的内部组件。
// 请求处理方法可并发调用。
type Server struct {
	// config 服务器选项
	config *serverConfig

	// app Fx 应用
	app *fx.App

	// ────────────────────────────────────────────────────────────────────────
	// 核心组件（由 Fx 注入）
	// ────────────────────────────────────────────────────────────────────────

	svc      *nameserver.Service
	gatherer prometheus.Gatherer
	bus      pkgif.EventBus

	// ────────────────────────────────────────────────────────────────────────
	// 生命周期状态
	// ────────────────────────────────────────────────────────────────────────

	mu      sync.Mutex
	started bool
	closed  bool
}

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建服务器
//
// 创建服务器但不启动，需要调用 Start() 启动。
func New(opts ...Option) (*Server, error) {
	cfg := newServerConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	srv := &Server{config: cfg}

	app, err := buildFxApp(cfg, srv)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	srv.app = app
	return srv, nil
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Server, error) {
	srv, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(ctx); err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("start server: %w", err)
	}
	return srv, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动服务器
//
// 打开数据库，登记本机名称并启动清扫循环。
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := s.app.Start(startCtx); err != nil {
		logger.Error("服务器启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	s.started = true
	logger.Info("WINS 服务器已启动", "version", Version, "dataDir", s.config.config.Storage.DataDir)
	return nil
}

// Close 关闭服务器并释放所有资源
//
// 挂起的质询以丢弃结束。关闭后不可重新启动。
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if !s.started {
		return nil
	}
	s.started = false

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := s.app.Stop(ctx); err != nil {
		logger.Warn("停止 Fx 应用失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}

	logger.Info("WINS 服务器已关闭")
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              请求处理
// ════════════════════════════════════════════════════════════════════════════

// Register 处理名称注册
//
// 返回 nil 表示请求被丢弃，不发送应答。
func (s *Server) Register(ctx context.Context, req *types.RegisterRequest) types.Response {
	return s.svc.Register(ctx, req)
}

// RegisterMultihomed 处理多宿主名称注册
func (s *Server) RegisterMultihomed(ctx context.Context, req *types.RegisterRequest) types.Response {
	return s.svc.RegisterMultihomed(ctx, req)
}

// Refresh 处理名称刷新
func (s *Server) Refresh(ctx context.Context, req *types.RegisterRequest) types.Response {
	return s.svc.Refresh(ctx, req)
}

// Query 处理名称查询
func (s *Server) Query(ctx context.Context, req *types.QueryRequest) *types.QueryResponse {
	return s.svc.Query(ctx, req)
}

// Release 处理名称释放
func (s *Server) Release(ctx context.Context, req *types.ReleaseRequest) *types.ReleaseResponse {
	return s.svc.Release(ctx, req)
}

// ResolveChallenge 交付定向查询的结果
//
// id 来自 OwnerProber.SendDirectedQuery，也可以从 WACKResponse.ChallengeID 获得。
func (s *Server) ResolveChallenge(id uuid.UUID, v Verdict) error {
	return s.svc.ResolveChallenge(id, v)
}

// ════════════════════════════════════════════════════════════════════════════
//                              管理接口
// ════════════════════════════════════════════════════════════════════════════

// Sweep 立即执行一次生命周期清扫
func (s *Server) Sweep(ctx context.Context) (SweepStats, error) {
	if err := s.checkRunning(); err != nil {
		return SweepStats{}, err
	}
	return s.svc.Sweep(ctx)
}

// Records 返回全部名称记录的副本
func (s *Server) Records(ctx context.Context) ([]*types.NameRecord, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}
	var recs []*types.NameRecord
	err := s.svc.ForEach(ctx, func(rec *types.NameRecord) bool {
		recs = append(recs, rec.Clone())
		return true
	})
	return recs, err
}

// PendingChallenges 返回挂起的质询数
func (s *Server) PendingChallenges() int {
	return s.svc.Pending()
}

// Subscribe 订阅名称变更事件（types.EvtNameChanged）
func (s *Server) Subscribe(opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	return s.bus.Subscribe(new(types.EvtNameChanged), opts...)
}

// Gatherer 返回服务器的 Prometheus 指标收集器
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

func (s *Server) checkRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrServerClosed
	case !s.started:
		return ErrNotStarted
	}
	return nil
}
