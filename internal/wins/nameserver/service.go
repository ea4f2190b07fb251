package nameserver

import (
	"context"
	"errors"
	"net/netip"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-wins/internal/core/metrics"
	"github.com/dep2p/go-wins/internal/wins/namedb"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
	"github.com/dep2p/go-wins/pkg/lib/log"
	"github.com/dep2p/go-wins/pkg/types"
)

var logger = log.Logger("wins/nameserver")

// ============================================================================
//                              选项
// ============================================================================

// Option 服务选项
type Option func(*Service)

// WithClock 设置时钟（测试使用 clock.NewMock）
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithNotifier 设置名称变更通知
func WithNotifier(n pkgif.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithProber 设置定向查询发送方
func WithProber(p pkgif.OwnerProber) Option {
	return func(s *Service) { s.prober = p }
}

// WithCloseness 设置地址排序
func WithCloseness(c pkgif.Closeness) Option {
	return func(s *Service) { s.closeness = c }
}

// WithDNSFallback 设置 DNS 回退解析
func WithDNSFallback(d pkgif.DNSFallback) Option {
	return func(s *Service) { s.dns = d }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// ============================================================================
//                              Service
// ============================================================================

// Service 名称注册服务
type Service struct {
	cfg   Config
	store *namedb.Store
	clock clock.Clock

	notifier  pkgif.Notifier
	prober    pkgif.OwnerProber
	closeness pkgif.Closeness
	dns       pkgif.DNSFallback
	metrics   *metrics.Metrics

	arbiter  *arbiter
	dnsGroup singleflight.Group

	myNames map[string]struct{}

	sweepMu sync.Mutex

	// 运行状态
	running atomic.Bool
	closed  atomic.Bool
	lifeMu  sync.Mutex // closed 置位与 wg.Add 互斥
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New 创建名称服务
func New(cfg Config, store *namedb.Store, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		store:     store,
		clock:     clock.New(),
		notifier:  nopNotifier{},
		prober:    nopProber{},
		closeness: PrefixCloseness{},
		myNames:   make(map[string]struct{}, len(cfg.Names)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range cfg.Names {
		s.myNames[normalizeName(name)] = struct{}{}
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.arbiter = newArbiter(s)
	return s
}

// Config 返回运行参数
func (s *Service) Config() Config {
	return s.cfg
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 登记本机名称并启动清扫循环
func (s *Service) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServiceClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	if err := s.SeedSelfNames(ctx); err != nil {
		s.running.Store(false)
		return err
	}

	if !s.spawn(s.sweepLoop) {
		s.running.Store(false)
		return ErrServiceClosed
	}

	logger.Info("名称服务已启动",
		"enabled", s.cfg.Enabled,
		"names", len(s.cfg.Names),
		"sweepInterval", s.cfg.SweepInterval)
	return nil
}

// Stop 停止服务
//
// 挂起的质询全部以丢弃结束（Final 交付 nil）。
func (s *Service) Stop() error {
	s.lifeMu.Lock()
	if s.closed.Load() {
		s.lifeMu.Unlock()
		return nil
	}
	s.closed.Store(true)
	s.lifeMu.Unlock()

	s.cancel()
	dropped := s.arbiter.close()
	s.wg.Wait()

	logger.Info("名称服务已停止", "droppedChallenges", dropped)
	return nil
}

// spawn 在服务未停止时启动一个由 wg 跟踪的 goroutine
func (s *Service) spawn(fn func()) bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

// ============================================================================
//                              公共辅助
// ============================================================================

// ForEach 遍历全部记录，供导出器使用
func (s *Service) ForEach(ctx context.Context, fn func(rec *types.NameRecord) bool) error {
	return s.store.ForEach(ctx, fn)
}

// Pending 返回挂起的质询数
func (s *Service) Pending() int {
	return s.arbiter.len()
}

func (s *Service) isMyName(key types.Key) bool {
	_, ok := s.myNames[key.Name()]
	return ok
}

func (s *Service) isMyIP(ip netip.Addr) bool {
	return slices.Contains(s.cfg.Addrs, ip)
}

// notify 发布变更，record 在调用后可以继续修改
func (s *Service) notify(ctx context.Context, op types.ChangeOp, rec *types.NameRecord, ttl time.Duration) {
	s.notifier.Notify(ctx, types.EvtNameChanged{
		Op:     op,
		Record: *rec.Clone(),
		TTL:    seconds(ttl),
		Time:   s.clock.Now(),
	})
}

// observe 记录请求结果
func (s *Service) observe(op string, resp types.Response) {
	switch r := resp.(type) {
	case nil:
		s.metrics.ObserveRequest(op, "dropped")
	case *types.RegistrationResponse:
		s.metrics.ObserveRequest(op, r.Code.String())
	case *types.WACKResponse:
		s.metrics.ObserveRequest(op, "wack")
	}
}

// accept 检查请求是否应被处理
func (s *Service) accept(op string, key types.Key, validate func() error, broadcast bool) bool {
	if !s.cfg.Enabled {
		return false
	}
	if err := validate(); err != nil {
		logger.Warn("丢弃格式错误的请求", "op", op, "name", key, "error", err)
		return false
	}
	if broadcast {
		logger.Warn("丢弃广播请求，WINS 只接受单播", "op", op, "name", key)
		return false
	}
	return true
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimRight(strings.TrimSpace(name), "\x00"))
}

func seconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(d / time.Second)
}

func isNotFound(err error) bool {
	return errors.Is(err, namedb.ErrNotFound)
}

// ============================================================================
//                              默认协作者
// ============================================================================

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, types.EvtNameChanged) {}

// nopProber 不发送查询，质询只能以超时结束
type nopProber struct{}

func (nopProber) SendDirectedQuery(context.Context, uuid.UUID, netip.Addr, types.Key) error {
	return nil
}
