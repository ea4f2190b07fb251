package nameserver

import (
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-wins/pkg/types"
)

// ============================================================================
//                              Verdict
// ============================================================================

// Verdict 所有权质询结果
type Verdict int

const (
	// VerdictConfirmed 旧所有者确认仍持有名称
	VerdictConfirmed Verdict = iota + 1
	// VerdictDenied 旧所有者否认
	VerdictDenied
	// VerdictTimedOut 旧所有者在 WACK TTL 内没有应答
	VerdictTimedOut
)

// String 返回结果名称
func (v Verdict) String() string {
	switch v {
	case VerdictConfirmed:
		return "confirmed"
	case VerdictDenied:
		return "denied"
	case VerdictTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              挂起质询
// ============================================================================

type challengeKind int

const (
	challengePlain challengeKind = iota
	challengeMultihomed
)

// challenge 一个挂起的质询
//
// 状态：发出 WACK -> 等待旧所有者 -> {确认 | 否认 | 超时}。
type challenge struct {
	id     uuid.UUID
	kind   challengeKind
	req    *types.RegisterRequest
	ttl    time.Duration
	target netip.Addr
	opened time.Time

	timer *clock.Timer
	final chan *types.RegistrationResponse
}

// deliver 交付最终应答并关闭通道
func (c *challenge) deliver(resp *types.RegistrationResponse) {
	c.final <- resp
	close(c.final)
}

// arbiter 挂起质询表
//
// 按关联 id 保存被挂起的注册请求，由 ResolveChallenge 或超时定时器恢复。
type arbiter struct {
	svc     *Service
	limiter *rate.Limiter

	mu      sync.Mutex
	pending map[uuid.UUID]*challenge
	closed  bool

	// wg 跟踪发送协程和正在执行的结果处理
	wg sync.WaitGroup
}

func newArbiter(svc *Service) *arbiter {
	return &arbiter{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(svc.cfg.QueryRate), svc.cfg.QueryBurst),
		pending: make(map[uuid.UUID]*challenge),
	}
}

// open 挂起请求并向旧所有者发出定向查询
//
// 返回 WACK；挂起失败时返回 ServerFailure。调用方持有 key 的锁。
func (a *arbiter) open(req *types.RegisterRequest, kind challengeKind, target netip.Addr, ttl time.Duration) types.Response {
	s := a.svc
	now := s.clock.Now()

	c := &challenge{
		id:     uuid.New(),
		kind:   kind,
		req:    req,
		ttl:    ttl,
		target: target,
		opened: now,
		final:  make(chan *types.RegistrationResponse, 1),
	}

	a.mu.Lock()
	var err error
	switch {
	case a.closed:
		err = ErrServiceClosed
	case len(a.pending) >= s.cfg.MaxPending:
		err = ErrTooManyChallenges
	case !a.limiter.AllowN(now, 1):
		err = ErrChallengeRateLimited
	}
	if err != nil {
		a.mu.Unlock()
		logger.Warn("无法发起所有权质询", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}

	a.pending[c.id] = c
	n := len(a.pending)
	c.timer = s.clock.AfterFunc(s.cfg.WACKTTL, func() {
		_ = a.resolve(c.id, VerdictTimedOut)
	})
	a.wg.Add(1)
	a.mu.Unlock()

	s.metrics.SetPending(n)
	go a.send(c)

	return types.NewWACKResponse(req, seconds(s.cfg.WACKTTL), c.id, c.final)
}

// send 发出定向查询，发送失败按超时处理
func (a *arbiter) send(c *challenge) {
	defer a.wg.Done()

	err := a.svc.prober.SendDirectedQuery(a.svc.ctx, c.id, c.target, c.req.Key)
	if err == nil {
		return
	}
	logger.Warn("定向查询发送失败", "name", c.req.Key, "owner", c.target, "error", err)
	_ = a.resolve(c.id, VerdictTimedOut)
}

// resolve 结束质询并交付最终应答
func (a *arbiter) resolve(id uuid.UUID, v Verdict) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrServiceClosed
	}
	c, ok := a.pending[id]
	if !ok {
		a.mu.Unlock()
		return ErrChallengeNotFound
	}
	delete(a.pending, id)
	n := len(a.pending)
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	c.timer.Stop()
	s := a.svc
	s.metrics.SetPending(n)
	s.metrics.ObserveChallenge(v.String())

	var resp *types.RegistrationResponse
	switch c.kind {
	case challengeMultihomed:
		resp = s.resolveMultihomed(c, v)
	default:
		resp = s.resolvePlain(c, v)
	}

	if resp == nil {
		s.metrics.ObserveRequest("challenge", "dropped")
	} else {
		s.metrics.ObserveRequest("challenge", resp.Code.String())
	}
	logger.Debug("质询已结束",
		"name", c.req.Key,
		"verdict", v,
		"elapsed", s.clock.Since(c.opened))
	c.deliver(resp)
	return nil
}

// close 以丢弃结束全部挂起质询，等待进行中的处理完成
func (a *arbiter) close() int {
	a.mu.Lock()
	a.closed = true
	pending := a.pending
	a.pending = make(map[uuid.UUID]*challenge)
	a.mu.Unlock()

	for _, c := range pending {
		c.timer.Stop()
		c.deliver(nil)
	}
	a.svc.metrics.SetPending(0)
	a.wg.Wait()
	return len(pending)
}

func (a *arbiter) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// ResolveChallenge 回填定向查询结果
//
// 传输层收到旧所有者的应答（或确认无应答）后以 WACK 中的 ChallengeID 调用。
// 质询已结束时返回 ErrChallengeNotFound。
func (s *Service) ResolveChallenge(id uuid.UUID, v Verdict) error {
	return s.arbiter.resolve(id, v)
}
