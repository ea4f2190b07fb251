package nameserver

import (
	"context"
	"net/netip"
	"time"

	"github.com/dep2p/go-wins/pkg/types"
)

// ============================================================================
//                              普通注册
// ============================================================================

// Register 处理名称注册
//
// 返回 *types.RegistrationResponse，发生所有权冲突时返回 *types.WACKResponse；
// 请求被丢弃时返回 nil。
func (s *Service) Register(ctx context.Context, req *types.RegisterRequest) types.Response {
	if !s.accept("register", req.Key, req.Validate, req.Broadcast) {
		s.observe("register", nil)
		return nil
	}

	unlock := s.store.Locks().Lock(req.Key)
	resp := s.register(ctx, req, s.cfg.clampTTL(req.TTL))
	unlock()

	s.observe("register", resp)
	return resp
}

// register 注册流程，调用方持有 key 的锁
func (s *Service) register(ctx context.Context, req *types.RegisterRequest, ttl time.Duration) types.Response {
	sc := s.evaluate(req)
	if sc.verdict != proceed {
		return s.respond(req, sc.verdict, seconds(ttl))
	}

	ip := registrationIP(req)
	rec := sc.rec

	switch {
	case rec != nil && rec.IsGroup():
		// 组名称追加地址，evaluate 已保证请求也是组名称
		return s.joinGroup(ctx, req, rec, ip, ttl)

	case rec != nil && sc.mine:
		return s.refreshTTL(ctx, req, rec, ttl)

	case rec != nil && !req.NBFlags.IsGroup() && len(rec.IPs) == 1 && rec.IPs[0] == ip && rec.IsLocal():
		return s.refreshTTL(ctx, req, rec, ttl)

	case rec != nil:
		logger.Debug("名称已被占用，质询旧所有者",
			"name", req.Key,
			"owner", rec.IPs[0],
			"requester", req.RequesterIP)
		return s.arbiter.open(req, challengePlain, rec.IPs[0], ttl)
	}

	return s.create(ctx, req, ip, ttl)
}

// registrationIP 返回应记录的地址：普通组名称固定为广播地址
func registrationIP(req *types.RegisterRequest) netip.Addr {
	if req.NBFlags.IsGroup() && req.Key.Type != types.TypeDomainGroup {
		return types.BroadcastAddr
	}
	return req.RequesterIP
}

// create 新建记录
func (s *Service) create(ctx context.Context, req *types.RegisterRequest, ip netip.Addr, ttl time.Duration) *types.RegistrationResponse {
	rec := &types.NameRecord{
		Key:     req.Key,
		NBFlags: req.NBFlags,
		Source:  types.SourceRegister,
		Owner:   types.LocalOwner,
		IPs:     []netip.Addr{ip},
	}
	rec.SetTTL(s.clock.Now(), ttl)
	rec.SetState(types.StateActive)

	if err := s.store.PutWithNewVersion(rec); err != nil {
		logger.Error("写入新记录失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}

	logger.Debug("名称已注册", "name", req.Key, "ip", ip, "version", rec.Version)
	s.notify(ctx, types.OpAdd, rec, ttl)
	return types.NewRegistrationResponse(req, types.CodeSuccess, seconds(ttl))
}

// joinGroup 组名称追加地址并刷新 TTL
func (s *Service) joinGroup(ctx context.Context, req *types.RegisterRequest, rec *types.NameRecord, ip netip.Addr, ttl time.Duration) *types.RegistrationResponse {
	added := rec.AddIP(ip)
	if added {
		rec.Owner = types.LocalOwner
	}
	rec.SetTTL(s.clock.Now(), ttl)
	rec.RefreshFlags()

	if err := s.save(rec, added); err != nil {
		logger.Error("更新组名称失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}

	logger.Debug("组名称已刷新", "name", req.Key, "ip", ip, "added", added)
	s.notify(ctx, types.OpRefresh, rec, ttl)
	return types.NewRegistrationResponse(req, types.CodeSuccess, seconds(ttl))
}

// refreshTTL 只刷新 TTL
func (s *Service) refreshTTL(ctx context.Context, req *types.RegisterRequest, rec *types.NameRecord, ttl time.Duration) *types.RegistrationResponse {
	rec.SetTTL(s.clock.Now(), ttl)
	if err := s.store.Put(rec); err != nil {
		logger.Error("刷新 TTL 失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}
	s.notify(ctx, types.OpRefresh, rec, ttl)
	return types.NewRegistrationResponse(req, types.CodeSuccess, seconds(ttl))
}

// save 持久化记录，bump 为 true 时分配新版本号
func (s *Service) save(rec *types.NameRecord, bump bool) error {
	if bump {
		return s.store.PutWithNewVersion(rec)
	}
	return s.store.Put(rec)
}

// ============================================================================
//                              质询结果
// ============================================================================

// resolvePlain 普通注册的质询结果
//
// 旧所有者确认：冲突。否定或超时：记录仍属于被质询的地址时（不论状态）
// 删除并新建；记录已不存在时直接新建；记录已换了主人时丢弃这次结果。
func (s *Service) resolvePlain(c *challenge, v Verdict) *types.RegistrationResponse {
	req := c.req
	if v == VerdictConfirmed {
		logger.Debug("旧所有者仍持有名称，拒绝注册", "name", req.Key, "owner", c.target)
		return types.NewRegistrationResponse(req, types.CodeActive, 0)
	}

	unlock := s.store.Locks().Lock(req.Key)
	defer unlock()

	rec, err := s.store.Get(req.Key)
	switch {
	case isNotFound(err):
	case err != nil:
		logger.Error("质询后读取记录失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	case rec.Source == types.SourceRegister && len(rec.IPs) > 0 && rec.IPs[0] == c.target:
		if err := s.store.Delete(req.Key); err != nil {
			logger.Error("删除旧记录失败", "name", req.Key, "error", err)
			return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
		}
		s.notify(s.ctx, types.OpDelete, rec, 0)
	default:
		logger.Info("质询期间记录已变化，丢弃质询结果", "name", req.Key, "verdict", v)
		return nil
	}

	return s.create(s.ctx, req, registrationIP(req), c.ttl)
}
