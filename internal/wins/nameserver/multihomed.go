package nameserver

import (
	"context"
	"time"

	"github.com/dep2p/go-wins/pkg/types"
)

// RegisterMultihomed 处理多宿主名称注册
//
// 与普通注册的区别：组名称请求被丢弃；地址从不折叠为广播地址；
// 同名记录来自其他地址时，质询确认后追加地址而不是替换。
func (s *Service) RegisterMultihomed(ctx context.Context, req *types.RegisterRequest) types.Response {
	if !s.accept("multihomed", req.Key, req.Validate, req.Broadcast) {
		s.observe("multihomed", nil)
		return nil
	}
	if req.NBFlags.IsGroup() {
		logger.Warn("丢弃多宿主组名称注册", "name", req.Key, "ip", req.RequesterIP)
		s.observe("multihomed", nil)
		return nil
	}

	unlock := s.store.Locks().Lock(req.Key)
	resp := s.registerMultihomed(ctx, req, s.cfg.clampTTL(req.TTL))
	unlock()

	s.observe("multihomed", resp)
	return resp
}

func (s *Service) registerMultihomed(ctx context.Context, req *types.RegisterRequest, ttl time.Duration) types.Response {
	sc := s.evaluate(req)
	if sc.verdict != proceed {
		return s.respond(req, sc.verdict, seconds(ttl))
	}

	rec := sc.rec
	switch {
	case rec == nil:
		return s.create(ctx, req, req.RequesterIP, ttl)

	case sc.mine:
		// 本机名称来自本机地址：保证地址在记录中
		return s.extend(ctx, req, rec, ttl, true)

	case rec.HasIP(req.RequesterIP):
		// 副本记录时接管所有权以便复制
		return s.extend(ctx, req, rec, ttl, !rec.IsLocal())
	}

	logger.Debug("多宿主名称来自新地址，质询旧所有者",
		"name", req.Key,
		"owner", rec.IPs[0],
		"requester", req.RequesterIP)
	return s.arbiter.open(req, challengeMultihomed, rec.IPs[0], ttl)
}

// extend 刷新 TTL；take 为 true 时确保请求地址在记录中并接管所有权
func (s *Service) extend(ctx context.Context, req *types.RegisterRequest, rec *types.NameRecord, ttl time.Duration, take bool) *types.RegistrationResponse {
	changed := false
	if take {
		added := rec.AddIP(req.RequesterIP)
		changed = added || !rec.IsLocal()
		rec.Owner = types.LocalOwner
	}
	rec.SetTTL(s.clock.Now(), ttl)
	rec.RefreshFlags()

	if err := s.save(rec, changed); err != nil {
		logger.Error("刷新多宿主记录失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}
	s.notify(ctx, types.OpRefresh, rec, ttl)
	return types.NewRegistrationResponse(req, types.CodeSuccess, seconds(ttl))
}

// resolveMultihomed 多宿主注册的质询结果
//
// 旧所有者确认：记录仍为 Active 的 Register 记录时追加地址并接管所有权；
// 否定、超时或记录状态已变化：冲突。
func (s *Service) resolveMultihomed(c *challenge, v Verdict) *types.RegistrationResponse {
	req := c.req
	if v != VerdictConfirmed {
		logger.Debug("多宿主质询未确认，拒绝注册", "name", req.Key, "verdict", v)
		return types.NewRegistrationResponse(req, types.CodeActive, 0)
	}

	unlock := s.store.Locks().Lock(req.Key)
	defer unlock()

	rec, err := s.store.Get(req.Key)
	if isNotFound(err) || (err == nil && (rec.Source != types.SourceRegister || !rec.IsActive())) {
		logger.Info("质询期间记录已变化，无法追加地址", "name", req.Key)
		return types.NewRegistrationResponse(req, types.CodeActive, 0)
	}
	if err != nil {
		logger.Error("质询后读取记录失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}

	rec.AddIP(req.RequesterIP)
	rec.Owner = types.LocalOwner
	rec.SetTTL(s.clock.Now(), c.ttl)
	rec.SetState(types.StateActive)
	if err := s.store.PutWithNewVersion(rec); err != nil {
		logger.Error("追加多宿主地址失败", "name", req.Key, "error", err)
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}

	logger.Debug("多宿主地址已追加", "name", req.Key, "ip", req.RequesterIP, "ips", len(rec.IPs))
	s.notify(s.ctx, types.OpAdd, rec, c.ttl)
	return types.NewRegistrationResponse(req, types.CodeSuccess, seconds(c.ttl))
}
