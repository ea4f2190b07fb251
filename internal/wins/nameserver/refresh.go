package nameserver

import (
	"context"
	"time"

	"github.com/dep2p/go-wins/pkg/types"
)

// Refresh 处理名称刷新
//
// 记录不存在或已失效时按注册处理；组标志与记录不一致时冲突；
// 唯一名称和 <1c> 组名称要求请求地址已在记录中。
func (s *Service) Refresh(ctx context.Context, req *types.RegisterRequest) types.Response {
	if !s.accept("refresh", req.Key, req.Validate, req.Broadcast) {
		s.observe("refresh", nil)
		return nil
	}

	unlock := s.store.Locks().Lock(req.Key)
	resp := s.refresh(ctx, req, s.cfg.clampTTL(req.TTL))
	unlock()

	s.observe("refresh", resp)
	return resp
}

func (s *Service) refresh(ctx context.Context, req *types.RegisterRequest, ttl time.Duration) types.Response {
	sc := s.evaluate(req)
	if sc.verdict != proceed {
		return s.respond(req, sc.verdict, seconds(ttl))
	}

	rec := sc.rec
	if rec == nil {
		logger.Debug("刷新的名称不存在，按注册处理", "name", req.Key)
		return s.register(ctx, req, ttl)
	}

	group := req.NBFlags.IsGroup()
	if group != rec.IsGroup() {
		logger.Debug("刷新请求的组标志与记录不一致", "name", req.Key, "group", group)
		return types.NewRegistrationResponse(req, types.CodeActive, 0)
	}

	domainGroup := group && req.Key.Type == types.TypeDomainGroup
	switch {
	case (!group || domainGroup) && rec.HasIP(req.RequesterIP):
		// 副本记录：接管所有权并更新版本
		replica := !rec.IsLocal()
		rec.Owner = types.LocalOwner
		rec.SetTTL(s.clock.Now(), ttl)
		if err := s.save(rec, replica); err != nil {
			logger.Error("刷新记录失败", "name", req.Key, "error", err)
			return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
		}
		s.notify(ctx, types.OpRefresh, rec, ttl)
		return types.NewRegistrationResponse(req, types.CodeSuccess, seconds(ttl))

	case domainGroup:
		logger.Debug("<1c> 组名称刷新来自新地址，按注册处理", "name", req.Key, "ip", req.RequesterIP)
		return s.register(ctx, req, ttl)

	case group:
		return s.refreshTTL(ctx, req, rec, ttl)
	}

	logger.Debug("刷新地址不属于该名称", "name", req.Key, "ip", req.RequesterIP)
	return types.NewRegistrationResponse(req, types.CodeActive, 0)
}
