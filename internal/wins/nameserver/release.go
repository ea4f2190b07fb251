package nameserver

import (
	"context"

	"github.com/dep2p/go-wins/pkg/types"
)

// Release 处理名称释放
//
// <1d> 名称和普通组名称直接成功，不修改记录（组名称等待自然过期）。
// 其余情况要求记录存在、为 Register 来源、处于 Active 且请求地址在记录中。
// 请求被丢弃时返回 nil。
func (s *Service) Release(ctx context.Context, req *types.ReleaseRequest) *types.ReleaseResponse {
	if !s.accept("release", req.Key, req.Validate, req.Broadcast) {
		s.metrics.ObserveRequest("release", "dropped")
		return nil
	}

	group := req.NBFlags.IsGroup()
	if req.Key.Type == types.TypeBrowser || (group && req.Key.Type != types.TypeDomainGroup) {
		s.metrics.ObserveRequest("release", types.CodeSuccess.String())
		return types.NewReleaseResponse(req, types.CodeSuccess)
	}

	unlock := s.store.Locks().Lock(req.Key)
	code := s.release(ctx, req)
	unlock()

	s.metrics.ObserveRequest("release", code.String())
	return types.NewReleaseResponse(req, code)
}

func (s *Service) release(ctx context.Context, req *types.ReleaseRequest) types.ResultCode {
	rec, err := s.store.Get(req.Key)
	switch {
	case isNotFound(err):
		return types.CodeNameNotFound
	case err != nil:
		logger.Error("释放读取记录失败", "name", req.Key, "error", err)
		return types.CodeServerFailure
	case rec.Source != types.SourceRegister:
		return types.CodeNameNotFound
	case !rec.HasIP(req.RequesterIP):
		logger.Debug("释放地址不属于该名称", "name", req.Key, "ip", req.RequesterIP)
		return types.CodeNameNotFound
	case !rec.IsActive():
		logger.Debug("名称已不是 Active，拒绝释放", "name", req.Key, "state", types.StateName(rec.State()))
		return types.CodeNameNotFound
	}

	if rec.IsGroup() && req.Key.Type == types.TypeDomainGroup && len(rec.IPs) > 1 {
		// <1c> 组名称只移除请求方地址
		rec.RemoveIP(req.RequesterIP)
		rec.RefreshFlags()
		if err := s.store.Put(rec); err != nil {
			logger.Error("移除组成员失败", "name", req.Key, "error", err)
			return types.CodeServerFailure
		}
		logger.Debug("已从组名称移除地址", "name", req.Key, "ip", req.RequesterIP)
		s.notify(ctx, types.OpDelete, rec, 0)
		return types.CodeSuccess
	}

	rec.DeathTime = expiry(s.clock.Now(), s.cfg.ExtinctionInterval)
	rec.SetState(types.StateReleased)
	if err := s.store.Put(rec); err != nil {
		logger.Error("释放名称失败", "name", req.Key, "error", err)
		return types.CodeServerFailure
	}
	logger.Debug("名称已释放", "name", req.Key, "ip", req.RequesterIP)
	s.notify(ctx, types.OpDelete, rec, 0)
	return types.CodeSuccess
}
