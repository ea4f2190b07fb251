package nameserver

import (
	"github.com/dep2p/go-wins/pkg/types"
)

// verdict 注册类请求的公共裁决
type verdict int

const (
	// proceed 交给入口自身的流程继续处理
	proceed verdict = iota
	// ignore 直接成功，不存储（<1d> 名称）
	ignore
	// reject 所有权冲突
	reject
	// refuse 外部地址注册本机名称
	refuse
	// fail 存储错误
	fail
)

// screening 公共裁决结果
//
// rec 为清理后仍然存在的记录：Active、Register 来源；不存在时为 nil。
// mine 表示 rec 是本机名称且请求来自本机地址。
type screening struct {
	verdict verdict
	rec     *types.NameRecord
	mine    bool
}

// evaluate 普通注册、多宿主注册和刷新共享的裁决
//
// 依次处理：
//  1. <1d> 名称：不查库，直接成功
//  2. 非 Active 记录和 DNS 缓存记录：删除后视为不存在
//  3. 非 Register 来源（本机、永久）：冲突
//  4. 已有组名称而请求唯一名称：冲突（组名称优先）
//  5. 已有唯一名称是本机名称：只允许本机地址，否则拒绝
//
// 调用方必须持有 key 的锁。
func (s *Service) evaluate(req *types.RegisterRequest) screening {
	if req.Key.Type == types.TypeBrowser {
		logger.Debug("忽略 <1d> 名称注册", "name", req.Key, "ip", req.RequesterIP)
		return screening{verdict: ignore}
	}

	rec, err := s.store.Get(req.Key)
	if isNotFound(err) {
		return screening{verdict: proceed}
	}
	if err != nil {
		logger.Error("读取名称记录失败", "name", req.Key, "error", err)
		return screening{verdict: fail}
	}

	if !rec.IsActive() || rec.Source == types.SourceDNS || rec.Source == types.SourceDNSFail {
		logger.Debug("移除失效记录",
			"name", req.Key,
			"state", types.StateName(rec.State()),
			"source", rec.Source)
		if err := s.store.Delete(req.Key); err != nil {
			logger.Error("删除失效记录失败", "name", req.Key, "error", err)
			return screening{verdict: fail}
		}
		return screening{verdict: proceed}
	}

	if rec.Source != types.SourceRegister {
		logger.Debug("名称为静态记录，拒绝注册", "name", req.Key, "source", rec.Source)
		return screening{verdict: reject, rec: rec}
	}

	if rec.IsGroup() && !req.NBFlags.IsGroup() {
		logger.Debug("名称已注册为组名称，拒绝唯一名称注册", "name", req.Key)
		return screening{verdict: reject, rec: rec}
	}

	if !rec.IsGroup() && s.isMyName(req.Key) {
		if !s.isMyIP(req.RequesterIP) {
			logger.Info("外部地址试图注册本机名称", "name", req.Key, "ip", req.RequesterIP)
			return screening{verdict: refuse, rec: rec}
		}
		return screening{verdict: proceed, rec: rec, mine: true}
	}

	return screening{verdict: proceed, rec: rec}
}

// respond 把非 proceed 裁决映射为最终应答
func (s *Service) respond(req *types.RegisterRequest, v verdict, ttl uint32) *types.RegistrationResponse {
	switch v {
	case ignore:
		return types.NewRegistrationResponse(req, types.CodeSuccess, ttl)
	case reject:
		return types.NewRegistrationResponse(req, types.CodeActive, 0)
	case refuse:
		return types.NewRegistrationResponse(req, types.CodeRefused, 0)
	default:
		return types.NewRegistrationResponse(req, types.CodeServerFailure, 0)
	}
}
