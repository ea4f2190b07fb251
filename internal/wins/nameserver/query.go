package nameserver

import (
	"context"
	"net/netip"

	"github.com/dep2p/go-wins/pkg/types"
)

// domainMasterKey *<1b> 聚合查询
var domainMasterKey = types.MustKey("*", types.TypeDomainMaster)

// Query 处理名称查询
//
// 查询不加键锁：读取的是存储中某一时刻的记录副本。请求被丢弃时返回 nil。
func (s *Service) Query(ctx context.Context, req *types.QueryRequest) *types.QueryResponse {
	if !s.accept("query", req.Key, req.Validate, false) {
		s.metrics.ObserveRequest("query", "dropped")
		return nil
	}

	resp := s.query(ctx, req)
	result := resp.Code.String()
	if resp.DNSFallback {
		result = "dns_fallback"
	}
	s.metrics.ObserveRequest("query", result)
	return resp
}

func (s *Service) query(_ context.Context, req *types.QueryRequest) *types.QueryResponse {
	if req.Key == domainMasterKey {
		return s.queryDomainMasters(req)
	}

	rec, err := s.store.Get(req.Key)
	if isNotFound(err) {
		if s.dnsEligible(req.Key) {
			return s.deferDNS(req)
		}
		return types.NewQueryResponse(req.Key, types.CodeNameNotFound, 0, nil)
	}
	if err != nil {
		logger.Error("查询读取记录失败", "name", req.Key, "error", err)
		return types.NewQueryResponse(req.Key, types.CodeServerFailure, 0, nil)
	}

	return s.answer(req, rec)
}

// answer 由记录构造应答
//
// 非 Active、DnsFail 和已过期但尚未清扫的记录都视为不存在。
func (s *Service) answer(req *types.QueryRequest, rec *types.NameRecord) *types.QueryResponse {
	now := s.clock.Now()
	if !rec.IsActive() || rec.Source == types.SourceDNSFail || rec.Expired(now) {
		return types.NewQueryResponse(req.Key, types.CodeNameNotFound, 0, nil)
	}

	ips := s.closeness.Sort(req.RequesterIP, rec.IPs)
	entries := make([]types.QueryEntry, 0, len(ips))
	for _, ip := range ips {
		entries = append(entries, types.QueryEntry{IP: ip, NBFlags: rec.NBFlags})
	}
	return types.NewQueryResponse(req.Key, types.CodeSuccess, rec.TTL(now, seconds(s.cfg.MaxTTL)), entries)
}

// queryDomainMasters 汇总全部 Active 且未过期的 <1b> 记录地址
func (s *Service) queryDomainMasters(req *types.QueryRequest) *types.QueryResponse {
	recs, err := s.store.ByType(types.TypeDomainMaster)
	if err != nil {
		logger.Error("枚举 <1b> 记录失败", "error", err)
		return types.NewQueryResponse(req.Key, types.CodeServerFailure, 0, nil)
	}

	now := s.clock.Now()
	var ips []netip.Addr
	flags := make(map[netip.Addr][]types.NBFlags)
	for _, rec := range recs {
		if !rec.IsActive() || rec.Expired(now) {
			continue
		}
		for _, ip := range rec.IPs {
			ips = append(ips, ip)
			flags[ip] = append(flags[ip], rec.NBFlags)
		}
	}
	if len(ips) == 0 {
		return types.NewQueryResponse(req.Key, types.CodeNameNotFound, 0, nil)
	}

	// 同一地址可能出现在多条记录中，按出现顺序取回各自的标志
	entries := make([]types.QueryEntry, 0, len(ips))
	for _, ip := range s.closeness.Sort(req.RequesterIP, ips) {
		f := flags[ip]
		entries = append(entries, types.QueryEntry{IP: ip, NBFlags: f[0]})
		flags[ip] = f[1:]
	}
	return types.NewQueryResponse(req.Key, types.CodeSuccess, seconds(s.cfg.MinTTL), entries)
}

// dnsEligible 未命中时是否走 DNS 回退
func (s *Service) dnsEligible(key types.Key) bool {
	if !s.cfg.DNSProxy || s.dns == nil || s.closed.Load() {
		return false
	}
	return key.Type == types.TypeWorkstation || key.Type == types.TypeServer
}
