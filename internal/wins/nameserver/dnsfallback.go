package nameserver

import (
	"net/netip"
	"slices"

	"github.com/dep2p/go-wins/pkg/types"
)

// deferDNS 转入 DNS 回退路径
//
// 立即返回带 Deferred 的 NameNotFound，最终应答在解析完成后交付。
// 同一名称的并发查询共享一次 DNS 解析。服务已停止时直接返回 NameNotFound。
func (s *Service) deferDNS(req *types.QueryRequest) *types.QueryResponse {
	out := make(chan *types.QueryResponse, 1)

	started := s.spawn(func() {
		defer close(out)

		v, err, _ := s.dnsGroup.Do(req.Key.String(), func() (interface{}, error) {
			return s.dns.Lookup(s.ctx, req.Key)
		})
		var addrs []netip.Addr
		if err == nil {
			addrs = v.([]netip.Addr)
		}

		rec, err := s.AddDNSResult(req.Key, addrs, err)
		if err != nil {
			out <- types.NewQueryResponse(req.Key, types.CodeServerFailure, 0, nil)
			return
		}
		out <- s.answer(req, rec)
	})
	if !started {
		return types.NewQueryResponse(req.Key, types.CodeNameNotFound, 0, nil)
	}

	resp := types.NewQueryResponse(req.Key, types.CodeNameNotFound, 0, nil)
	resp.DNSFallback = true
	resp.Deferred = out
	return resp
}

// AddDNSResult 缓存 DNS 解析结果
//
// 解析成功时写入 Dns 记录，失败或无结果时写入地址为 0.0.0.0 的 DnsFail 记录，
// TTL 均为 MaxTTL。名称已经有 Active 记录（例如解析期间被注册）时保留原记录。
// 返回最终的记录。
func (s *Service) AddDNSResult(key types.Key, addrs []netip.Addr, lookupErr error) (*types.NameRecord, error) {
	unlock := s.store.Locks().Lock(key)
	defer unlock()

	existing, err := s.store.Get(key)
	switch {
	case err == nil && existing.IsActive():
		return existing, nil
	case err != nil && !isNotFound(err):
		return nil, err
	}

	rec := &types.NameRecord{
		Key:     key,
		NBFlags: types.NBActive,
		Source:  types.SourceDNS,
		Owner:   types.LocalOwner,
		IPs:     slices.Clone(addrs),
	}
	result := "ok"
	if lookupErr != nil || len(addrs) == 0 {
		rec.Source = types.SourceDNSFail
		rec.IPs = []netip.Addr{netip.IPv4Unspecified()}
		result = "fail"
		if lookupErr != nil {
			logger.Debug("DNS 回退解析失败", "name", key, "error", lookupErr)
		}
	}
	rec.SetTTL(s.clock.Now(), s.cfg.MaxTTL)
	rec.SetState(types.StateActive)

	if err := s.store.Put(rec); err != nil {
		logger.Error("写入 DNS 记录失败", "name", key, "error", err)
		return nil, err
	}
	s.metrics.ObserveDNS(result)
	return rec, nil
}
