package nameserver

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wins/pkg/types"
)

func qReq(name string, typ types.NameType, requester netip.Addr) *types.QueryRequest {
	return &types.QueryRequest{Key: types.MustKey(name, typ), RequesterIP: requester}
}

// TestQuery_Hit 测试命中查询
func TestQuery_Hit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	final(t, h.svc.Register(ctx, regReq("FOO", 0x00, ipA, types.NBNodeH)))

	h.clk.Add(time.Hour)
	resp := h.svc.Query(ctx, qReq("FOO", 0x00, ipB))
	require.NotNil(t, resp)
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, uint32(23*3600), resp.TTL)
	assert.Equal(t, []types.QueryEntry{{IP: ipA, NBFlags: types.NBNodeH}}, resp.Entries)
	assert.Equal(t, types.EncodeRData(types.NBNodeH, ipA), resp.RData())
	assert.False(t, resp.DNSFallback)
}

// TestQuery_NotFound 测试各种视为不存在的情况
func TestQuery_NotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// 不存在
	assert.Equal(t, types.CodeNameNotFound, h.svc.Query(ctx, qReq("NOPE", 0x00, ipA)).Code)

	// 已释放
	final(t, h.svc.Register(ctx, regReq("GONE", 0x00, ipA, 0)))
	h.svc.Release(ctx, relReq("GONE", 0x00, ipA, 0))
	assert.Equal(t, types.CodeNameNotFound, h.svc.Query(ctx, qReq("GONE", 0x00, ipA)).Code)

	// 已过期但尚未清扫
	final(t, h.svc.Register(ctx, regReq("OLD", 0x00, ipA, 0)))
	h.clk.Add(25 * time.Hour)
	assert.Equal(t, types.CodeNameNotFound, h.svc.Query(ctx, qReq("OLD", 0x00, ipA)).Code)
	assert.True(t, h.get(t, "OLD", 0x00).IsActive())

	// DnsFail
	_, err := h.svc.AddDNSResult(types.MustKey("FAILED", 0x20), nil, errors.New("nxdomain"))
	require.NoError(t, err)
	assert.Equal(t, types.CodeNameNotFound, h.svc.Query(ctx, qReq("FAILED", 0x20, ipA)).Code)
}

// TestQuery_Permanent 测试永久记录返回 MaxTTL
func TestQuery_Permanent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SeedSelfNames(ctx))

	resp := h.svc.Query(ctx, qReq("*", 0x00, ipA))
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, uint32(6*24*3600), resp.TTL)
	assert.Equal(t, ipServer, resp.Entries[0].IP)

	resp = h.svc.Query(ctx, qReq("WINSSRV", 0x20, ipA))
	assert.Equal(t, types.CodeSuccess, resp.Code)
}

// TestQuery_SortedByCloseness 测试地址按与请求方的距离排序
func TestQuery_SortedByCloseness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	far := netip.MustParseAddr("172.16.0.5")
	near := netip.MustParseAddr("192.168.1.5")
	h.putRecord(t, "HOST", 0x20, 0, types.LocalOwner, time.Hour, far, near)

	resp := h.svc.Query(ctx, qReq("HOST", 0x20, netip.MustParseAddr("192.168.1.77")))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, near, resp.Entries[0].IP)
	assert.Equal(t, far, resp.Entries[1].IP)
}

// TestQuery_DomainMasters 测试 *<1b> 聚合查询
func TestQuery_DomainMasters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.svc.Query(ctx, qReq("*", 0x1b, ipA))
	assert.Equal(t, types.CodeNameNotFound, resp.Code)

	h.putRecord(t, "DOM1", 0x1b, types.NBNodeH, types.LocalOwner, time.Hour,
		netip.MustParseAddr("10.1.0.1"), netip.MustParseAddr("10.1.0.2"))
	h.putRecord(t, "DOM2", 0x1b, types.NBNodeB, types.LocalOwner, time.Hour,
		netip.MustParseAddr("10.2.0.1"), netip.MustParseAddr("10.2.0.2"))

	// 非 Active 的 <1b> 记录不参与汇总
	final(t, h.svc.Register(ctx, regReq("DOM3", 0x1b, ipC, 0)))
	h.svc.Release(ctx, relReq("DOM3", 0x1b, ipC, 0))

	resp = h.svc.Query(ctx, qReq("*", 0x1b, netip.MustParseAddr("10.2.0.99")))
	require.Equal(t, types.CodeSuccess, resp.Code)
	require.Len(t, resp.Entries, 4)
	assert.Equal(t, uint32(6*3600), resp.TTL)

	// 请求方所在网段的地址排在前面
	assert.Equal(t, netip.MustParseAddr("10.2.0.1"), resp.Entries[0].IP)
	assert.Equal(t, types.NBNodeB, resp.Entries[0].NBFlags)

	got := map[netip.Addr]types.NBFlags{}
	for _, e := range resp.Entries {
		got[e.IP] = e.NBFlags
	}
	assert.Equal(t, types.NBNodeH, got[netip.MustParseAddr("10.1.0.2")])
	assert.Len(t, resp.RData(), 4*types.RDataLen)
}

// TestQuery_DNSFallback 测试 DNS 回退
func TestQuery_DNSFallback(t *testing.T) {
	dns := &fakeDNS{addrs: []netip.Addr{netip.MustParseAddr("192.0.2.10")}}
	h := newHarness(t, func(c *Config) { c.DNSProxy = true })
	h.svc.dns = dns
	ctx := context.Background()

	resp := h.svc.Query(ctx, qReq("WEB", 0x20, ipA))
	require.True(t, resp.DNSFallback)
	assert.Equal(t, types.CodeNameNotFound, resp.Code)

	var deferred *types.QueryResponse
	select {
	case deferred = <-resp.Deferred:
	case <-time.After(2 * time.Second):
		t.Fatal("deferred response not delivered")
	}
	require.NotNil(t, deferred)
	assert.Equal(t, types.CodeSuccess, deferred.Code)
	assert.Equal(t, netip.MustParseAddr("192.0.2.10"), deferred.Entries[0].IP)

	rec := h.get(t, "WEB", 0x20)
	assert.Equal(t, types.SourceDNS, rec.Source)

	// 缓存命中后不再解析
	resp = h.svc.Query(ctx, qReq("WEB", 0x20, ipA))
	assert.False(t, resp.DNSFallback)
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, 1, dns.calls)

	// 只有 <00> 和 <20> 走回退
	resp = h.svc.Query(ctx, qReq("WEB", 0x03, ipA))
	assert.False(t, resp.DNSFallback)
}

// TestQuery_DNSFallbackFailure 测试 DNS 回退失败缓存为 DnsFail
func TestQuery_DNSFallbackFailure(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.DNSProxy = true })
	h.svc.dns = &fakeDNS{err: errors.New("timeout")}
	ctx := context.Background()

	resp := h.svc.Query(ctx, qReq("MISSING", 0x00, ipA))
	require.True(t, resp.DNSFallback)
	deferred := <-resp.Deferred
	require.NotNil(t, deferred)
	assert.Equal(t, types.CodeNameNotFound, deferred.Code)

	rec := h.get(t, "MISSING", 0x00)
	assert.Equal(t, types.SourceDNSFail, rec.Source)
	assert.Equal(t, []netip.Addr{netip.IPv4Unspecified()}, rec.IPs)

	resp = h.svc.Query(ctx, qReq("MISSING", 0x00, ipA))
	assert.False(t, resp.DNSFallback)
	assert.Equal(t, types.CodeNameNotFound, resp.Code)
}

// TestQuery_DomainMastersExpired 测试已过期未清扫的 <1b> 记录不参与汇总
func TestQuery_DomainMastersExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.putRecord(t, "OLD", 0x1b, types.NBNodeH, types.LocalOwner, time.Minute,
		netip.MustParseAddr("10.1.0.1"))
	h.putRecord(t, "NEW", 0x1b, types.NBNodeH, types.LocalOwner, time.Hour,
		netip.MustParseAddr("10.1.0.2"))

	h.clk.Add(2 * time.Minute)
	resp := h.svc.Query(ctx, qReq("*", 0x1b, ipA))
	require.NotNil(t, resp)
	assert.Equal(t, types.CodeSuccess, resp.Code)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, netip.MustParseAddr("10.1.0.2"), resp.Entries[0].IP)

	h.clk.Add(time.Hour)
	resp = h.svc.Query(ctx, qReq("*", 0x1b, ipA))
	require.NotNil(t, resp)
	assert.Equal(t, types.CodeNameNotFound, resp.Code)
}

// TestQuery_DNSFallbackAfterStop 测试停止后不再发起 DNS 回退
func TestQuery_DNSFallbackAfterStop(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.DNSProxy = true })
	h.svc.dns = &fakeDNS{addrs: []netip.Addr{netip.MustParseAddr("192.0.2.10")}}
	require.NoError(t, h.svc.Start(context.Background()))
	require.NoError(t, h.svc.Stop())

	resp := h.svc.Query(context.Background(), qReq("LATE", 0x00, ipA))
	require.NotNil(t, resp)
	assert.False(t, resp.DNSFallback)
	assert.Nil(t, resp.Deferred)
	assert.Equal(t, types.CodeNameNotFound, resp.Code)
}

// TestQuery_DNSFallbackConcurrentStop 测试 DNS 回退与 Stop 并发
func TestQuery_DNSFallbackConcurrentStop(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.DNSProxy = true })
	h.svc.dns = &fakeDNS{addrs: []netip.Addr{netip.MustParseAddr("192.0.2.10")}}
	require.NoError(t, h.svc.Start(context.Background()))

	const workers = 32
	resps := make([]*types.QueryResponse, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("HOST%d", i)
			resps[i] = h.svc.Query(context.Background(), qReq(name, 0x20, ipA))
		}(i)
	}
	require.NoError(t, h.svc.Stop())
	wg.Wait()

	for i, resp := range resps {
		require.NotNil(t, resp, "query %d", i)
		if !resp.DNSFallback {
			assert.Nil(t, resp.Deferred)
			continue
		}
		// 已启动的回退在 Stop 返回前完成，通道必然已关闭
		select {
		case <-resp.Deferred:
		case <-time.After(2 * time.Second):
			t.Fatalf("deferred response %d not closed", i)
		}
	}
}
