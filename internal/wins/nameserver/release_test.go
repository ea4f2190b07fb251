package nameserver

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wins/pkg/types"
)

// TestRelease_Unique 测试唯一名称释放
func TestRelease_Unique(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	final(t, h.svc.Register(ctx, regReq("FOO", 0x00, ipA, 0)))
	before := h.get(t, "FOO", 0x00)

	resp := h.svc.Release(ctx, relReq("FOO", 0x00, ipA, 0))
	require.NotNil(t, resp)
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, types.EncodeRData(0, ipA), resp.RData)

	rec := h.get(t, "FOO", 0x00)
	assert.Equal(t, types.StateReleased, rec.State())
	assert.Equal(t, h.clk.Now().Add(4*24*time.Hour), rec.DeathTime)
	assert.Equal(t, before.Version, rec.Version)
	assert.Equal(t, []types.ChangeOp{types.OpAdd, types.OpDelete}, h.events.ops())

	// 已释放的名称不能再次释放
	assert.Equal(t, types.CodeNameNotFound, h.svc.Release(ctx, relReq("FOO", 0x00, ipA, 0)).Code)
}

// TestRelease_ForeignIP 测试非成员地址释放被拒绝
func TestRelease_ForeignIP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	final(t, h.svc.Register(ctx, regReq("FOO", 0x00, ipA, 0)))
	before := h.get(t, "FOO", 0x00)

	resp := h.svc.Release(ctx, relReq("FOO", 0x00, ipB, 0))
	assert.Equal(t, types.CodeNameNotFound, resp.Code)
	assert.Equal(t, before, h.get(t, "FOO", 0x00))
}

// TestRelease_DomainGroupPartial 测试 <1c> 组名称只移除请求方地址
func TestRelease_DomainGroupPartial(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	final(t, h.svc.Register(ctx, regReq("DOMAIN", 0x1c, ipA, types.NBGroup)))
	final(t, h.svc.Register(ctx, regReq("DOMAIN", 0x1c, ipB, types.NBGroup)))

	resp := h.svc.Release(ctx, relReq("DOMAIN", 0x1c, ipA, types.NBGroup))
	assert.Equal(t, types.CodeSuccess, resp.Code)

	rec := h.get(t, "DOMAIN", 0x1c)
	assert.True(t, rec.IsActive())
	assert.Equal(t, []netip.Addr{ipB}, rec.IPs)

	// 最后一个成员释放整个名称
	resp = h.svc.Release(ctx, relReq("DOMAIN", 0x1c, ipB, types.NBGroup))
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, types.StateReleased, h.get(t, "DOMAIN", 0x1c).State())
}

// TestRelease_NoMutation 测试直接成功且不修改记录的情况
func TestRelease_NoMutation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	final(t, h.svc.Register(ctx, regReq("WORKGROUP", 0x00, ipA, types.NBGroup)))
	before := h.get(t, "WORKGROUP", 0x00)

	assert.Equal(t, types.CodeSuccess, h.svc.Release(ctx, relReq("WORKGROUP", 0x00, ipC, types.NBGroup)).Code)
	assert.Equal(t, before, h.get(t, "WORKGROUP", 0x00))

	assert.Equal(t, types.CodeSuccess, h.svc.Release(ctx, relReq("ELECTION", types.TypeBrowser, ipC, 0)).Code)
	assert.Equal(t, 1, h.count(t))
}

// TestRelease_Rejected 测试不满足条件的释放
func TestRelease_Rejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SeedSelfNames(ctx))

	assert.Equal(t, types.CodeNameNotFound, h.svc.Release(ctx, relReq("NOPE", 0x00, ipA, 0)).Code)
	assert.Equal(t, types.CodeNameNotFound, h.svc.Release(ctx, relReq("WINSSRV", 0x20, ipServer, 0)).Code)
	assert.True(t, h.get(t, "WINSSRV", 0x20).IsActive())

	req := relReq("WINSSRV", 0x20, ipServer, 0)
	req.Broadcast = true
	assert.Nil(t, h.svc.Release(ctx, req))
}
