package nameserver

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-wins/pkg/types"
)

// TestRefresh_AbsentRegisters 测试刷新不存在的名称按注册处理
func TestRefresh_AbsentRegisters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := final(t, h.svc.Refresh(ctx, regReq("FOO", 0x00, ipA, 0)))
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, []netip.Addr{ipA}, h.get(t, "FOO", 0x00).IPs)
	assert.Equal(t, []types.ChangeOp{types.OpAdd}, h.events.ops())
}

// TestRefresh_Unique 测试唯一名称刷新
func TestRefresh_Unique(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	final(t, h.svc.Register(ctx, regReq("FOO", 0x00, ipA, 0)))

	h.clk.Add(2 * time.Hour)
	resp := final(t, h.svc.Refresh(ctx, regReq("FOO", 0x00, ipA, 0)))
	assert.Equal(t, types.CodeSuccess, resp.Code)

	rec := h.get(t, "FOO", 0x00)
	assert.Equal(t, h.clk.Now().Add(24*time.Hour), rec.DeathTime)
	assert.Equal(t, uint64(1), rec.Version)

	// 地址不属于该名称
	resp = final(t, h.svc.Refresh(ctx, regReq("FOO", 0x00, ipB, 0)))
	assert.Equal(t, types.CodeActive, resp.Code)

	// 组标志不一致
	resp = final(t, h.svc.Refresh(ctx, regReq("FOO", 0x00, ipA, types.NBGroup)))
	assert.Equal(t, types.CodeActive, resp.Code)
}

// TestRefresh_ReplicaTakeover 测试刷新副本记录时接管所有权并更新版本
func TestRefresh_ReplicaTakeover(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	old := h.putRecord(t, "FOO", 0x00, 0, ipRemote, time.Hour, ipA)

	resp := final(t, h.svc.Refresh(ctx, regReq("FOO", 0x00, ipA, 0)))
	assert.Equal(t, types.CodeSuccess, resp.Code)

	rec := h.get(t, "FOO", 0x00)
	assert.True(t, rec.IsLocal())
	assert.Equal(t, old.Version+1, rec.Version)
}

// TestRefresh_Groups 测试组名称刷新
func TestRefresh_Groups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// <1c> 组名称来自新地址时按注册追加
	final(t, h.svc.Register(ctx, regReq("DOMAIN", 0x1c, ipA, types.NBGroup)))
	resp := final(t, h.svc.Refresh(ctx, regReq("DOMAIN", 0x1c, ipB, types.NBGroup)))
	assert.Equal(t, types.CodeSuccess, resp.Code)
	assert.Equal(t, []netip.Addr{ipA, ipB}, h.get(t, "DOMAIN", 0x1c).IPs)

	// 普通组名称只刷新 TTL
	final(t, h.svc.Register(ctx, regReq("WORKGROUP", 0x00, ipA, types.NBGroup)))
	h.clk.Add(time.Hour)
	resp = final(t, h.svc.Refresh(ctx, regReq("WORKGROUP", 0x00, ipC, types.NBGroup)))
	assert.Equal(t, types.CodeSuccess, resp.Code)

	rec := h.get(t, "WORKGROUP", 0x00)
	assert.Equal(t, []netip.Addr{types.BroadcastAddr}, rec.IPs)
	assert.Equal(t, h.clk.Now().Add(24*time.Hour), rec.DeathTime)
}

// TestRefresh_InactiveRegisters 测试刷新已释放名称按注册处理
func TestRefresh_InactiveRegisters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	final(t, h.svc.Register(ctx, regReq("FOO", 0x00, ipA, 0)))
	h.svc.Release(ctx, relReq("FOO", 0x00, ipA, 0))

	resp := final(t, h.svc.Refresh(ctx, regReq("FOO", 0x00, ipB, 0)))
	assert.Equal(t, types.CodeSuccess, resp.Code)

	rec := h.get(t, "FOO", 0x00)
	assert.True(t, rec.IsActive())
	assert.Equal(t, []netip.Addr{ipB}, rec.IPs)
}
