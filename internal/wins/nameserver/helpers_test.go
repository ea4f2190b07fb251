package nameserver

import (
	"context"
	"net/netip"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"github.com/dep2p/go-wins/internal/core/storage/engine/badger"
	"github.com/dep2p/go-wins/internal/wins/namedb"
	"github.com/dep2p/go-wins/pkg/types"
)

var (
	ipA      = netip.MustParseAddr("10.0.0.1")
	ipB      = netip.MustParseAddr("10.0.0.2")
	ipC      = netip.MustParseAddr("10.0.0.3")
	ipServer = netip.MustParseAddr("10.0.0.250")
	ipRemote = netip.MustParseAddr("10.9.9.9")
)

// directedQuery 一次定向查询
type directedQuery struct {
	id    uuid.UUID
	owner netip.Addr
	key   types.Key
}

// fakeProber 记录定向查询
type fakeProber struct {
	sent chan directedQuery
	err  error
}

func newFakeProber() *fakeProber {
	return &fakeProber{sent: make(chan directedQuery, 16)}
}

func (p *fakeProber) SendDirectedQuery(_ context.Context, id uuid.UUID, owner netip.Addr, key types.Key) error {
	p.sent <- directedQuery{id: id, owner: owner, key: key}
	return p.err
}

func (p *fakeProber) next(t *testing.T) directedQuery {
	t.Helper()
	select {
	case pr := <-p.sent:
		return pr
	case <-time.After(2 * time.Second):
		t.Fatal("no directed query sent")
		return directedQuery{}
	}
}

// recorder 记录变更通知
type recorder struct {
	mu     sync.Mutex
	events []types.EvtNameChanged
}

func (r *recorder) Notify(_ context.Context, evt types.EvtNameChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) ops() []types.ChangeOp {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]types.ChangeOp, 0, len(r.events))
	for _, e := range r.events {
		ops = append(ops, e.Op)
	}
	return ops
}

// fakeDNS 固定结果的 DNS 回退
type fakeDNS struct {
	addrs []netip.Addr
	err   error

	mu    sync.Mutex
	calls int
}

func (d *fakeDNS) Lookup(_ context.Context, _ types.Key) ([]netip.Addr, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.addrs, d.err
}

// harness 测试环境
type harness struct {
	svc    *Service
	clk    *clock.Mock
	store  *namedb.Store
	prober *fakeProber
	events *recorder
}

func testStore(t *testing.T) *namedb.Store {
	t.Helper()

	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "wins.db"))
	cfg.GCInterval = 0
	eng, err := badger.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	store, err := namedb.NewStore(eng, 128)
	require.NoError(t, err)
	return store
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Names = []string{"WINSSRV"}
	cfg.Addrs = []netip.Addr{ipServer}
	for _, fn := range mutate {
		fn(&cfg)
	}

	clk := clock.NewMock()
	clk.Set(time.Unix(1_700_000_000, 0))

	h := &harness{
		clk:    clk,
		store:  testStore(t),
		prober: newFakeProber(),
		events: &recorder{},
	}
	h.svc = New(cfg, h.store,
		WithClock(clk),
		WithProber(h.prober),
		WithNotifier(h.events),
	)
	t.Cleanup(func() { _ = h.svc.Stop() })
	return h
}

func regReq(name string, typ types.NameType, ip netip.Addr, flags types.NBFlags) *types.RegisterRequest {
	return &types.RegisterRequest{
		Key:         types.MustKey(name, typ),
		RequesterIP: ip,
		NBFlags:     flags,
		TTL:         uint32((24 * time.Hour) / time.Second),
	}
}

func relReq(name string, typ types.NameType, ip netip.Addr, flags types.NBFlags) *types.ReleaseRequest {
	return &types.ReleaseRequest{
		Key:         types.MustKey(name, typ),
		RequesterIP: ip,
		NBFlags:     flags,
	}
}

// final 断言应答为最终应答并返回
func final(t *testing.T, resp types.Response) *types.RegistrationResponse {
	t.Helper()
	r, ok := resp.(*types.RegistrationResponse)
	require.True(t, ok, "expected final response, got %T", resp)
	return r
}

// wack 断言应答为 WACK 并返回
func wack(t *testing.T, resp types.Response) *types.WACKResponse {
	t.Helper()
	w, ok := resp.(*types.WACKResponse)
	require.True(t, ok, "expected wack, got %T", resp)
	return w
}

// await 等待质询的最终应答
func await(t *testing.T, w *types.WACKResponse) *types.RegistrationResponse {
	t.Helper()
	select {
	case resp := <-w.Final:
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("challenge not resolved")
		return nil
	}
}

func (h *harness) get(t *testing.T, name string, typ types.NameType) *types.NameRecord {
	t.Helper()
	rec, err := h.store.Get(types.MustKey(name, typ))
	require.NoError(t, err)
	return rec
}

func (h *harness) count(t *testing.T) int {
	t.Helper()
	keys, err := h.store.Keys()
	require.NoError(t, err)
	return len(keys)
}

// putRecord 直接写入一条 Active 记录
func (h *harness) putRecord(t *testing.T, name string, typ types.NameType, flags types.NBFlags, owner netip.Addr, ttl time.Duration, ips ...netip.Addr) *types.NameRecord {
	t.Helper()
	rec := &types.NameRecord{
		Key:     types.MustKey(name, typ),
		NBFlags: flags,
		Source:  types.SourceRegister,
		Owner:   owner,
		IPs:     ips,
	}
	rec.SetTTL(h.clk.Now(), ttl)
	rec.SetState(types.StateActive)
	require.NoError(t, h.store.PutWithNewVersion(rec))
	return rec
}
