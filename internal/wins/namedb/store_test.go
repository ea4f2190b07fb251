package namedb

import (
	"context"
	"net/netip"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"github.com/dep2p/go-wins/internal/core/storage/engine/badger"
	"github.com/dep2p/go-wins/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEngine 创建测试用引擎
// 使用 t.TempDir() 创建临时目录，确保测试与生产一致
func testEngine(t *testing.T) engine.Engine {
	t.Helper()

	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "wins.db"))
	cfg.GCInterval = 0
	eng, err := badger.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(testEngine(t), 128)
	require.NoError(t, err)
	return s
}

func recordFor(name string, typ types.NameType, ips ...string) *types.NameRecord {
	rec := &types.NameRecord{
		Key:         types.MustKey(name, typ),
		Source:      types.SourceRegister,
		DeathTime:   time.Unix(1_700_100_000, 0),
		RefreshTime: time.Unix(1_700_000_000, 0),
		Owner:       types.LocalOwner,
	}
	for _, ip := range ips {
		rec.IPs = append(rec.IPs, netip.MustParseAddr(ip))
	}
	rec.SetState(types.StateActive)
	return rec
}

// TestStore_PutGetDelete 测试基本读写
func TestStore_PutGetDelete(t *testing.T) {
	s := testStore(t)
	rec := recordFor("FOO", 0x00, "10.0.0.1")

	_, err := s.Get(rec.Key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(rec))
	got, err := s.Get(rec.Key)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// 修改返回的副本不影响缓存
	got.IPs[0] = netip.MustParseAddr("10.9.9.9")
	again, err := s.Get(rec.Key)
	require.NoError(t, err)
	assert.Equal(t, rec.IPs, again.IPs)

	require.NoError(t, s.Delete(rec.Key))
	_, err = s.Get(rec.Key)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestStore_ReadThrough 测试缓存清空后从存储读取
func TestStore_ReadThrough(t *testing.T) {
	s := testStore(t)
	rec := recordFor("FOO", 0x00, "10.0.0.1")
	require.NoError(t, s.Put(rec))

	s.Index().Reset()
	assert.Equal(t, 0, s.Index().Len())

	got, err := s.Get(rec.Key)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, 1, s.Index().Len())
}

// TestStore_VersionMonotonic 测试版本号单调递增且持久化
func TestStore_VersionMonotonic(t *testing.T) {
	eng := testEngine(t)
	s, err := NewStore(eng, 16)
	require.NoError(t, err)

	a := recordFor("A", 0x00, "10.0.0.1")
	b := recordFor("B", 0x00, "10.0.0.2")
	require.NoError(t, s.PutWithNewVersion(a))
	require.NoError(t, s.PutWithNewVersion(b))
	require.NoError(t, s.PutWithNewVersion(a))
	assert.Equal(t, uint64(3), a.Version)
	assert.Equal(t, uint64(2), b.Version)

	// 重新打开后计数器延续
	s2, err := NewStore(eng, 16)
	require.NoError(t, err)
	c := recordFor("C", 0x00, "10.0.0.3")
	require.NoError(t, s2.PutWithNewVersion(c))
	assert.Equal(t, uint64(4), c.Version)

	v, err := s2.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v)
}

// TestStore_VersionConcurrent 测试并发分配的版本号不重复
func TestStore_VersionConcurrent(t *testing.T) {
	s := testStore(t)

	const n = 20
	versions := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := recordFor("N"+string(rune('A'+i)), 0x00, "10.0.0.1")
			if err := s.PutWithNewVersion(rec); err == nil {
				versions <- rec.Version
			}
		}(i)
	}
	wg.Wait()
	close(versions)

	seen := make(map[uint64]bool)
	for v := range versions {
		assert.False(t, seen[v], "duplicate version %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

// TestStore_InvalidRecordNotCached 测试写入失败不更新缓存
func TestStore_InvalidRecordNotCached(t *testing.T) {
	s := testStore(t)
	rec := recordFor("FOO", 0x00, "10.0.0.1")
	require.NoError(t, s.Put(rec))

	bad := rec.Clone()
	bad.IPs = nil
	assert.Error(t, s.Put(bad))
	assert.Error(t, s.PutWithNewVersion(bad))
	assert.Equal(t, uint64(0), bad.Version)

	got, err := s.Get(rec.Key)
	require.NoError(t, err)
	assert.Equal(t, rec.IPs, got.IPs)
}

// TestStore_ByType 测试按类型枚举
func TestStore_ByType(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(recordFor("DOM1", types.TypeDomainMaster, "10.0.0.1")))
	require.NoError(t, s.Put(recordFor("DOM2", types.TypeDomainMaster, "10.0.0.2")))
	require.NoError(t, s.Put(recordFor("HOST", types.TypeWorkstation, "10.0.0.3")))

	recs, err := s.ByType(types.TypeDomainMaster)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, ready := s.Index().KeysOfType(types.TypeDomainMaster)
	assert.True(t, ready)

	// 索引构建后写入和删除保持同步
	require.NoError(t, s.Put(recordFor("DOM3", types.TypeDomainMaster, "10.0.0.4")))
	require.NoError(t, s.Delete(types.MustKey("DOM1", types.TypeDomainMaster)))
	recs, err = s.ByType(types.TypeDomainMaster)
	require.NoError(t, err)
	names := []string{}
	for _, r := range recs {
		names = append(names, r.Key.Name())
	}
	assert.ElementsMatch(t, []string{"DOM2", "DOM3"}, names)

	// 整体丢弃后重建结果一致
	s.Index().Reset()
	recs, err = s.ByType(types.TypeDomainMaster)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

// TestStore_ForEachAndClear 测试遍历与清空
func TestStore_ForEachAndClear(t *testing.T) {
	s := testStore(t)
	for _, n := range []string{"A", "B", "C"} {
		require.NoError(t, s.PutWithNewVersion(recordFor(n, 0x20, "10.0.0.1")))
	}

	var seen []string
	require.NoError(t, s.ForEach(context.Background(), func(rec *types.NameRecord) bool {
		seen = append(seen, rec.Key.Name())
		return true
	}))
	assert.Equal(t, []string{"A", "B", "C"}, seen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.ForEach(ctx, func(*types.NameRecord) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)

	n, err := s.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	v, err := s.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

// TestStore_FormatVersion 测试格式版本检查
func TestStore_FormatVersion(t *testing.T) {
	eng := testEngine(t)
	require.NoError(t, eng.Put([]byte("meta/dbversion"), []byte{0, 0, 0, 0, 0, 0, 0, 9}))

	_, err := NewStore(eng, 16)
	assert.ErrorIs(t, err, ErrIncompatibleDB)
}

// TestStore_ForEachSkipsCorrupt 测试遍历跳过损坏记录
func TestStore_ForEachSkipsCorrupt(t *testing.T) {
	eng := testEngine(t)
	s, err := NewStore(eng, 16)
	require.NoError(t, err)

	good := recordFor("GOOD", 0x00, "10.0.0.1")
	require.NoError(t, s.Put(good))
	badKey := types.MustKey("BAD", 0x00)
	require.NoError(t, eng.Put(append([]byte("n/"), badKey.Bytes()...), []byte{1, 2, 3}))

	count := 0
	require.NoError(t, s.ForEach(context.Background(), func(*types.NameRecord) bool {
		count++
		return true
	}))
	assert.Equal(t, 1, count)

	_, err = s.Get(badKey)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
