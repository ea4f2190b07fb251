package kv

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"github.com/dep2p/go-wins/internal/core/storage/engine/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEngine 创建测试用引擎
// 使用 t.TempDir() 创建临时目录，确保测试与生产一致
func testEngine(t *testing.T) engine.Engine {
	t.Helper()

	cfg := engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	cfg.GCInterval = 0
	eng, err := badger.New(cfg)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Errorf("failed to close engine: %v", err)
		}
	})
	return eng
}

func TestStore_PutGetDelete(t *testing.T) {
	s := New(testEngine(t), []byte("n/"))

	require.NoError(t, s.Put([]byte("FOO"), []byte("v1")))

	got, err := s.Get([]byte("FOO"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	ok, err := s.Has([]byte("FOO"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete([]byte("FOO")))
	_, err = s.Get([]byte("FOO"))
	assert.True(t, engine.IsNotFound(err))
}

// TestStore_PrefixIsolation 测试前缀隔离
func TestStore_PrefixIsolation(t *testing.T) {
	eng := testEngine(t)
	records := New(eng, []byte("n/"))
	meta := New(eng, []byte("meta/"))

	require.NoError(t, records.Put([]byte("a"), []byte("1")))
	require.NoError(t, records.Put([]byte("b"), []byte("2")))
	require.NoError(t, meta.Put([]byte("a"), []byte("x")))

	var keys []string
	err := records.PrefixScan(nil, func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	n, err := records.DeletePrefix(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := records.Keys(nil)
	require.NoError(t, err)
	assert.Empty(t, left)

	v, err := meta.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), v)
}

// TestStore_PrefixScanStop 测试回调返回 false 时停止
func TestStore_PrefixScanStop(t *testing.T) {
	s := New(testEngine(t), []byte("n/"))
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put([]byte(k), []byte(k)))
	}

	count := 0
	require.NoError(t, s.PrefixScan(nil, func(_, _ []byte) bool {
		count++
		return count < 2
	}))
	assert.Equal(t, 2, count)
}

// TestStore_UpdateAcrossPrefixes 测试一次事务同时写两个键空间
func TestStore_UpdateAcrossPrefixes(t *testing.T) {
	eng := testEngine(t)
	records := New(eng, []byte("n/"))
	meta := New(eng, []byte("meta/"))

	for i := 1; i <= 3; i++ {
		err := records.Update(func(txn *Transaction) error {
			m := txn.Sub(meta)
			v, err := m.GetUint64([]byte("version"))
			if err != nil {
				return err
			}
			if err := m.SetUint64([]byte("version"), v+1); err != nil {
				return err
			}
			return txn.Set([]byte("rec"), []byte{byte(v + 1)})
		})
		require.NoError(t, err)
	}

	got, err := records.Get([]byte("rec"))
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, got)

	err = meta.Update(func(txn *Transaction) error {
		v, err := txn.GetUint64([]byte("version"))
		assert.Equal(t, uint64(3), v)
		return err
	})
	require.NoError(t, err)
}

// TestStore_UpdateAbort 测试 fn 出错时不提交
func TestStore_UpdateAbort(t *testing.T) {
	s := New(testEngine(t), []byte("n/"))
	boom := errors.New("boom")

	err := s.Update(func(txn *Transaction) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestTransaction_CorruptedCounter 测试计数器长度错误
func TestTransaction_CorruptedCounter(t *testing.T) {
	s := New(testEngine(t), []byte("meta/"))
	require.NoError(t, s.Put([]byte("version"), []byte{1, 2, 3}))

	err := s.Update(func(txn *Transaction) error {
		_, err := txn.GetUint64([]byte("version"))
		return err
	})
	assert.ErrorIs(t, err, engine.ErrCorrupted)
}
