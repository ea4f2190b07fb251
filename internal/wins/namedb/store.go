package namedb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"github.com/dep2p/go-wins/internal/core/storage/kv"
	"github.com/dep2p/go-wins/pkg/lib/log"
	"github.com/dep2p/go-wins/pkg/types"
)

var logger = log.Logger("wins/namedb")

// 键空间
var (
	recordPrefix = []byte("n/")
	metaPrefix   = []byte("meta/")

	versionKey   = []byte("version")
	dbVersionKey = []byte("dbversion")
)

// DBVersion 当前数据库格式版本
const DBVersion uint64 = 1

// Store 名称记录存储
//
// 持有记录键空间、全局版本计数器和内存索引。Store 本身不做键级串行化，
// 调用方在修改记录前先通过 Locks() 锁定对应的键。
type Store struct {
	records *kv.Store
	meta    *kv.Store
	index   *Index
	locks   *KeyLock

	// versionMu 串行化版本分配，避免计数器上的事务冲突
	versionMu sync.Mutex
}

// NewStore 在引擎上打开名称记录存储
//
// 首次打开时写入格式版本；格式版本不一致时返回 ErrIncompatibleDB。
func NewStore(eng engine.Engine, cacheSize int) (*Store, error) {
	index, err := NewIndex(cacheSize)
	if err != nil {
		return nil, err
	}

	s := &Store{
		records: kv.New(eng, recordPrefix),
		meta:    kv.New(eng, metaPrefix),
		index:   index,
		locks:   NewKeyLock(),
	}
	if err := s.checkFormat(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) checkFormat() error {
	return s.meta.Update(func(txn *kv.Transaction) error {
		v, err := txn.GetUint64(dbVersionKey)
		if err != nil {
			return err
		}
		switch v {
		case 0:
			return txn.SetUint64(dbVersionKey, DBVersion)
		case DBVersion:
			return nil
		default:
			return fmt.Errorf("%w: found %d, want %d", ErrIncompatibleDB, v, DBVersion)
		}
	})
}

// Locks 返回键锁表
func (s *Store) Locks() *KeyLock {
	return s.locks
}

// Index 返回内存索引
func (s *Store) Index() *Index {
	return s.index
}

// ============================================================================
//                              读取
// ============================================================================

// Get 读取记录副本，先查缓存再查存储
func (s *Store) Get(key types.Key) (*types.NameRecord, error) {
	if rec, ok := s.index.Get(key); ok {
		return rec, nil
	}

	gen := s.index.generation()
	data, err := s.records.Get(key.Bytes())
	if engine.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("namedb: get %s: %w", key, err)
	}

	rec, err := DecodeRecord(key, data)
	if err != nil {
		return nil, err
	}
	s.index.fill(rec, gen)
	return rec, nil
}

// ForEach 遍历存储中的全部记录
//
// 直接读取存储快照，不经过缓存；无法解码的记录记警告后跳过。
// fn 返回 false 时停止。供导出器和清扫器使用。
func (s *Store) ForEach(ctx context.Context, fn func(rec *types.NameRecord) bool) error {
	var cbErr error
	err := s.records.PrefixScan(nil, func(k, v []byte) bool {
		if err := ctx.Err(); err != nil {
			cbErr = err
			return false
		}
		key, err := types.KeyFromBytes(k)
		if err != nil {
			logger.Warn("跳过无效的记录键", "key", fmt.Sprintf("%x", k))
			return true
		}
		rec, err := DecodeRecord(key, v)
		if err != nil {
			logger.Warn("跳过无法解码的记录", "name", key, "error", err)
			return true
		}
		return fn(rec)
	})
	if err != nil {
		return err
	}
	return cbErr
}

// Keys 返回存储中全部记录键
func (s *Store) Keys() ([]types.Key, error) {
	raw, err := s.records.Keys(nil)
	if err != nil {
		return nil, err
	}
	keys := make([]types.Key, 0, len(raw))
	for _, k := range raw {
		key, err := types.KeyFromBytes(k)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ByType 返回某名称类型的全部记录
//
// 优先使用类型索引；索引未构建时扫描存储并尝试安装索引。
func (s *Store) ByType(t types.NameType) ([]*types.NameRecord, error) {
	keys, ok := s.index.KeysOfType(t)
	if !ok {
		gen := s.index.generation()
		all, err := s.Keys()
		if err != nil {
			return nil, err
		}
		if s.index.loadTypes(all, gen) {
			logger.Debug("类型索引已重建", "keys", len(all))
		}
		keys = keys[:0]
		for _, k := range all {
			if k.Type == t {
				keys = append(keys, k)
			}
		}
	}

	recs := make([]*types.NameRecord, 0, len(keys))
	for _, k := range keys {
		rec, err := s.Get(k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ============================================================================
//                              写入
// ============================================================================

// Put 持久化记录（版本号不变），成功后更新缓存
func (s *Store) Put(rec *types.NameRecord) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.records.Put(rec.Key.Bytes(), data); err != nil {
		s.index.Invalidate(rec.Key)
		return fmt.Errorf("namedb: put %s: %w", rec.Key, err)
	}
	s.index.Put(rec)
	return nil
}

// PutWithNewVersion 分配新版本号并持久化记录
//
// 版本计数器与记录在同一事务中提交；失败时 rec.Version 保持原值。
func (s *Store) PutWithNewVersion(rec *types.NameRecord) error {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()

	candidate := rec.Clone()
	err := s.records.Update(func(txn *kv.Transaction) error {
		meta := txn.Sub(s.meta)
		current, err := meta.GetUint64(versionKey)
		if err != nil {
			return err
		}
		candidate.Version = current + 1
		data, err := EncodeRecord(candidate)
		if err != nil {
			return err
		}
		if err := meta.SetUint64(versionKey, candidate.Version); err != nil {
			return err
		}
		return txn.Set(rec.Key.Bytes(), data)
	})
	if err != nil {
		s.index.Invalidate(rec.Key)
		return fmt.Errorf("namedb: put %s: %w", rec.Key, err)
	}

	rec.Version = candidate.Version
	s.index.Put(rec)
	return nil
}

// Delete 删除记录
func (s *Store) Delete(key types.Key) error {
	if err := s.records.Delete(key.Bytes()); err != nil {
		s.index.Invalidate(key)
		return fmt.Errorf("namedb: delete %s: %w", key, err)
	}
	s.index.Remove(key)
	return nil
}

// CurrentVersion 返回最近分配的版本号
func (s *Store) CurrentVersion() (uint64, error) {
	var v uint64
	err := s.meta.Update(func(txn *kv.Transaction) error {
		var err error
		v, err = txn.GetUint64(versionKey)
		return err
	})
	return v, err
}

// Clear 删除全部记录（版本计数器保留），返回删除数量
func (s *Store) Clear() (int, error) {
	n, err := s.records.DeletePrefix(nil)
	s.index.Reset()
	if err != nil {
		return 0, fmt.Errorf("namedb: clear: %w", err)
	}
	return n, nil
}
