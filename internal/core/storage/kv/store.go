package kv

import (
	"encoding/binary"
	"errors"

	"github.com/dep2p/go-wins/internal/core/storage/engine"
)

// maxUpdateRetries 事务冲突时的最大重试次数
const maxUpdateRetries = 8

// ErrTooManyConflicts 事务冲突重试耗尽
var ErrTooManyConflicts = errors.New("kv: too many transaction conflicts")

// Store 带前缀的键值存储
type Store struct {
	engine engine.Engine
	prefix []byte
}

// New 创建带前缀的 Store
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{
		engine: eng,
		prefix: append([]byte(nil), prefix...),
	}
}

func (s *Store) prefixKey(key []byte) []byte {
	prefixed := make([]byte, len(s.prefix)+len(key))
	copy(prefixed, s.prefix)
	copy(prefixed[len(s.prefix):], key)
	return prefixed
}

func (s *Store) stripPrefix(key []byte) []byte {
	if len(key) < len(s.prefix) {
		return key
	}
	return key[len(s.prefix):]
}

// ============================================================================
//                              基础操作
// ============================================================================

// Get 获取值
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.prefixKey(key))
}

// Put 写入值
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.prefixKey(key), value)
}

// Delete 删除键
func (s *Store) Delete(key []byte) error {
	return s.engine.Delete(s.prefixKey(key))
}

// Has 检查键是否存在
func (s *Store) Has(key []byte) (bool, error) {
	return s.engine.Has(s.prefixKey(key))
}

// ============================================================================
//                              扫描
// ============================================================================

// PrefixScan 按子前缀扫描
//
// fn 收到的 key 已去掉 Store 前缀；返回 false 停止扫描。
// 扫描在一个只读快照上进行，期间的写入不可见。
func (s *Store) PrefixScan(subPrefix []byte, fn func(key, value []byte) bool) error {
	iter := s.engine.NewPrefixIterator(s.prefixKey(subPrefix))
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !fn(s.stripPrefix(iter.Key()), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Keys 返回子前缀下的所有键
func (s *Store) Keys(subPrefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.PrefixScan(subPrefix, func(key, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys, err
}

// DeletePrefix 删除子前缀下的所有键，返回删除数量
func (s *Store) DeletePrefix(subPrefix []byte) (int, error) {
	keys, err := s.Keys(subPrefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	batch := s.engine.NewBatch()
	for _, key := range keys {
		batch.Delete(s.prefixKey(key))
	}
	return batch.Size(), batch.Write()
}

// ============================================================================
//                              事务
// ============================================================================

// Transaction 带前缀的事务
type Transaction struct {
	store *Store
	txn   engine.Transaction
}

// Get 在事务内读取
func (t *Transaction) Get(key []byte) ([]byte, error) {
	return t.txn.Get(t.store.prefixKey(key))
}

// Set 在事务内写入
func (t *Transaction) Set(key, value []byte) error {
	return t.txn.Set(t.store.prefixKey(key), value)
}

// Delete 在事务内删除
func (t *Transaction) Delete(key []byte) error {
	return t.txn.Delete(t.store.prefixKey(key))
}

// GetUint64 在事务内读取大端 uint64，键不存在时返回 0
func (t *Transaction) GetUint64(key []byte) (uint64, error) {
	data, err := t.Get(key)
	if engine.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, engine.ErrCorrupted
	}
	return binary.BigEndian.Uint64(data), nil
}

// SetUint64 在事务内写入大端 uint64
func (t *Transaction) SetUint64(key []byte, value uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, value)
	return t.Set(key, data)
}

// Sub 返回共享同一事务、使用另一前缀的视图
//
// 用于在一次提交里同时修改多个键空间（如记录和版本计数器）。
func (t *Transaction) Sub(other *Store) *Transaction {
	return &Transaction{store: other, txn: t.txn}
}

// Update 在读写事务中执行 fn 并提交
//
// 提交冲突时整体重试，fn 必须可重复执行。
func (s *Store) Update(fn func(txn *Transaction) error) error {
	for i := 0; i < maxUpdateRetries; i++ {
		txn := &Transaction{store: s, txn: s.engine.NewTransaction(true)}
		if err := fn(txn); err != nil {
			txn.txn.Discard()
			return err
		}
		err := txn.txn.Commit()
		if err == nil {
			return nil
		}
		if !engine.IsConflict(err) {
			return err
		}
	}
	return ErrTooManyConflicts
}
