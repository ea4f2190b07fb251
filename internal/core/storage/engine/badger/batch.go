package badger

import (
	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"github.com/dgraph-io/badger/v4"
)

// WriteBatch BadgerDB 批量写入
type WriteBatch struct {
	db    *Engine
	batch *badger.WriteBatch
	count int
	err   error
}

// Put 添加写入操作
func (b *WriteBatch) Put(key, value []byte) {
	if b.err != nil || len(key) == 0 {
		return
	}
	b.err = b.batch.Set(key, value)
	b.count++
}

// Delete 添加删除操作
func (b *WriteBatch) Delete(key []byte) {
	if b.err != nil || len(key) == 0 {
		return
	}
	b.err = b.batch.Delete(key)
	b.count++
}

// Write 提交所有操作
//
// 添加操作时的第一个错误会在这里返回，批次随后作废。
func (b *WriteBatch) Write() error {
	if b.db.closed.Load() {
		b.batch.Cancel()
		return engine.ErrClosed
	}
	if b.db.config.ReadOnly {
		b.batch.Cancel()
		return engine.ErrReadOnly
	}
	if b.err != nil {
		b.batch.Cancel()
		return convertError(b.err)
	}
	return convertError(b.batch.Flush())
}

// Size 返回已添加的操作数
func (b *WriteBatch) Size() int {
	return b.count
}

var _ engine.Batch = (*WriteBatch)(nil)
