package badger

import (
	"github.com/dep2p/go-wins/internal/core/storage/engine"
	"github.com/dgraph-io/badger/v4"
)

// Transaction BadgerDB 事务
type Transaction struct {
	txn      *badger.Txn
	writable bool
	done     bool
}

// Get 在事务内读取
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, engine.ErrTransactionDiscarded
	}
	if len(key) == 0 {
		return nil, engine.ErrEmptyKey
	}

	item, err := t.txn.Get(key)
	if err != nil {
		return nil, convertError(err)
	}
	return item.ValueCopy(nil)
}

// Set 在事务内写入
func (t *Transaction) Set(key, value []byte) error {
	if err := t.checkWritable(key); err != nil {
		return err
	}
	return convertError(t.txn.Set(key, value))
}

// Delete 在事务内删除
func (t *Transaction) Delete(key []byte) error {
	if err := t.checkWritable(key); err != nil {
		return err
	}
	return convertError(t.txn.Delete(key))
}

func (t *Transaction) checkWritable(key []byte) error {
	if t.done {
		return engine.ErrTransactionDiscarded
	}
	if !t.writable {
		return engine.ErrReadOnly
	}
	if len(key) == 0 {
		return engine.ErrEmptyKey
	}
	return nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.done {
		return engine.ErrTransactionDiscarded
	}
	t.done = true
	return convertError(t.txn.Commit())
}

// Discard 丢弃事务
func (t *Transaction) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Discard()
}

var _ engine.Transaction = (*Transaction)(nil)
