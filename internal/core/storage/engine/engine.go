package engine

// ============================================================================
//                              存储引擎接口
// ============================================================================

// Engine 存储引擎接口
//
// 所有实现必须是并发安全的。键为空时返回 ErrEmptyKey，
// 键不存在时返回 ErrNotFound。
type Engine interface {
	// Get 获取指定键的值
	Get(key []byte) ([]byte, error)

	// Put 设置键值对
	Put(key, value []byte) error

	// Delete 删除指定键（键不存在时不报错）
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// NewBatch 创建批量写入对象
	NewBatch() Batch

	// NewPrefixIterator 创建前缀迭代器
	//
	// 迭代器持有一个只读快照，使用完毕必须 Close。
	NewPrefixIterator(prefix []byte) Iterator

	// NewTransaction 创建事务
	//
	// writable 为 false 时只能读取。
	NewTransaction(writable bool) Transaction

	// Start 启动后台任务（值日志 GC）
	Start() error

	// Sync 同步数据到磁盘
	Sync() error

	// Close 关闭引擎
	Close() error
}

// Batch 批量写入接口
//
// 批量写入不保证原子性，只用于大批量清理等场景。
type Batch interface {
	// Put 添加写入操作
	Put(key, value []byte)

	// Delete 添加删除操作
	Delete(key []byte)

	// Write 提交所有操作
	Write() error

	// Size 返回已添加的操作数
	Size() int
}

// Iterator 迭代器接口
//
// 使用方式：
//
//	it := eng.NewPrefixIterator(prefix)
//	defer it.Close()
//	for it.First(); it.Valid(); it.Next() {
//	    key, value := it.Key(), it.Value()
//	}
//	if err := it.Error(); err != nil { ... }
type Iterator interface {
	// First 移动到第一个元素
	First() bool

	// Next 移动到下一个元素
	Next() bool

	// Valid 当前位置是否有效
	Valid() bool

	// Key 返回当前键（副本）
	Key() []byte

	// Value 返回当前值（副本）
	Value() []byte

	// Close 释放迭代器
	Close()

	// Error 返回迭代过程中的错误
	Error() error
}

// Transaction 事务接口
//
// 提交时发现写冲突返回 ErrTransactionConflict，调用方可重试。
type Transaction interface {
	// Get 在事务内读取
	Get(key []byte) ([]byte, error)

	// Set 在事务内写入
	Set(key, value []byte) error

	// Delete 在事务内删除
	Delete(key []byte) error

	// Commit 提交事务
	Commit() error

	// Discard 丢弃事务（提交后调用无副作用）
	Discard()
}
