package namedb

import (
	"sync"

	"github.com/dep2p/go-wins/pkg/types"
)

// KeyLock 按名称键串行化的锁表
//
// 条目按引用计数回收，锁表大小与正在处理的键数成正比。
type KeyLock struct {
	mu    sync.Mutex
	locks map[types.Key]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock 创建锁表
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[types.Key]*keyLockEntry)}
}

// Lock 锁定键，返回解锁函数
func (l *KeyLock) Lock(key types.Key) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &keyLockEntry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len 返回当前持有或等待中的键数
func (l *KeyLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
