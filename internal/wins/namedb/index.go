package namedb

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dep2p/go-wins/pkg/types"
)

// Index 名称记录的内存读缓存
//
// 包含两部分：
//   - 记录缓存：LRU，按键缓存最近读取或写入的记录
//   - 类型索引：名称类型到键集合的映射，用于 *<1b> 这类按类型枚举
//
// 类型索引按需从 Store 整体构建；任何一次写入失败都会让它失效，
// 下次枚举时重建。缓存中的记录都是副本，调用方拿到的也是副本。
type Index struct {
	mu    sync.Mutex
	cache *lru.Cache[types.Key, *types.NameRecord]

	byType    map[types.NameType]map[types.Key]struct{}
	typeReady bool

	// gen 每次变更递增，用于丢弃与并发写入交错的重建结果
	gen uint64
}

// NewIndex 创建缓存
func NewIndex(size int) (*Index, error) {
	cache, err := lru.New[types.Key, *types.NameRecord](size)
	if err != nil {
		return nil, err
	}
	return &Index{cache: cache}, nil
}

// Get 读取缓存的记录副本
func (x *Index) Get(key types.Key) (*types.NameRecord, bool) {
	rec, ok := x.cache.Get(key)
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Put 缓存已持久化的记录
func (x *Index) Put(rec *types.NameRecord) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.gen++
	x.cache.Add(rec.Key, rec.Clone())
	if x.typeReady {
		set, ok := x.byType[rec.Key.Type]
		if !ok {
			set = make(map[types.Key]struct{})
			x.byType[rec.Key.Type] = set
		}
		set[rec.Key] = struct{}{}
	}
}

// fill 读穿透时回填缓存
//
// 读取存储期间有过任何变更时放弃回填，避免旧值覆盖新值。
func (x *Index) fill(rec *types.NameRecord, gen uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.gen == gen {
		x.cache.Add(rec.Key, rec.Clone())
	}
}

// Remove 移除已从存储删除的记录
func (x *Index) Remove(key types.Key) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.gen++
	x.cache.Remove(key)
	if x.typeReady {
		delete(x.byType[key.Type], key)
	}
}

// Invalidate 存储状态未知时丢弃该键的缓存和整个类型索引
func (x *Index) Invalidate(key types.Key) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.gen++
	x.cache.Remove(key)
	x.byType = nil
	x.typeReady = false
}

// Reset 清空全部缓存
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.gen++
	x.cache.Purge()
	x.byType = nil
	x.typeReady = false
}

// KeysOfType 返回某类型的全部键；类型索引未构建时 ok 为 false
func (x *Index) KeysOfType(t types.NameType) (keys []types.Key, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.typeReady {
		return nil, false
	}
	for k := range x.byType[t] {
		keys = append(keys, k)
	}
	return keys, true
}

// generation 返回当前变更代数
func (x *Index) generation() uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.gen
}

// loadTypes 安装从存储扫描出的全部键
//
// 扫描期间发生过变更（代数不同）时放弃安装，返回 false。
func (x *Index) loadTypes(keys []types.Key, gen uint64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.gen != gen {
		return false
	}
	x.byType = make(map[types.NameType]map[types.Key]struct{})
	for _, k := range keys {
		set, ok := x.byType[k.Type]
		if !ok {
			set = make(map[types.Key]struct{})
			x.byType[k.Type] = set
		}
		set[k] = struct{}{}
	}
	x.typeReady = true
	return true
}

// Len 返回缓存的记录数
func (x *Index) Len() int {
	return x.cache.Len()
}
