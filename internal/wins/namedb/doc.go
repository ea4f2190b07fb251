// Package namedb 实现 WINS 名称数据库
//
// Store 是名称记录的唯一事实来源，记录以固定二进制格式持久化在
// BadgerDB 中；Index 是派生的读缓存，可以随时整体丢弃并从 Store 重建。
//
// 写入顺序固定为先持久化、再更新缓存；持久化失败时只失效缓存，
// 缓存永远不会领先于存储。
//
// 同一名称键上的操作通过 KeyLock 串行化，不同键之间互不阻塞。
package namedb
