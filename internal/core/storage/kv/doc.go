// Package kv 提供带前缀隔离的键值存储抽象
//
// 不同的数据类别通过前缀共享同一个引擎：
//
//	records := kv.New(eng, []byte("n/"))
//	meta := kv.New(eng, []byte("meta/"))
package kv
