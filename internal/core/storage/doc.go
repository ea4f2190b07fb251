// Package storage 提供 WINS 名称数据库的持久化存储服务
//
// Storage 模块基于 BadgerDB 实现，是名称记录的唯一事实来源。
// 内存索引只是派生缓存，随时可以从这里重建。
//
// # 架构
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                wins/namedb (NameRecordStore)                │
//	└─────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                     storage (本包)                          │
//	│  ┌─────────────────────────────────────────────────────┐   │
//	│  │          kv.Store：带前缀隔离的 KV 抽象              │   │
//	│  └─────────────────────────────────────────────────────┘   │
//	│                              │                              │
//	│  ┌─────────────────────────────────────────────────────┐   │
//	│  │              engine/badger：BadgerDB 实现            │   │
//	│  └─────────────────────────────────────────────────────┘   │
//	└─────────────────────────────────────────────────────────────┘
//
// # 键空间设计
//
//	前缀     | 说明
//	---------|------------------------------------------
//	n/       | 名称记录（16 字节名称 + 1 字节类型）
//	meta/    | 版本计数器、数据库格式版本
//
// # 使用示例
//
//	app := fx.New(
//	    storage.Module(),
//	    namedb.Module(),
//	)
package storage
