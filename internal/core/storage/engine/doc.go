// Package engine 定义存储引擎接口
//
// # 接口
//
//   - Engine: 存储引擎主接口
//   - Batch: 批量写入
//   - Iterator: 前缀迭代器
//   - Transaction: 读写事务
//
// # 实现
//
//   - badger: BadgerDB 实现（默认）
package engine
