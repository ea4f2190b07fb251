// Package types 定义 go-wins 公共类型
//
// 包括 NetBIOS 名称键、名称记录、请求与应答的值类型，以及名称变更事件。
// 这些类型不依赖任何内部包，传输层解码后直接构造它们。
package types
