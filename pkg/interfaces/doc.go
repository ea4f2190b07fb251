// Package interfaces 定义 go-wins 与外部协作者之间的接口
//
// 名称服务核心不做任何网络 I/O：定向查询、DNS 回退、变更通知和
// 地址远近排序都通过这里的接口交给外部实现。
package interfaces
