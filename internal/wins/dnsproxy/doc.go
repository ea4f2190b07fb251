// Package dnsproxy 实现名称查询未命中时的 DNS 回退解析
//
// NetBIOS 名称（去掉类型后缀、转小写、追加搜索域）作为主机名
// 向配置的 DNS 服务器发起 A 记录查询。结果由名称服务缓存为
// Dns / DnsFail 记录。
package dnsproxy
