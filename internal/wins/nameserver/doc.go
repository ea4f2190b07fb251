// Package nameserver 实现 WINS 名称注册服务
//
// Service 是唯一的入口对象，持有名称数据库、版本计数器和挂起质询表：
//
//	Register / RegisterMultihomed / Refresh  注册与刷新
//	Query                                    名称查询（含 *<1b> 聚合查询）
//	Release                                  名称释放
//	ResolveChallenge                         回填所有权质询结果
//	Sweep                                    生命周期清扫
//
// 同一名称键上的修改通过 namedb.KeyLock 串行化，不同键之间并发执行。
// 唯一的异步点是所有权质询：冲突时先返回 WACK，旧所有者应答或超时后
// 通过 WACKResponse.Final 交付最终结果。
//
// 所有请求处理函数都不会返回 error：客户端可见的结果全部映射为
// types.ResultCode，需要丢弃的请求返回 nil。
package nameserver
