// Package wins 提供 WINS（NetBIOS 名称服务）名称注册服务器
//
// 服务器维护持久化的 NetBIOS 名称数据库，处理名称注册、刷新、
// 多宿主注册、查询和释放请求，在冲突时向旧所有者发起质询，
// 并按生命周期清扫过期记录。
//
// # 快速开始
//
//	import "github.com/dep2p/go-wins"
//
//	srv, err := wins.New(
//	    wins.WithDataDir("/var/lib/wins"),
//	    wins.WithIdentity([]string{"WINSSRV"}, "10.0.0.250"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	resp := srv.Register(ctx, &types.RegisterRequest{
//	    Key:         types.MustKey("FILESRV", 0x20),
//	    RequesterIP: netip.MustParseAddr("10.0.0.1"),
//	    NBFlags:     types.NBNodeH,
//	    TTL:         300,
//	})
//
// # 质询
//
// 名称被其他地址持有时，Register 返回 *types.WACKResponse。传输层通过
// WithProber 注入的 OwnerProber 向旧所有者发出定向查询，收到应答后调用
// ResolveChallenge；最终应答从 WACKResponse.Final 读取。
//
// # 架构
//
//   - internal/core/storage: BadgerDB 存储引擎
//   - internal/core/eventbus: 名称变更事件
//   - internal/core/metrics: Prometheus 指标
//   - internal/wins/namedb: 名称记录存储与版本号
//   - internal/wins/nameserver: 注册策略、质询、查询、清扫
//   - internal/wins/dnsproxy: DNS 回退解析
package wins
