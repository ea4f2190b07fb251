package interfaces

import (
	"context"
	"net/netip"

	"github.com/dep2p/go-wins/pkg/types"
	"github.com/google/uuid"
)

// Notifier 名称变更通知
//
// 在记录成功持久化之后调用，实现不得阻塞。
type Notifier interface {
	Notify(ctx context.Context, evt types.EvtNameChanged)
}

// OwnerProber 向旧所有者发送定向查询
//
// SendDirectedQuery 只负责发出非递归查询；应答到达后传输层以同一个 id
// 调用 Service.ResolveChallenge。返回错误视为查询失败。
type OwnerProber interface {
	SendDirectedQuery(ctx context.Context, id uuid.UUID, owner netip.Addr, key types.Key) error
}

// Closeness 按与请求方的远近对地址排序
//
// 返回新切片，不修改入参。
type Closeness interface {
	Sort(requester netip.Addr, ips []netip.Addr) []netip.Addr
}

// DNSFallback DNS 回退解析
//
// Lookup 把 NetBIOS 名称当作主机名解析为 IPv4 地址；
// 名称不存在时返回空切片和 nil 错误。
type DNSFallback interface {
	Lookup(ctx context.Context, key types.Key) ([]netip.Addr, error)
}
