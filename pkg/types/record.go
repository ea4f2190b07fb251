package types

import (
	"net/netip"
	"slices"
	"time"
)

// ============================================================================
//                              Source
// ============================================================================

// Source 记录来源
type Source uint8

// 记录来源（取值与名称数据库持久化格式一致）
const (
	SourceRegister  Source = 1
	SourceSelf      Source = 2
	SourceDNS       Source = 3
	SourceDNSFail   Source = 4
	SourcePermanent Source = 5
)

// Valid 是否为已知来源
func (s Source) Valid() bool {
	return s >= SourceRegister && s <= SourcePermanent
}

// String 返回来源名称
func (s Source) String() string {
	switch s {
	case SourceRegister:
		return "register"
	case SourceSelf:
		return "self"
	case SourceDNS:
		return "dns"
	case SourceDNSFail:
		return "dnsfail"
	case SourcePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              WinsFlags
// ============================================================================

// WinsFlags 记录派生状态
type WinsFlags uint32

// 名称类别
const (
	WinsUnique   WinsFlags = 0x00
	WinsNGroup   WinsFlags = 0x01
	WinsSGroup   WinsFlags = 0x02
	WinsMHomed   WinsFlags = 0x03
	WinsTypeMask WinsFlags = 0x03
)

// 记录状态
const (
	StateActive     WinsFlags = 0x00
	StateReleased   WinsFlags = 0x04
	StateTombstoned WinsFlags = 0x08
	StateMask       WinsFlags = 0x0C
)

// 其他位
const (
	WinsNodeMask WinsFlags = 0x60
	WinsStatic   WinsFlags = 0x80
)

// State 返回状态位
func (f WinsFlags) State() WinsFlags {
	return f & StateMask
}

// StateName 返回状态名称
func StateName(state WinsFlags) string {
	switch state {
	case StateActive:
		return "active"
	case StateReleased:
		return "released"
	case StateTombstoned:
		return "tombstoned"
	default:
		return "invalid"
	}
}

// ============================================================================
//                              NameRecord
// ============================================================================

var (
	// LocalOwner 本机拥有记录的哨兵地址
	LocalOwner = netip.IPv4Unspecified()

	// BroadcastAddr 普通组名称固定使用的地址
	BroadcastAddr = netip.AddrFrom4([4]byte{255, 255, 255, 255})
)

// NameRecord 名称记录
//
// DeathTime 为零值表示永久记录，清扫器永远不会处理它。
type NameRecord struct {
	Key         Key
	NBFlags     NBFlags
	Source      Source
	DeathTime   time.Time
	RefreshTime time.Time
	Version     uint64
	Owner       netip.Addr
	WinsFlags   WinsFlags
	IPs         []netip.Addr
}

// Clone 深拷贝
func (r *NameRecord) Clone() *NameRecord {
	c := *r
	c.IPs = slices.Clone(r.IPs)
	return &c
}

// IsGroup 是否为组名称
func (r *NameRecord) IsGroup() bool {
	return r.NBFlags.IsGroup()
}

// IsPermanent 是否为永久记录
func (r *NameRecord) IsPermanent() bool {
	return r.DeathTime.IsZero()
}

// State 返回记录状态
func (r *NameRecord) State() WinsFlags {
	return r.WinsFlags.State()
}

// IsActive 是否处于 Active 状态
func (r *NameRecord) IsActive() bool {
	return r.State() == StateActive
}

// IsLocal 是否由本机拥有
func (r *NameRecord) IsLocal() bool {
	return r.Owner == LocalOwner
}

// Expired 是否已过期（永久记录永不过期）
func (r *NameRecord) Expired(now time.Time) bool {
	return !r.IsPermanent() && !r.DeathTime.After(now)
}

// HasIP 地址是否在记录中
func (r *NameRecord) HasIP(ip netip.Addr) bool {
	return slices.Contains(r.IPs, ip)
}

// AddIP 追加地址（已存在时不变），返回是否追加
func (r *NameRecord) AddIP(ip netip.Addr) bool {
	if r.HasIP(ip) {
		return false
	}
	r.IPs = append(r.IPs, ip)
	return true
}

// RemoveIP 删除地址，返回是否删除
func (r *NameRecord) RemoveIP(ip netip.Addr) bool {
	i := slices.Index(r.IPs, ip)
	if i < 0 {
		return false
	}
	r.IPs = slices.Delete(r.IPs, i, i+1)
	return true
}

// SetTTL 刷新到期时间
func (r *NameRecord) SetTTL(now time.Time, ttl time.Duration) {
	r.DeathTime = now.Add(ttl).Truncate(time.Second)
	r.RefreshTime = now.Truncate(time.Second)
}

// TTL 返回剩余秒数；永久记录返回 permanentTTL
func (r *NameRecord) TTL(now time.Time, permanentTTL uint32) uint32 {
	if r.IsPermanent() {
		return permanentTTL
	}
	left := r.DeathTime.Sub(now)
	if left <= 0 {
		return 0
	}
	return uint32(left / time.Second)
}

// SetState 设置状态并重新派生其余标志位
//
// 组名称：类型为 <1c> 或有多个地址时为 SGroup，否则为 NGroup；
// 唯一名称：多个地址时为 MHomed，否则为 Unique。
func (r *NameRecord) SetState(state WinsFlags) {
	var flags WinsFlags
	switch {
	case r.IsGroup() && (r.Key.Type == TypeDomainGroup || len(r.IPs) > 1):
		flags = WinsSGroup
	case r.IsGroup():
		flags = WinsNGroup
	case len(r.IPs) > 1:
		flags = WinsMHomed
	default:
		flags = WinsUnique
	}
	flags |= WinsFlags(r.NBFlags.NodeType()) & WinsNodeMask
	if r.IsPermanent() {
		flags |= WinsStatic
	}
	r.WinsFlags = flags | (state & StateMask)
}

// RefreshFlags 保持当前状态重新派生标志位
func (r *NameRecord) RefreshFlags() {
	r.SetState(r.State())
}
