package nameserver

import (
	"math/bits"
	"net/netip"
	"slices"
	"sort"
)

// PrefixCloseness 按与请求方地址的公共前缀长度排序
//
// 公共前缀越长越靠前，长度相同时保持原顺序。请求方地址无效时不排序。
type PrefixCloseness struct{}

// Sort 实现 Closeness
func (PrefixCloseness) Sort(requester netip.Addr, ips []netip.Addr) []netip.Addr {
	out := slices.Clone(ips)
	if !requester.Is4() || len(out) < 2 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return commonPrefix(requester, out[i]) > commonPrefix(requester, out[j])
	})
	return out
}

// commonPrefix 返回两个 IPv4 地址的公共前缀位数
func commonPrefix(a, b netip.Addr) int {
	if !b.Is4() {
		return 0
	}
	x, y := a.As4(), b.As4()
	va := uint32(x[0])<<24 | uint32(x[1])<<16 | uint32(x[2])<<8 | uint32(x[3])
	vb := uint32(y[0])<<24 | uint32(y[1])<<16 | uint32(y[2])<<8 | uint32(y[3])
	return bits.LeadingZeros32(va ^ vb)
}
