package config

import (
	"fmt"
	"net/netip"
)

// IdentityConfig 本机身份配置
//
// Names 中的每个名称在启动时以 <00>、<03>、<20> 三种类型登记为本机名称；
// 只有来自 Addrs 的请求才能注册这些名称。
type IdentityConfig struct {
	// Names 本机 NetBIOS 名称
	Names []string `json:"names"`

	// Addrs 本机 IPv4 地址
	Addrs []string `json:"addrs"`
}

// DefaultIdentityConfig 返回空身份
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{}
}

// Validate 验证身份配置
func (c *IdentityConfig) Validate() error {
	for _, name := range c.Names {
		if name == "" || len(name) > 15 {
			return fmt.Errorf("identity: invalid netbios name %q", name)
		}
	}
	if len(c.Names) > 0 && len(c.Addrs) == 0 {
		return fmt.Errorf("identity: names configured without addrs")
	}
	_, err := c.ParsedAddrs()
	return err
}

// ParsedAddrs 解析本机地址
func (c *IdentityConfig) ParsedAddrs() ([]netip.Addr, error) {
	addrs := make([]netip.Addr, 0, len(c.Addrs))
	for _, s := range c.Addrs {
		addr, err := netip.ParseAddr(s)
		if err != nil || !addr.Is4() {
			return nil, fmt.Errorf("identity: invalid ipv4 address %q", s)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
