package dnsproxy

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"

	"github.com/dep2p/go-wins/config"
	pkgif "github.com/dep2p/go-wins/pkg/interfaces"
	"github.com/dep2p/go-wins/pkg/lib/log"
	"github.com/dep2p/go-wins/pkg/types"
)

var logger = log.Logger("wins/dnsproxy")

// ErrNoServers 没有配置 DNS 服务器
var ErrNoServers = errors.New("dnsproxy: no servers configured")

// Resolver DNS 回退解析器
type Resolver struct {
	client  *dns.Client
	servers []string
	domain  string
}

// New 创建解析器
func New(cfg config.DNSProxyConfig) *Resolver {
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{
		client:  &dns.Client{Net: "udp", Timeout: timeout},
		servers: append([]string(nil), cfg.Servers...),
		domain:  strings.Trim(cfg.Domain, "."),
	}
}

// Lookup 实现 DNSFallback
//
// 依次尝试每个服务器，第一个给出权威结果（成功或 NXDOMAIN）的服务器为准。
// 名称不是合法主机名或不存在时返回 nil, nil。
func (r *Resolver) Lookup(ctx context.Context, key types.Key) ([]netip.Addr, error) {
	if len(r.servers) == 0 {
		return nil, ErrNoServers
	}

	fqdn, ok := r.hostname(key)
	if !ok {
		return nil, nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeA)

	var errs error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", server, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
			addrs := extractA(resp.Answer)
			logger.Debug("DNS 回退解析完成", "name", key, "host", fqdn, "addrs", len(addrs))
			return addrs, nil
		case dns.RcodeNameError:
			return nil, nil
		default:
			errs = multierr.Append(errs, fmt.Errorf("%s: rcode %s", server, dns.RcodeToString[resp.Rcode]))
		}
	}
	return nil, errs
}

// hostname 把 NetBIOS 名称转为完整域名
func (r *Resolver) hostname(key types.Key) (string, bool) {
	host := strings.ToLower(strings.TrimSpace(key.Name()))
	if r.domain != "" {
		host += "." + r.domain
	}
	fqdn := dns.Fqdn(host)
	if _, ok := dns.IsDomainName(fqdn); !ok || strings.ContainsAny(host, "*") {
		return "", false
	}
	return fqdn, true
}

func extractA(rrs []dns.RR) []netip.Addr {
	var addrs []netip.Addr
	for _, rr := range rrs {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(a.A.To4()); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

var _ pkgif.DNSFallback = (*Resolver)(nil)
