package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	resolvConf      = "/etc/resolv.conf"
	fallbackServer  = "1.1.1.1:53"
	resolverTimeout = 5 * time.Second
)

// Resolver implements engine.DomainResolver with plain A queries against a
// single recursive server.
type Resolver struct {
	Server string
	client *dns.Client
}

// NewResolver returns a resolver for server ("host" or "host:port"). An empty
// server means the first nameserver in /etc/resolv.conf.
func NewResolver(server string) *Resolver {
	if server == "" {
		server = systemNameserver()
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(strings.Trim(server, "[]"), "53")
	}
	return &Resolver{
		Server: server,
		client: &dns.Client{Timeout: resolverTimeout},
	}
}

func systemNameserver() string {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// Resolve returns the IPv4 addresses domain currently points to.
func (r *Resolver) Resolve(ctx context.Context, domain string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return nil, fmt.Errorf("A lookup for %s via %s: %w", domain, r.Server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("A lookup for %s: %s", domain, dns.RcodeToString[in.Rcode])
	}

	seen := make(map[string]bool)
	var ips []string
	for _, rr := range in.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		ip := a.A.String()
		if !seen[ip] {
			seen[ip] = true
			ips = append(ips, ip)
		}
	}
	return ips, nil
}
