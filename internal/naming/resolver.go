package naming

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// DNSResolver checks host registration by sending an A query to a single nameserver.
type DNSResolver struct {
	client     *dns.Client
	nameserver string
}

func NewDNSResolver(nameserver string, timeout time.Duration) *DNSResolver {
	return &DNSResolver{
		client:     &dns.Client{Timeout: timeout},
		nameserver: nameserver,
	}
}

// Exists implements [Resolver]. NXDOMAIN and empty answers mean the name is free.
func (r *DNSResolver) Exists(ctx context.Context, hostname string) (bool, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(hostname), dns.TypeA)
	m.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, m, r.nameserver)
	if err != nil {
		return false, err
	}
	switch resp.Rcode {
	case dns.RcodeNameError:
		return false, nil
	case dns.RcodeSuccess:
		return len(resp.Answer) > 0, nil
	default:
		return false, fmt.Errorf("nameserver %s answered %s", r.nameserver, dns.RcodeToString[resp.Rcode])
	}
}

var _ Resolver = &DNSResolver{}
