package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/jroosing/zonepress/internal/zone"
)

// ErrNotFound is returned when a name has no TXT records.
var ErrNotFound = errors.New("no TXT records")

// Resolver looks up TXT records. Each returned value is one record with its
// character-strings concatenated.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSResolver queries a DNS server directly.
type DNSResolver struct {
	// Server is a host:port address.
	Server string
	Client *dns.Client
}

// NewDNSResolver returns a resolver for server using UDP, retrying over TCP on truncation.
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	return &DNSResolver{
		Server: server,
		Client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// LookupTXT queries name IN TXT.
func (r *DNSResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(4096, false)

	resp, _, err := r.Client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	if resp.Truncated {
		tcp := &dns.Client{Net: "tcp", Timeout: r.Client.Timeout}
		resp, _, err = tcp.ExchangeContext(ctx, msg, r.Server)
		if err != nil {
			return nil, fmt.Errorf("query %s over tcp: %w", name, err)
		}
	}
	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("%w: %s (NXDOMAIN)", ErrNotFound, name)
	default:
		return nil, fmt.Errorf("query %s: %s", name, dns.RcodeToString[resp.Rcode])
	}

	var out []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, strings.Join(txt.Txt, ""))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return out, nil
}

// ZoneResolver answers from a parsed zone file without network access.
type ZoneResolver struct {
	Zone *zone.Zone
}

// LookupTXT returns the TXT records of name in the zone.
func (r *ZoneResolver) LookupTXT(_ context.Context, name string) ([]string, error) {
	if !r.Zone.ContainsName(name) {
		return nil, fmt.Errorf("%w: %s is outside %s", ErrNotFound, name, r.Zone.Origin)
	}
	out := r.Zone.TXT(name)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return out, nil
}
