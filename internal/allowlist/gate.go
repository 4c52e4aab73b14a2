// Package allowlist decides whether a webhook delivery comes from an
// authorized source network.
//
// The range set is built once at startup from GitHub's metadata endpoint (see
// Fetcher) and is read-only afterwards. Source addresses are taken from the
// X-Forwarded-For header when the service runs behind a trusted reverse proxy;
// the header is not a security boundary against untrusted networks.
package allowlist

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RangeSet is an immutable set of network prefixes.
type RangeSet struct {
	prefixes []netip.Prefix
}

// NewRangeSet parses CIDR strings. Bare addresses are treated as single-host prefixes.
func NewRangeSet(cidrs []string) (*RangeSet, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, raw := range cidrs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := parsePrefix(raw)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	return &RangeSet{prefixes: prefixes}, nil
}

func parsePrefix(raw string) (netip.Prefix, error) {
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("parse range %q: %w", raw, err)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("parse range %q: %w", raw, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Contains reports whether addr falls inside at least one range.
// A nil or empty set contains nothing.
func (s *RangeSet) Contains(addr netip.Addr) bool {
	if s == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap().WithZone("")
	for _, p := range s.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Len returns the number of ranges in the set.
func (s *RangeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.prefixes)
}

// Merge returns a new set holding the ranges of s followed by extra.
func (s *RangeSet) Merge(extra *RangeSet) *RangeSet {
	out := &RangeSet{}
	if s != nil {
		out.prefixes = append(out.prefixes, s.prefixes...)
	}
	if extra != nil {
		out.prefixes = append(out.prefixes, extra.prefixes...)
	}
	return out
}

// Strings returns the ranges in CIDR notation.
func (s *RangeSet) Strings() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.prefixes))
	for i, p := range s.prefixes {
		out[i] = p.String()
	}
	return out
}

// ClientAddr extracts the source address of r. With trustForwarded set, the
// right-most X-Forwarded-For entry (the hop appended by our proxy) wins;
// otherwise, or when the header is unusable, the transport peer address is used.
func ClientAddr(r *http.Request, trustForwarded bool) (netip.Addr, bool) {
	if trustForwarded {
		if addr, ok := forwardedAddr(r.Header.Values("X-Forwarded-For")); ok {
			return addr, true
		}
	}
	return remoteAddr(r.RemoteAddr)
}

func forwardedAddr(values []string) (netip.Addr, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		parts := strings.Split(values[i], ",")
		for j := len(parts) - 1; j >= 0; j-- {
			candidate := strings.TrimSpace(parts[j])
			if candidate == "" {
				continue
			}
			addr, err := netip.ParseAddr(candidate)
			if err != nil {
				return netip.Addr{}, false
			}
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

func remoteAddr(raw string) (netip.Addr, bool) {
	host := raw
	if h, _, err := net.SplitHostPort(raw); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
