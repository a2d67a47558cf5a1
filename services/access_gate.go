package services

import (
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/utils"
)

// AccessGate decides whether a client address may use the gated submission endpoint.
type AccessGate struct {
	prefixes []netip.Prefix
}

// NewAccessGate parses allow-list entries. Each entry is a single IPv4/IPv6
// address or a CIDR range; blank entries are skipped.
func NewAccessGate(entries []string) (*AccessGate, error) {
	g := &AccessGate{}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("allow-list entry %q: %w", entry, err)
			}
			g.prefixes = append(g.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("allow-list entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		g.prefixes = append(g.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return g, nil
}

// IsAllowed reports whether clientIP falls inside any allow-listed entry.
// Anything that does not parse as an address is refused.
func (g *AccessGate) IsAllowed(clientIP string) bool {
	utils.Logger.Debug("access gate check", zap.String("client_ip", clientIP))
	addr, err := netip.ParseAddr(strings.TrimSpace(clientIP))
	if err != nil {
		return false
	}
	addr = addr.Unmap().WithZone("")
	for _, p := range g.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Entries returns the normalised allow-list, mostly for startup logging.
func (g *AccessGate) Entries() []string {
	out := make([]string, 0, len(g.prefixes))
	for _, p := range g.prefixes {
		out = append(out, p.String())
	}
	return out
}
