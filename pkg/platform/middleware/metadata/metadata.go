package metadata

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"arq/pkg/requestcontext"
)

// MaxForwardedHeaderLength bounds any forwarding header we are willing to parse.
const MaxForwardedHeaderLength = 500

// forwardingHeaders are consulted in order; the first valid address wins.
var forwardingHeaders = []string{"X-Forwarded-For", "CF-Connecting-IP", "X-Real-IP"}

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies lists the networks allowed to set forwarding headers.
	// Empty means forwarding headers are ignored.
	TrustedProxies []netip.Prefix
	// TrustAll accepts forwarding headers from any peer. Only for deployments
	// where the platform edge always overwrites them.
	TrustAll bool
}

// ParseTrustedProxies parses a comma-separated list of CIDRs or bare
// addresses. The single value "*" trusts every peer.
func ParseTrustedProxies(raw string) (*Config, error) {
	cfg := &Config{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cfg, nil
	}
	if raw == "*" {
		cfg.TrustAll = true
		return cfg, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
			}
			cfg.TrustedProxies = append(cfg.TrustedProxies, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
		}
		cfg.TrustedProxies = append(cfg.TrustedProxies, prefix.Masked())
	}
	return cfg, nil
}

// Middleware resolves the client identity once per request.
type Middleware struct {
	config *Config
}

// NewMiddleware creates a new metadata middleware with the given config.
func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Middleware{config: cfg}
}

// Handler stores the resolved client IP and User-Agent in the context.
// Everything downstream (rate limiting, lead records, logs) reads them from there.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.ClientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP resolves the client address. Forwarding headers are consulted
// only when the direct peer is trusted: X-Forwarded-For (first entry),
// then CF-Connecting-IP, then X-Real-IP. Falls back to the peer address,
// and to requestcontext.UnknownClient when nothing resolves.
func (m *Middleware) ClientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)

	if m.isTrustedProxy(remoteIP) {
		for _, header := range forwardingHeaders {
			if ip := firstAddress(r.Header.Get(header)); ip != "" {
				return ip
			}
		}
	}

	if remoteIP == "" {
		return requestcontext.UnknownClient
	}
	return remoteIP
}

func firstAddress(value string) string {
	if value == "" || len(value) > MaxForwardedHeaderLength {
		return ""
	}
	first, _, _ := strings.Cut(value, ",")
	addr, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if m.config.TrustAll {
		return true
	}
	if ip == "" || len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr extracts the IP from RemoteAddr, with or without a port.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.Unmap().String()
	}
	return ""
}
