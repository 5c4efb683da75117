// Package privacy reduces personal data to what logs and lead records need.
package privacy

import (
	"net/netip"
	"strings"

	"arq/pkg/requestcontext"
)

// AnonymizeIP truncates an address to its network prefix in CIDR form:
// "203.0.113.0/24" for IPv4 (and IPv4-mapped IPv6), "2001:db8:85a3::/48"
// for IPv6.
//
// Returns requestcontext.UnknownClient for empty or unresolved input and
// "invalid" for anything that does not parse as a bare address.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == requestcontext.UnknownClient {
		return requestcontext.UnknownClient
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.String()
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. "jane.doe@example.com" -> "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
