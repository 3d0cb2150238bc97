package util

import (
	"net"
	"strings"
)

// ClientIP returns the originating client address of a request. The first
// entry of the X-Forwarded-For header wins over the connection's remote address.
func ClientIP(forwardedFor string, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}

// IsPublicIP reports whether addr parses as an IP address that can be
// geolocated, that is not private, loopback, link-local or unspecified.
func IsPublicIP(addr string) bool {
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return false
	}
	return !(ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() ||
		ip.IsMulticast())
}
