package dbcapabilities

import (
	"net"
	"strings"
)

// NormalizeHost converts localhost variants to a canonical form.
// It converts "localhost", "127.0.0.1", and "::1" to "localhost".
// All other hosts remain unchanged (no DNS resolution is performed).
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return "localhost"
	}

	// Other loopback addresses in the 127.0.0.0/8 range.
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "localhost"
	}

	return host
}

// IsLocalhostVariant checks if the given host is a localhost variant.
// This includes "localhost", "127.x.x.x", and "::1".
func IsLocalhostVariant(host string) bool {
	return NormalizeHost(host) == "localhost"
}
