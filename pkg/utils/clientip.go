package utils

import (
	"net"
	"strings"
)

// MaxIPLength is the widest textual address we store (IPv6 with an IPv4 tail).
const MaxIPLength = 45

// ResolveClientIP picks the visitor address for analytics. The first
// X-Forwarded-For entry wins when it is present and fits in MaxIPLength,
// otherwise the socket address is used. Nothing here ever fails: an
// address that cannot be resolved comes back as nil.
func ResolveClientIP(forwardedFor, remoteAddr string) *string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" && len(first) <= MaxIPLength {
			return &first
		}
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" || len(host) > MaxIPLength {
		return nil
	}
	return &host
}

// TrimToNil trims s and returns nil for empty results.
func TrimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
