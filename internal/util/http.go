package util

import (
	"net"
	"net/http"
	"strings"
)

// ExtractClientIP resolves the originating client address, preferring
// X-Forwarded-For, then X-Real-IP, then the socket's remote address.
func ExtractClientIP(xForwardedFor, realIP, remoteAddr string) string {
	// X-Forwarded-For may carry a proxy chain; the client is first.
	if xForwardedFor != "" {
		first, _, _ := strings.Cut(xForwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP != "" {
		return realIP
	}

	if remoteAddr != "" {
		// RemoteAddr usually carries a port.
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			return host
		}
		return remoteAddr
	}

	return ""
}

// ClientIPFromRequest is ExtractClientIP fed from a request's headers.
func ClientIPFromRequest(r *http.Request) string {
	return ExtractClientIP(r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-IP"), r.RemoteAddr)
}

// MaskIP blanks the last octet of an IPv4 address before it is logged,
// e.g. "1.2.3.4" becomes "1.2.3.x". Anything that is not dotted-quad
// IPv4 passes through unchanged.
func MaskIP(ip string) string {
	if strings.Count(ip, ".") != 3 || strings.Contains(ip, ":") {
		return ip
	}

	parts := strings.Split(ip, ".")
	parts[3] = "x"
	return strings.Join(parts, ".")
}
