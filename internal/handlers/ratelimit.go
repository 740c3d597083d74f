package handlers

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// RateLimiter is what the credential endpoints need from a limiter. A nil
// limiter disables the guard.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest charges one request against the caller's budget for the
// given scope.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(rateLimitKey(r, scope))
}

// rateLimitKey buckets callers per client IP, prefixed with the scope so
// different endpoint groups do not share a budget.
func rateLimitKey(r *http.Request, scope string) string {
	ip := clientIP(r)
	if scope == "" {
		return ip
	}
	return fmt.Sprintf("%s:%s", scope, ip)
}

// clientIP prefers the first X-Forwarded-For hop, then falls back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
