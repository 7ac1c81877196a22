package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"parish-platform/internal/authz"
)

type contextKey struct{ name string }

var (
	callerKey   = contextKey{"caller"}
	clientIPKey = contextKey{"client_ip"}
)

// WithCaller returns a context carrying the resolved caller.
func WithCaller(ctx context.Context, c authz.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext returns the caller set by the auth middleware. Requests
// that never passed through it act as anonymous.
func CallerFromContext(ctx context.Context) authz.Caller {
	if c, ok := ctx.Value(callerKey).(authz.Caller); ok {
		return c
	}
	return authz.Anonymous()
}

// WithClientIP returns a context carrying the request's client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the client IP set by ClientIP, or "unknown".
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// ClientIP stores the request's remote IP in the context for audit logging
// and rate limiting. X-Forwarded-For is trusted only for its first hop.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), clientIP(r))))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
