package metadata

import (
	"net"
	"net/http"

	"gatezero/pkg/requestcontext"
)

// ClientMetadata copies the client IP and User-Agent into the request context.
// It expects chi's RealIP middleware to have already rewritten RemoteAddr from
// X-Forwarded-For / X-Real-IP.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest strips the port from RemoteAddr.
func ClientIPFromRequest(r *http.Request) string {
	addr := r.RemoteAddr
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
