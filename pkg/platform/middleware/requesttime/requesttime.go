// Package requesttime captures a single "now" per HTTP request so query
// windows computed by one request agree on the same instant.
package requesttime

import (
	"net/http"
	"time"

	"gatezero/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
