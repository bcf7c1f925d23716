package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds the request context. Unlike http.TimeoutHandler it does
// not buffer the response, so streamed bodies still reach the client as
// they are flushed.
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
