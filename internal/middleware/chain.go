package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultMaxBody caps request bodies; the largest valid request is a
	// 10000-character text plus its JSON envelope.
	DefaultMaxBody int64 = 64 * 1024

	// DefaultDeadline bounds every request, long enough for the slowest
	// accepted stream budget.
	DefaultDeadline = 330 * time.Second
)

// Options configures Chain. Zero values fall back to the defaults above,
// a nil RateLimiter disables limiting and an empty APIKey disables auth.
type Options struct {
	RateLimiter *RateLimiter
	APIKey      string
	MaxBody     int64
	Deadline    time.Duration
}

// Chain wraps the handler with the full middleware stack.
// Order: CORS → RequestID → Logging → Metrics → RateLimit → APIKey → MaxBytes → Deadline → mux
func Chain(handler http.Handler, opts Options) http.Handler {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}

	h := handler
	h = Deadline(opts.Deadline)(h)
	h = MaxBytes(opts.MaxBody)(h)
	h = APIKey(opts.APIKey)(h)
	h = RateLimit(opts.RateLimiter)(h)
	h = Metrics(h)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	return h
}
