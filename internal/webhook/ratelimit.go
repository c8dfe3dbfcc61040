package webhook

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 4096
	clientIdleTTL     = 10 * time.Minute
)

// RateLimiter limits webhook requests per client address.
type RateLimiter struct {
	limit        rate.Limit
	burst        int
	trustForward bool

	mu      sync.Mutex // serialises get-or-create on clients
	clients *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter allows perMinute requests per client per minute. A value of
// zero or less returns nil, which Wrap treats as unlimited. Clients are keyed
// by socket address unless trustForwardedFor is set, in which case the first
// X-Forwarded-For entry is used; only enable that behind a proxy that
// overwrites the header.
func NewRateLimiter(perMinute int, trustForwardedFor bool) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limit:        rate.Every(time.Minute / time.Duration(perMinute)),
		burst:        perMinute,
		trustForward: trustForwardedFor,
		clients:      expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL),
	}
}

// Allow reports whether a request from client may proceed.
func (l *RateLimiter) Allow(client string) bool {
	l.mu.Lock()
	lim, ok := l.clients.Get(client)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
	}
	// Re-adding refreshes the idle TTL.
	l.clients.Add(client, lim)
	l.mu.Unlock()

	return lim.Allow()
}

// Wrap returns next guarded by the limiter.
func (l *RateLimiter) Wrap(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r, l.trustForward)
		if !l.Allow(client) {
			logger.WithField("client", client).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request, trustForward bool) string {
	if trustForward {
		if fwd := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0]); fwd != "" {
			return fwd
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
