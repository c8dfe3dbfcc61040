package webhook

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestNewRateLimiter_Disabled(t *testing.T) {
	if l := NewRateLimiter(0, false); l != nil {
		t.Errorf("NewRateLimiter(0, false) = %v, want nil", l)
	}

	var l *RateLimiter
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if h := l.Wrap(next); h == nil {
		t.Error("nil limiter should pass the handler through")
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	l := NewRateLimiter(2, false)

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("first requests within burst should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("request beyond burst should be denied")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other clients have their own budget")
	}
}

func TestRateLimiter_Wrap(t *testing.T) {
	l := NewRateLimiter(1, false)
	h := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook/github", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK {
		t.Errorf("first status = %d, want %d", codes[0], http.StatusOK)
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want %d", codes[1], http.StatusTooManyRequests)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name         string
		forwarded    string
		trustForward bool
		want         string
	}{
		{"socket peer", "", false, "192.0.2.1"},
		{"untrusted header ignored", "203.0.113.7, 10.0.0.1", false, "192.0.2.1"},
		{"trusted header", "203.0.113.7, 10.0.0.1", true, "203.0.113.7"},
		{"trusted but absent", "", true, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientAddr(req, tt.trustForward); got != tt.want {
				t.Errorf("clientAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_Wrap_RotatingForwardedFor(t *testing.T) {
	l := NewRateLimiter(2, false)
	h := l.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook/github", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}

	if passed != 2 {
		t.Errorf("%d requests passed from one peer with rotating X-Forwarded-For, want 2", passed)
	}
}

func TestRateLimiter_Allow_ConcurrentFirstRequests(t *testing.T) {
	l := NewRateLimiter(5, false)

	var mu sync.Mutex
	var wg sync.WaitGroup
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("10.0.0.9") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Errorf("%d concurrent requests allowed, want burst of 5", allowed)
	}
}
