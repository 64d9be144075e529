package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// limited serves requests through a rate limiter driven by a manual clock.
type limited struct {
	t   *testing.T
	now time.Time
	h   http.Handler
}

func newLimited(t *testing.T, cfg RateLimitConfig) *limited {
	l := &limited{t: t, now: epoch}
	cfg.Now = func() time.Time { return l.now }
	l.h = RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	return l
}

func (l *limited) from(addr string, headers ...string) *httptest.ResponseRecorder {
	l.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.RemoteAddr = addr
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	l.h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_CountsDown(t *testing.T) {
	l := newLimited(t, RateLimitConfig{Max: 3, Window: time.Minute})
	reset := strconv.FormatInt(epoch.Add(time.Minute).Unix(), 10)

	for _, want := range []string{"2", "1", "0"} {
		w := l.from("198.51.100.7:40000")
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, want, w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, reset, w.Header().Get("X-RateLimit-Reset"))
	}

	l.now = epoch.Add(15 * time.Second)
	w := l.from("198.51.100.7:40001")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "45", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_WindowSlides(t *testing.T) {
	l := newLimited(t, RateLimitConfig{Max: 2, Window: time.Minute})
	const addr = "198.51.100.8:5000"

	require.Equal(t, http.StatusNoContent, l.from(addr).Code)
	require.Equal(t, http.StatusNoContent, l.from(addr).Code)
	require.Equal(t, http.StatusTooManyRequests, l.from(addr).Code)

	// Half way into the next window the previous one still weighs 1 request.
	l.now = epoch.Add(90 * time.Second)
	assert.Equal(t, http.StatusNoContent, l.from(addr).Code)
	assert.Equal(t, http.StatusTooManyRequests, l.from(addr).Code)

	// Two windows later the history is gone.
	l.now = l.now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusNoContent, l.from(addr).Code)
	assert.Equal(t, http.StatusNoContent, l.from(addr).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	for name, cfg := range map[string]RateLimitConfig{
		"ZeroMax":    {Window: time.Minute},
		"ZeroWindow": {Max: 1},
	} {
		t.Run(name, func(t *testing.T) {
			l := newLimited(t, cfg)
			for range 5 {
				w := l.from("198.51.100.9:1")
				require.Equal(t, http.StatusNoContent, w.Code)
				require.Empty(t, w.Header().Get("X-RateLimit-Limit"))
			}
		})
	}
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	l := newLimited(t, RateLimitConfig{Max: 1, Window: time.Minute})

	assert.Equal(t, http.StatusNoContent, l.from("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusNoContent, l.from("10.0.0.2:1234").Code)
	// The port does not matter, only the host.
	assert.Equal(t, http.StatusTooManyRequests, l.from("10.0.0.1:5678").Code)
}

func TestRateLimit_CustomKey(t *testing.T) {
	l := newLimited(t, RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("api_key") },
	})

	assert.Equal(t, http.StatusNoContent, l.from("10.0.0.1:1", "api_key", "ci").Code)
	assert.Equal(t, http.StatusTooManyRequests, l.from("10.0.0.2:1", "api_key", "ci").Code)
	assert.Equal(t, http.StatusNoContent, l.from("10.0.0.1:1", "api_key", "ops").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"Peer", "192.0.2.1:443", nil, "192.0.2.1"},
		{"PeerWithoutPort", "192.0.2.1", nil, "192.0.2.1"},
		{"IPv6Peer", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"RealIP", "192.0.2.1:443", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{
			"ForwardedFirstHop", "192.0.2.1:443",
			map[string]string{"X-Forwarded-For": " 203.0.113.50 , 70.41.3.18", "X-Real-IP": "203.0.113.9"},
			"203.0.113.50",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	_, _, ok := rl.allow("idle", epoch)
	require.True(t, ok)
	_, _, ok = rl.allow("busy", epoch.Add(90*time.Second))
	require.True(t, ok)

	rl.evict(epoch.Add(time.Minute))
	assert.Len(t, rl.windows, 2)

	rl.evict(epoch.Add(2 * time.Minute))
	assert.NotContains(t, rl.windows, "idle")
	assert.Contains(t, rl.windows, "busy")

	// An evicted key starts over with a full allowance.
	_, _, ok = rl.allow("idle", epoch.Add(2*time.Minute))
	assert.True(t, ok)
}
