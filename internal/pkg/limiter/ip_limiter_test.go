package limiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"majlis/internal/pkg/errs"
)

func TestMiddlewareLimitsPerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(0.001), 2)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("198.51.100.7:1000").Code)
	assert.Equal(t, http.StatusNoContent, call("198.51.100.7:1001").Code)

	rejected := call("198.51.100.7:1002")
	require.Equal(t, http.StatusTooManyRequests, rejected.Code)

	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rejected.Body).Decode(&body))
	assert.Equal(t, errs.ErrRateLimitExceeded, body.Code)

	assert.Equal(t, http.StatusNoContent, call("198.51.100.8:1000").Code)
}

func TestGetLimiterReusesBucket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewIPRateLimiter(ctx, rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
	assert.NotSame(t, l.GetLimiter("a"), l.GetLimiter("b"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:4444"
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(r))
}
