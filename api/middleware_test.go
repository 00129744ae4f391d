package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit_PerClient(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimit(1, 2)(ok)

	call := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	// GIVEN: a burst of two
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)

	// WHEN: the same client calls again at once
	rec := call("10.0.0.1")

	// THEN: 429, while another client is unaffected
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimit(0, 0)(ok)
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRemoteIP_IgnoresProxyHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Real-IP", "198.51.100.7")
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "192.0.2.1", remoteIP(r))
}

func TestRateLimit_ForwardedForCannotRotateBuckets(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimit(1, 1)(ok)

	// GIVEN: one client that sends a fresh X-Forwarded-For on every call
	codes := make([]int, 3)
	for i := range codes {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes[i] = rec.Code
	}

	// THEN: the header is ignored and the bucket empties
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRouter_TrustProxyUsesForwardedAddress(t *testing.T) {
	// GIVEN: a router behind a trusted proxy with a burst of one
	h := &Handler{Auth: NewAuthenticator(testSecret, time.Hour), Log: zerolog.Nop()}
	router := NewRouter(h, RouterOptions{RateLimitRPS: 1, RateLimitBurst: 1, TrustProxy: true})
	call := func(client string) int {
		r := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
		r.RemoteAddr = "10.0.0.254:443"
		r.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)
		return rec.Code
	}

	// WHEN / THEN: clients behind the same proxy get their own buckets
	assert.NotEqual(t, http.StatusTooManyRequests, call("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.1"))
	assert.NotEqual(t, http.StatusTooManyRequests, call("203.0.113.2"))
}

func TestClientLimiters_EvictsIdleClients(t *testing.T) {
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	c := newClientLimiters(1, 1, time.Minute, func() time.Time { return now })

	// GIVEN: two clients seen at 08:00 and one more half a minute later
	first := c.get("a")
	c.get("b")
	now = now.Add(30 * time.Second)
	c.get("a")
	assert.Equal(t, 2, c.size())

	// WHEN: a new client arrives after "b" has been idle a full minute
	now = now.Add(40 * time.Second)
	c.get("c")

	// THEN: only "b" is dropped, and "a" keeps its bucket
	assert.Equal(t, 2, c.size())
	assert.Same(t, first, c.get("a"))
}

func TestLogger_LogsStatus(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"route":"/x"`)
}
