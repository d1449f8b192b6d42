package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	rl.now = c.now
	t.Cleanup(rl.Stop)
	return rl, c
}

func TestAllow_Window(t *testing.T) {
	rl, c := newTestLimiter(t, 2)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are counted separately")
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window should reset the count")
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, c := newTestLimiter(t, 5)

	rl.Allow("old")
	c.t = c.t.Add(11 * time.Minute)
	rl.Allow("fresh")

	rl.cleanupStaleEntries()

	if n := rl.ActiveClients(); n != 1 {
		t.Errorf("ActiveClients = %d, want 1", n)
	}
}

func TestWrap(t *testing.T) {
	rl, c := newTestLimiter(t, 1)
	key := func(*http.Request) string { return "client" }
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

	h := rl.Wrap(ok, key, nil)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	c.t = c.t.Add(15 * time.Second)
	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "45" {
		t.Errorf("Retry-After = %q, want 45", got)
	}
}

func TestStopTwice(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
