package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testContext(remoteAddr, xff string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	c.Request = req
	return c
}

// TestClientIP_PrefersForwardedFor uses the first forwarded entry, trimmed.
func TestClientIP_PrefersForwardedFor(t *testing.T) {
	c := testContext("10.0.0.1:5555", "  192.168.0.9 , 10.0.0.2")
	if got := ClientIP(c); got != "192.168.0.9" {
		t.Fatalf("ClientIP = %q", got)
	}
}

// TestClientIP_FallsBackToPeer strips the port from the transport address.
func TestClientIP_FallsBackToPeer(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:40000": "127.0.0.1",
		"[::1]:40000":     "::1",
		"192.168.0.4":     "192.168.0.4",
	}
	for remote, want := range tests {
		if got := ClientIP(testContext(remote, "")); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", remote, got, want)
		}
	}
}

// TestRateLimiter_PerClient exhausts one client's burst without touching another's.
func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(4)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("a") {
		t.Fatal("burst should be exhausted")
	}
	if !l.Allow("b") {
		t.Fatal("other client should be unaffected")
	}

	now = now.Add(15 * time.Second)
	if !l.Allow("a") {
		t.Fatal("token should refill after a quarter minute")
	}
}

// TestRateLimiter_Middleware answers 429 once the bucket is empty.
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", NewRateLimiter(1).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 429]", codes)
	}
}

// TestAdminRequired_RedirectsAnonymous never reaches the handler without a session.
func TestAdminRequired_RedirectsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false
	r.POST("/reset", AdminRequired(), func(c *gin.Context) { reached = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reset", nil))
	if reached {
		t.Fatal("handler ran for an anonymous request")
	}
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("got %d %q, want 302 /login", w.Code, w.Header().Get("Location"))
	}
}
