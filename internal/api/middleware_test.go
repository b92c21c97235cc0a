package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestClientIPRemoteAddr(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:12345", "::1"},
		{"192.168.1.1", "192.168.1.1"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.remoteAddr}
		got := clientIP(r, false)
		if got != tt.want {
			t.Errorf("clientIP(%q, false) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

func TestClientIPTrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"XFF single IP", "1.2.3.4", "", "10.0.0.1:1234", "1.2.3.4"},
		{"XFF multiple IPs takes first", "1.2.3.4, 10.0.0.1, 10.0.0.2", "", "10.0.0.3:1234", "1.2.3.4"},
		{"X-Real-IP fallback", "", "5.6.7.8", "10.0.0.1:1234", "5.6.7.8"},
		{"XFF takes precedence over X-Real-IP", "1.2.3.4", "5.6.7.8", "10.0.0.1:1234", "1.2.3.4"},
		{"garbage XFF falls through to X-Real-IP", "<script>", "5.6.7.8", "10.0.0.1:1234", "5.6.7.8"},
		{"garbage headers fall back to RemoteAddr", "unknown", "n/a", "10.0.0.1:1234", "10.0.0.1"},
		{"IPv6 XFF", "2001:db8::1", "", "10.0.0.1:1234", "2001:db8::1"},
		{"no proxy headers falls back to RemoteAddr", "", "", "10.0.0.1:1234", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{
				RemoteAddr: tt.remoteAddr,
				Header:     http.Header{},
			}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			got := clientIP(r, true)
			if got != tt.want {
				t.Errorf("clientIP(trustProxy=true) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIPIgnoresHeadersWhenNotTrusted(t *testing.T) {
	r := &http.Request{
		RemoteAddr: "10.0.0.1:1234",
		Header:     http.Header{},
	}
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Set("X-Real-IP", "5.6.7.8")

	got := clientIP(r, false)
	if got != "10.0.0.1" {
		t.Errorf("clientIP(trustProxy=false) = %q, want %q (should ignore headers)", got, "10.0.0.1")
	}
}

func TestRequestLimiter(t *testing.T) {
	l := newRequestLimiter(2, 3)

	if !l.acquire("a") || !l.acquire("a") {
		t.Fatal("first two acquisitions for a should succeed")
	}
	if l.acquire("a") {
		t.Error("third acquisition for a should hit the per-IP limit")
	}
	if !l.acquire("b") {
		t.Fatal("first acquisition for b should succeed")
	}
	if l.acquire("c") {
		t.Error("acquisition for c should hit the global limit")
	}

	l.release("a")
	if got := l.count("a"); got != 1 {
		t.Errorf("count(a) = %d, want 1", got)
	}
	if !l.acquire("c") {
		t.Error("acquisition for c should succeed after a release")
	}

	l.release("b")
	if got := l.count("b"); got != 0 {
		t.Errorf("count(b) = %d, want 0", got)
	}
	if _, ok := l.inFlight["b"]; ok {
		t.Error("released IP should be removed from the map")
	}
}

func TestRequestLimiterConcurrent(t *testing.T) {
	l := newRequestLimiter(1000, 1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.acquire("x") {
				l.release("x")
			}
		}()
	}
	wg.Wait()
	if got := l.count("x"); got != 0 {
		t.Errorf("count(x) = %d after all releases, want 0", got)
	}
}

func TestLimitRejectsExcess(t *testing.T) {
	l := newRequestLimiter(1, 10)
	release := make(chan struct{})
	entered := make(chan struct{})
	h := l.limit(false, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	})

	done := make(chan int)
	go func() {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/api/v1/groundtrack", nil))
		done <- w.Code
	}()
	<-entered

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/v1/groundtrack", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	close(release)
	if code := <-done; code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := loggingMiddleware(logger, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/propagate/25544", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"status":"418"`, `"remote_ip":"203.0.113.7"`, `"path":"/api/v1/propagate/25544"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}

	// Probes log at debug, below the default handler level.
	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if buf.Len() != 0 {
		t.Errorf("probe request logged at info: %q", buf.String())
	}
}

func TestTracingMiddlewarePassesThrough(t *testing.T) {
	h := tracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}
