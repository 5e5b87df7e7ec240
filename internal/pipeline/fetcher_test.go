package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/truthledger/internal/cache"
	"github.com/ppiankov/truthledger/internal/model"
	"github.com/ppiankov/truthledger/internal/util"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testHTTPConfig(retries int) model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
		MaxBodyBytes: 1 << 20,
		MaxRetries:   retries,
	}
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { fetchSleepFunc = origSleep })
	return &slept
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(0))
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.HTML != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected HTML: %s", result.HTML)
	}
	if result.Meta.StatusCode != http.StatusOK || result.Meta.ContentType != "text/html" {
		t.Errorf("Unexpected meta: %+v", result.Meta)
	}
}

func TestFetchWithRetry_NoRetriesByDefault(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	slept := stubSleep(t)

	fetcher := NewFetcher(testHTTPConfig(0))
	if _, err := fetcher.FetchWithRetry(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error for 503")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no sleeps, got %v", *slept)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	slept := stubSleep(t)

	fetcher := NewFetcher(testHTTPConfig(2))
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if result.HTML != "<html>OK</html>" {
		t.Errorf("Unexpected HTML: %s", result.HTML)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
	if len(*slept) != 2 || (*slept)[0] != retryBackoff || (*slept)[1] != 2*retryBackoff {
		t.Errorf("Expected linear backoff, got %v", *slept)
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	stubSleep(t)

	fetcher := NewFetcher(testHTTPConfig(2))
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	// 404 is not retryable, so should fail immediately
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	stubSleep(t)

	fetcher := NewFetcher(testHTTPConfig(2))
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 StatusError, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	stubSleep(t)

	fetcher := NewFetcher(testHTTPConfig(1))
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if result.HTML != "<html>OK</html>" {
		t.Errorf("Unexpected HTML: %s", result.HTML)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789abcdef")
	}))
	defer server.Close()

	core, logs := observer.New(zap.WarnLevel)
	cfg := testHTTPConfig(0)
	cfg.MaxBodyBytes = 10
	result, err := NewFetcher(cfg, WithLogger(zap.New(core))).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.HTML != "0123456789" {
		t.Errorf("Expected truncated body, got %q", result.HTML)
	}
	if n := logs.FilterMessage("page truncated at body limit").Len(); n != 1 {
		t.Errorf("Expected 1 truncation warning, got %d", n)
	}
}

func TestFetch_BodyExactlyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	core, logs := observer.New(zap.WarnLevel)
	cfg := testHTTPConfig(0)
	cfg.MaxBodyBytes = 10
	result, err := NewFetcher(cfg, WithLogger(zap.New(core))).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.HTML != "0123456789" {
		t.Errorf("Expected full body, got %q", result.HTML)
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no warnings, got %v", logs.All())
	}
}

func TestFetch_DecodesDeclaredCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>The minist\xe8re said the caf\xe9 will reopen soon.</p>"))
	}))
	defer server.Close()

	result, err := NewFetcher(testHTTPConfig(0)).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !utf8.ValidString(result.HTML) {
		t.Fatalf("Expected valid UTF-8, got %q", result.HTML)
	}
	if result.HTML != "<p>The ministère said the café will reopen soon.</p>" {
		t.Errorf("Unexpected HTML %q", result.HTML)
	}
}

func TestFetch_DecodesMetaCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><meta charset=\"iso-8859-1\"></head><body><p>caf\xe9</p></body></html>"))
	}))
	defer server.Close()

	result, err := NewFetcher(testHTTPConfig(0)).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(result.HTML, "<p>café</p>") {
		t.Errorf("Expected decoded paragraph, got %q", result.HTML)
	}
}

func TestFetch_KeepsUndeclaredUTF8(t *testing.T) {
	// Non-ASCII text appears only after the first 1024 bytes
	body := "<html><body><p>" + strings.Repeat("a", 2000) + "</p><p>The café said “soon”.</p></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, body)
	}))
	defer server.Close()

	result, err := NewFetcher(testHTTPConfig(0)).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.HTML != body {
		t.Errorf("UTF-8 body was altered: %q", result.HTML[len(result.HTML)-40:])
	}
}

func TestTrimPartialRune(t *testing.T) {
	cut := []byte("caf\xc3") // first byte of é
	if got := string(trimPartialRune(cut)); got != "caf" {
		t.Errorf("Expected partial rune dropped, got %q", got)
	}
	whole := []byte("café")
	if got := string(trimPartialRune(whole)); got != "café" {
		t.Errorf("Expected complete text kept, got %q", got)
	}
}

func TestFetch_RedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig(0)).Fetch(context.Background(), server.URL+"/r")
	if err == nil {
		t.Fatal("Expected error after too many redirects")
	}
}

func TestFetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "moved")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	result, err := NewFetcher(testHTTPConfig(0)).Fetch(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.FinalURL != server.URL+"/new" {
		t.Errorf("Expected final URL %s/new, got %s", server.URL, result.FinalURL)
	}
}

func TestFetch_CacheServesRepeatedURL(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = fmt.Fprint(w, "<p>cached page</p>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(0), WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))

	first, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("first Fetch failed: %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}

	if attempts.Load() != 1 {
		t.Errorf("Expected 1 network request, got %d", attempts.Load())
	}
	if first.Meta.FromCache || !second.Meta.FromCache {
		t.Errorf("Expected only the second fetch from cache: %v %v", first.Meta.FromCache, second.Meta.FromCache)
	}
	if second.HTML != first.HTML {
		t.Errorf("Cached HTML differs: %q vs %q", second.HTML, first.HTML)
	}
}

func TestFetch_RobotsBlocked(t *testing.T) {
	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, "secret")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(2), WithRobots(util.NewRobotsChecker("test-agent", time.Second)))
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/private/page")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("Expected ErrBlocked, got %v", err)
	}
	if classifyFetchError(err) != model.FetchBlocked {
		t.Errorf("Expected blocked status, got %s", classifyFetchError(err))
	}
	if pageHits.Load() != 0 {
		t.Errorf("Blocked page was requested %d times", pageHits.Load())
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{Code: 503, Status: "503 Service Unavailable"}, true},
		{"500", &StatusError{Code: 500, Status: "500 Internal Server Error"}, true},
		{"502", &StatusError{Code: 502, Status: "502 Bad Gateway"}, true},
		{"429", &StatusError{Code: 429, Status: "429 Too Many Requests"}, true},
		{"404", &StatusError{Code: 404, Status: "404 Not Found"}, false},
		{"403", &StatusError{Code: 403, Status: "403 Forbidden"}, false},
		{"401", &StatusError{Code: 401, Status: "401 Unauthorized"}, false},
		{"connection refused", &transportError{err: errors.New("connection refused")}, true},
		{"connection reset", &transportError{err: errors.New("connection reset by peer")}, true},
		{"cancelled", &transportError{err: context.Canceled}, false},
		{"create request", fmt.Errorf("create request: %w", errors.New("invalid URL")), false},
		{"read body", fmt.Errorf("read body: %w", errors.New("unexpected EOF")), false},
		{"blocked", fmt.Errorf("x: %w", ErrBlocked), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isRetryableFetchError(tt.err)
			if got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestIsRetryableFetchError_Nil(t *testing.T) {
	if isRetryableFetchError(nil) {
		t.Error("Expected nil error to not be retryable")
	}
}
