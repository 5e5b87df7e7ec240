package pipeline

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/truthledger/internal/cache"
	"github.com/ppiankov/truthledger/internal/metrics"
	"github.com/ppiankov/truthledger/internal/model"
	"github.com/ppiankov/truthledger/internal/util"
	"github.com/ppiankov/truthledger/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// fetchSleepFunc is the sleep used between retries; tests replace it
var fetchSleepFunc = time.Sleep

// retryBackoff is multiplied by the attempt number between retries
const retryBackoff = 500 * time.Millisecond

// maxRedirects is the number of redirects followed before giving up
const maxRedirects = 3

// ErrBlocked is returned when robots.txt disallows the URL
var ErrBlocked = errors.New("disallowed by robots.txt")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// transportError marks failures of the HTTP round trip itself
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "fetch: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// Fetcher fetches HTML content from URLs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	cache      cache.Cache
	logger     *zap.Logger
}

// FetcherOption configures optional Fetcher collaborators
type FetcherOption func(*Fetcher)

// WithLimiter rate limits requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRobots checks robots.txt before every request
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithCache serves repeated fetches of a URL from c
func WithCache(c cache.Cache) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via http.insecure_tls
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: max(0, cfg.MaxRetries),
		cache:      cache.Nop{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML     string          `json:"html"`
	Meta     model.FetchMeta `json:"meta"`
	FinalURL string          `json:"final_url"`
}

// Fetch retrieves HTML content from the given URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	start := time.Now()
	key := cache.PageKey(rawURL)

	if data, ok := f.cache.Get(key); ok {
		var cached FetchResult
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Meta.FromCache = true
			metrics.RecordFetch("cache", time.Since(start).Seconds())
			f.logger.Debug("page served from cache", zap.String("url", rawURL))
			return &cached, nil
		}
		_ = f.cache.Delete(key)
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrBlocked)
		}
		crawlDelay = delay
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// Read one byte past the limit to tell a truncated page from an exact fit
	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > f.maxBytes {
		raw = raw[:f.maxBytes]
		f.logger.Warn("page truncated at body limit",
			zap.String("url", rawURL),
			zap.Int64("max_body_bytes", f.maxBytes))
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	result := &FetchResult{
		HTML: string(body),
		Meta: model.FetchMeta{
			StatusCode:   resp.StatusCode,
			ContentType:  contentType,
			LastModified: resp.Header.Get("Last-Modified"),
		},
		FinalURL: resp.Request.URL.String(),
	}
	metrics.RecordFetch("network", time.Since(start).Seconds())

	if data, err := json.Marshal(result); err == nil {
		if err := f.cache.Set(key, data, 0); err != nil {
			f.logger.Warn("cache page", zap.String("url", rawURL), zap.Error(err))
		}
	}

	return result, nil
}

// decodeBody converts the page to UTF-8. A charset declared in the
// Content-Type header always wins; otherwise a body that is already valid
// UTF-8 is kept as is and anything else goes through the <meta> prescan.
func decodeBody(raw []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(trimPartialRune(raw))) {
		return raw, nil
	}
	return enc.NewDecoder().Bytes(raw)
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of b
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

// FetchWithRetry retries transient failures up to the configured retry count
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * retryBackoff
			f.logger.Debug("retrying fetch",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			fetchSleepFunc(delay)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether err is worth another attempt:
// 5xx, 429 and transport failures. Other 4xx, robots blocks and
// request construction errors are final.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var tErr *transportError
	return errors.As(err, &tErr)
}

// classifyFetchError maps a fetch error to the status reported for the URL
func classifyFetchError(err error) model.FetchStatus {
	if errors.Is(err, ErrBlocked) {
		return model.FetchBlocked
	}
	return model.FetchError
}
