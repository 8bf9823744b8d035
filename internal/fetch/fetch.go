package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/newsdrift/contentpipeline/internal/cache"
	"github.com/newsdrift/contentpipeline/internal/robots"
)

// Identity selects which request fingerprint the client presents. The set is
// closed: strategies map onto it one-to-one.
type Identity int

const (
	// IdentityBasic sends a stable user agent and default browser headers.
	IdentityBasic Identity = iota
	// IdentityEnhanced rotates the user agent per request and derives a
	// Referer from the target host.
	IdentityEnhanced
	// IdentityBrowser layers navigation fetch-metadata headers on top of the
	// enhanced identity. This is the closest portable stand-in for a
	// challenge-solving client; no JavaScript is executed.
	IdentityBrowser
)

// ErrDisallowedByRobots marks URLs the robots gate refused; they are never
// fetched and never retried.
var ErrDisallowedByRobots = errors.New("fetch: disallowed by robots.txt")

// defaultUserAgents is the rotation pool used when the caller supplies none.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
}

const (
	defaultRedirectHops  = 5
	initialRetryInterval = 200 * time.Millisecond
	maxRetryInterval     = 5 * time.Second
)

// Client wraps http.Client with rotating identity headers, bounded retry on
// transient errors, per-request timeouts, and an optional conditional cache
// and robots gate. The zero value is usable.
type Client struct {
	HTTPClient *http.Client
	// UserAgents overrides the default rotation pool.
	UserAgents []string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each individual request.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// Cache, when set, serves conditional revalidation from disk.
	Cache *cache.Store
	// Robots, when set, is consulted before every fetch. Lookup failures
	// fail open; explicit disallows fail closed.
	Robots *robots.Gate
}

// Get fetches a URL with the basic identity.
func (c *Client) Get(ctx context.Context, target string) ([]byte, string, error) {
	return c.Fetch(ctx, target, IdentityBasic)
}

// Fetch issues a GET with the chosen identity, retrying transient failures
// (5xx, 429, timeouts, connection resets) with exponential backoff. Permanent
// failures such as 4xx responses or unsupported schemes return immediately.
func (c *Client) Fetch(ctx context.Context, target string, id Identity) ([]byte, string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", target)
	}

	if c.Robots != nil {
		allowed, err := c.Robots.Allowed(ctx, target)
		if err == nil && !allowed {
			return nil, "", ErrDisallowedByRobots
		}
	}

	var etag, lastMod string
	if c.Cache != nil {
		if meta, err := c.Cache.LoadMeta(ctx, target); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	var body []byte
	var contentType string
	op := func() error {
		b, ct, newEtag, newLastMod, status, err := c.tryOnce(ctx, target, id, etag, lastMod)
		if err != nil {
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if status == http.StatusNotModified {
			if c.Cache != nil {
				if cached, err := c.Cache.LoadBody(ctx, target); err == nil {
					body, contentType = cached, ct
					return nil
				}
			}
			// Revalidation succeeded but the cached body is gone; refetch
			// without validators so a 304 cannot become an empty success.
			b, ct, newEtag, newLastMod, status, err = c.tryOnce(ctx, target, id, "", "")
			if err != nil {
				if isTransient(err) {
					return err
				}
				return backoff.Permanent(err)
			}
		}
		if c.Cache != nil && status == http.StatusOK {
			_ = c.Cache.Save(ctx, target, ct, newEtag, newLastMod, b)
		}
		body, contentType = b, ct
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialRetryInterval
	bo.MaxInterval = maxRetryInterval
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func (c *Client) tryOnce(ctx context.Context, target string, id Identity, etag, lastMod string) ([]byte, string, string, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", "", "", 0, fmt.Errorf("new request: %w", err)
	}
	c.setIdentityHeaders(req, id)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	httpClient := c.getHTTPClient()
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", "", "", 0, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		// No body expected on 304.
		return nil, resp.Header.Get("Content-Type"), resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), resp.StatusCode, nil
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", "", "", resp.StatusCode, &statusError{status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", "", "", resp.StatusCode, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, "", "", "", resp.StatusCode, fmt.Errorf("unsupported content type: %s", contentType)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return b, contentType, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), resp.StatusCode, nil
}

func (c *Client) setIdentityHeaders(req *http.Request, id Identity) {
	pool := c.UserAgents
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	ua := pool[0]
	if id != IdentityBasic {
		ua = pool[rand.Intn(len(pool))]
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if id != IdentityBasic && req.URL != nil {
		req.Header.Set("Referer", "https://"+req.URL.Host+"/")
	}
	if id == IdentityBrowser {
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Sec-Fetch-Site", "none")
		req.Header.Set("Sec-Fetch-User", "?1")
	}
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating the caller's
		// client.
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	maxHops := c.RedirectMaxHops
	if maxHops <= 0 {
		maxHops = defaultRedirectHops
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxHops {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

// statusError carries a retryable HTTP status through the backoff loop.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error: %d", e.status)
}

func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
