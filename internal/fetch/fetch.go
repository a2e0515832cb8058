// Package fetch provides the HTTP client used to retrieve candidate
// documents. Connect and read waits are bounded separately: a slow server
// accepting the connection and a slow body have different causes and
// different acceptable waits.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultConnectTimeout = 3 * time.Second
	defaultReadTimeout    = 10 * time.Second
	maxBodyBytes          = 4 << 20 // recipe pages beyond 4 MiB are not worth parsing
)

// ErrDisallowed marks a URL the host's crawl rules exclude.
var ErrDisallowed = errors.New("disallowed by robots rules")

// Permission gates fetches on per-host crawl rules. Satisfied by
// *robots.Manager.
type Permission interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

// Client wraps http.Client with split timeouts, limited retry on transient
// errors, and an optional concurrency gate.
type Client struct {
	// Permission, when set, is consulted before any request goes out.
	Permission Permission
	// HTTPClient overrides the built-in transport when set (tests).
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// ConnectTimeout bounds dialing; zero means 3s.
	ConnectTimeout time.Duration
	// ReadTimeout bounds waiting for and reading the response; zero means 10s.
	ReadTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
	clientOnce  sync.Once
	client      *http.Client
}

func (c *Client) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return defaultConnectTimeout
}

func (c *Client) readTimeout() time.Duration {
	if c.ReadTimeout > 0 {
		return c.ReadTimeout
	}
	return defaultReadTimeout
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	c.clientOnce.Do(func() {
		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: c.connectTimeout(),
			}).DialContext,
			TLSHandshakeTimeout:   c.connectTimeout(),
			ResponseHeaderTimeout: c.readTimeout(),
			MaxIdleConns:          32,
			IdleConnTimeout:       30 * time.Second,
		}
		c.client = &http.Client{
			Transport:     transport,
			CheckRedirect: c.checkRedirectFunc(),
		}
	})
	return c.client
}

// Get issues a GET with context, user-agent, and bounded retry for
// transient errors. It returns the body and content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.Permission != nil {
		// The rules check is advisory on error: an unreachable robots.txt
		// never blocks the fetch.
		if ok, _ := c.Permission.Allowed(ctx, rawURL); !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, ct, err := c.tryOnce(ctx, rawURL)
		if err == nil {
			return body, ct, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, "", lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) ([]byte, string, error) {
	c.acquire()
	defer c.release()

	// The deadline covers the whole attempt: dial plus body read.
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout()+c.readTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, "", fmt.Errorf("rate limited: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, "", fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedContentType(contentType) {
		return nil, "", fmt.Errorf("unsupported content type: %s", contentType)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return b, contentType, nil
}

// isTransient reports whether an error is worth another attempt: deadline
// expiry, 5xx, and rate limiting.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "server error:") || strings.Contains(msg, "rate limited:")
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
