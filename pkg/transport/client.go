package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/storekit/pkg/session"
)

const (
	// headerGuestCart identifies an anonymous cart session when no bearer
	// token is held.
	headerGuestCart = "X-Cart-Session"

	defaultUserAgent = "storekit/1.0"

	// maxBodyBytes caps response body reads to prevent memory exhaustion.
	maxBodyBytes = 1 << 20
)

// Response is a completed HTTP exchange. Bodies are fully read and buffered
// so callers never manage the underlying stream.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("transport: empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

func (r *Response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// refreshOutcome is the settled result of one refresh call, broadcast to
// every request that waited on it.
type refreshOutcome struct {
	token string
	err   error
}

// Client performs authenticated storefront API calls. Zero value is not
// usable; construct with New. All methods are safe for concurrent use.
type Client struct {
	baseURL     string
	refreshPath string
	timeout     time.Duration
	userAgent   string

	http    *http.Client
	sess    *session.Session
	log     *slog.Logger
	breaker *CircuitBreaker

	// refreshMu guards the single-flight refresh state: at most one refresh
	// call is in flight process-wide, and requests that observe one in
	// progress park on a buffered channel appended to waiters.
	refreshMu  sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

// New creates a client for the given API and session. The default HTTP
// client carries a cookie jar so the refresh credential (an HTTP-only
// cookie) rides along automatically.
func New(cfg Config, sess *session.Session, opts ...Option) (*Client, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidConfiguration)
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfiguration, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL must use http or https", ErrInvalidConfiguration)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base URL host is required", ErrInvalidConfiguration)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/refresh"
	}

	// cookiejar.New never fails with nil options.
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		refreshPath: cfg.RefreshPath,
		timeout:     cfg.RequestTimeout,
		userAgent:   defaultUserAgent,
		sess:        sess,
		log:         slog.New(slog.DiscardHandler),
		http: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do sends one API request. body is marshaled to JSON when non-nil. A 2xx
// response is returned as-is; everything else is normalized into the
// package's error taxonomy. When the session holds a token and the server
// answers 401, the client refreshes the token (sharing a single refresh
// across concurrent requests) and retries exactly once.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	reqOpts := &requestOptions{headers: make(map[string]string)}
	for _, opt := range opts {
		opt(reqOpts)
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("transport: marshal request body: %w", err)
		}
		payload = b
	}

	if c.breaker != nil && !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	token := c.sess.Token()
	resp, err := c.attempt(ctx, method, path, payload, token, reqOpts)
	c.observe(resp, err)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.ok():
		return resp, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		// Retrying a rate-limited request would amplify load.
		return nil, fmt.Errorf("%w: %s %s", ErrRateLimited, method, path)
	case resp.StatusCode == http.StatusUnauthorized && token != "" && path != c.refreshPath:
		return c.retryAfterRefresh(ctx, method, path, payload, token, reqOpts)
	default:
		// Guest 401s land here too: an anonymous request is expected to be
		// rejected by protected endpoints and never triggers a refresh.
		return nil, c.normalizeError(resp)
	}
}

// retryAfterRefresh resolves a 401 on an authenticated request: obtain a
// fresh token (owning the refresh or waiting for the in-flight one), then
// retry the original request once. When the session already holds a token
// newer than the one the failed attempt used, that token is reused without
// another refresh call.
func (c *Client) retryAfterRefresh(ctx context.Context, method, path string, payload []byte, staleToken string, reqOpts *requestOptions) (*Response, error) {
	token := c.sess.Token()
	if token == "" || token == staleToken {
		var err error
		token, err = c.refreshToken(ctx)
		if err != nil {
			return nil, errors.Join(ErrAuthenticationFailed, err)
		}
	}

	resp, err := c.attempt(ctx, method, path, payload, token, reqOpts)
	c.observe(resp, err)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.ok():
		return resp, nil
	case resp.StatusCode == http.StatusUnauthorized:
		// Already retried once; a second 401 means the fresh token is not
		// accepted either. Never refresh twice for one request.
		return nil, fmt.Errorf("%w: request unauthorized after token refresh", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s %s", ErrRateLimited, method, path)
	default:
		return nil, c.normalizeError(resp)
	}
}

// refreshToken returns a fresh access token, guaranteeing at most one
// refresh call in flight process-wide. The first caller owns the network
// call; every caller arriving while it runs parks on a buffered channel and
// is released in arrival order with the shared outcome.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if c.refreshing {
		ch := make(chan refreshOutcome, 1)
		c.waiters = append(c.waiters, ch)
		c.refreshMu.Unlock()

		select {
		case out := <-ch:
			return out.token, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.refreshMu.Unlock()

	token, err := c.callRefresh(ctx)
	if err != nil {
		// The session was believed valid and is not: tear it down and let
		// every subscriber know. Guest requests never reach this path, so
		// the logout broadcast always reflects a real session loss.
		c.sess.Invalidate()
		c.log.Warn("token refresh failed", slog.String("error", err.Error()))
	} else {
		c.sess.SetToken(token)
		c.log.Debug("access token refreshed")
	}

	out := refreshOutcome{token: token, err: err}

	c.refreshMu.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.refreshMu.Unlock()

	// Buffered channels: releasing in slice order preserves arrival order
	// without blocking on any single receiver.
	for _, ch := range waiters {
		ch <- out
	}

	return token, err
}

// callRefresh performs the actual refresh endpoint call. No Authorization
// header is attached: the endpoint authenticates via the HTTP-only cookie on
// the client's jar. A non-2xx answer here is final; nested refreshes are
// never attempted.
func (c *Client) callRefresh(ctx context.Context) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+c.refreshPath, nil)
	if err != nil {
		return "", fmt.Errorf("transport: build refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Join(ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", errors.Join(ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transport: refresh endpoint returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("transport: decode refresh response: %w", err)
	}
	if envelope.Data.AccessToken == "" {
		return "", errors.New("transport: refresh response missing access token")
	}
	return envelope.Data.AccessToken, nil
}

// attempt executes a single HTTP exchange with the given token snapshot.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, token string, reqOpts *requestOptions) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	for k, v := range reqOpts.headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set(headerGuestCart, c.sess.GuestID())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connectivity failures look the same to callers: the
		// request produced no response.
		return nil, errors.Join(ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}

	c.log.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// observe feeds the circuit breaker. Only network-level failures and 5xx
// responses count against the backend; 4xx responses are the caller's fault.
func (c *Client) observe(resp *Response, err error) {
	if c.breaker == nil {
		return
	}
	if err != nil || (resp != nil && resp.StatusCode >= 500) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

// normalizeError converts a non-2xx response into an *APIError, preferring
// the server-provided message and field detail when present.
func (c *Client) normalizeError(resp *Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error *struct {
			Message string            `json:"message"`
			Fields  map[string]string `json:"fields"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		switch {
		case envelope.Error != nil && envelope.Error.Message != "":
			apiErr.Message = envelope.Error.Message
			apiErr.FieldErrors = envelope.Error.Fields
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
