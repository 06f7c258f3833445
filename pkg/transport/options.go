package transport

import (
	"log/slog"
	"net/http"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Useful for custom
// transports, proxies, or testing. Nil clients are ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCircuitBreaker enables fail-fast protection against a consistently
// failing backend. The breaker only counts network-level and 5xx failures.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// requestOptions holds per-request overrides.
type requestOptions struct {
	headers map[string]string
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

// WithHeader adds a header to one request. Standard headers (content type,
// authorization) are managed by the client and take precedence.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}
