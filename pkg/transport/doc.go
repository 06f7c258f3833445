// Package transport provides the authenticated HTTP client used by every
// storefront API call.
//
// The client attaches the session's bearer token when one is held, and the
// guest cart session header when not. On a 401 response for an authenticated
// request it transparently refreshes the access token and retries the
// original request exactly once. Any number of requests can hit a 401 at the
// same time; only one refresh call is ever in flight, and the remaining
// requests wait for its outcome in arrival order.
//
// # Usage
//
//	sess := session.New()
//	client, err := transport.New(transport.Config{
//		BaseURL:        "https://api.shop.example",
//		RequestTimeout: 15 * time.Second,
//	}, sess)
//	if err != nil {
//		// handle error
//	}
//
//	resp, err := client.Get(ctx, "/cart")
//
// # Error classification
//
// Expected HTTP failures never surface as raw status codes. The client
// normalizes them into a small taxonomy callers can branch on with errors.Is:
//
//   - ErrNetwork: no response was received (connectivity, timeout).
//   - ErrRateLimited: HTTP 429; never retried automatically.
//   - ErrAuthenticationFailed: the token refresh failed; the session has
//     been torn down and a logout event broadcast.
//   - ErrValidation / ErrServer: normalized *APIError for other 4xx/5xx
//     responses, carrying the server-provided message and field errors.
//
// A 401 on an anonymous (guest) request is expected and does not trigger a
// refresh; it is returned as a plain *APIError.
//
// # Circuit breaker
//
// An optional circuit breaker (WithCircuitBreaker) fails calls fast once the
// backend has produced a run of network-level or 5xx failures. It is off by
// default and never counts 4xx responses as failures.
package transport
