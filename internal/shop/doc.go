// Package shop provides the resilient HTTP client for the storefront REST API.
//
// # Overview
//
// Every network call the application makes goes through Client.Request. It
// joins a path onto the configured base URL, attaches the bearer token from a
// TokenStore, applies a per-request timeout and returns either a decoded JSON
// body or a *Error with a normalized status.
//
// The package is split into:
//
//   - client.go: request construction, timeouts and response decoding
//   - errors.go: the *Error type and its failure classification
//   - retry.go: exponential backoff over retryable failures
//   - batch.go: windowed concurrent execution of many jobs
//   - multipart.go: pre-encoded multipart bodies for uploads
//   - token.go: the bearer token, written through to durable storage
//   - types.go: payloads mirroring the API schema
//
// # Client Usage
//
//	client, err := shop.NewClient("http://127.0.0.1:8080",
//		shop.WithTokenStore(tokens),
//		shop.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//
//	var out shop.ListResponse[shop.Product]
//	if err := client.RequestWithRetry(ctx, shop.Request{Path: "/api/products"}, &out); err != nil {
//		return err
//	}
//
// # Error Classification
//
// Status is the HTTP status for non-2xx responses. Two synthetic values cover
// failures with no response:
//
//   - 0 (StatusNetwork): connection failures, a cancelled caller context,
//     and 2xx bodies that fail to decode
//   - 408 (StatusTimeout): the request's own budget expired
//
// Kind groups statuses into network, timeout, rate limited (429), server
// fault (5xx) and client rejection (other 4xx). Everything except a client
// rejection is retryable.
//
// Message comes from the "message" or "error" field of a JSON error body,
// falling back to the status text. Detail keeps the raw JSON body.
//
// # Retry
//
// Retry runs an operation up to MaxAttempts times. Attempt k waits
// BaseDelay × Multiplier^(k-2) before running; the first attempt never waits.
// Non-retryable errors and errors that are not *Error stop immediately. A
// cancelled context ends the wait and returns the last failure.
//
// # Batch
//
// RunBatch splits jobs into windows of Concurrency. A window runs on a conc
// pool and must finish before the next window starts. Results and errors are
// index-aligned with the input regardless of completion order. FailFast
// cancels the remaining jobs of the window on the first failure and skips
// every later window.
//
// # Thread Safety
//
// Client and TokenStore are safe for concurrent use.
package shop
