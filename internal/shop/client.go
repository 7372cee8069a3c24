package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the storefront REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    *TokenStore
	retry     RetryPolicy
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

const (
	defaultAPIBase   = "http://127.0.0.1:8080"
	defaultUserAgent = "stockroom/0.1"
	// DefaultTimeout is the per-request budget when neither the client nor
	// the request sets one.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 8 << 20
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client. Its Timeout should be zero;
// the per-request budget is applied through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore sets where the bearer token is read from.
func WithTokenStore(ts *TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout sets the default per-request budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryPolicy sets the policy used by RequestWithRetry and Batch.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p.normalize() }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a Client rooted at apiBase ("host:port" or a full URL,
// optionally with a path prefix).
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		retry:     DefaultRetryPolicy(),
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = &TokenStore{}
	}
	return c, nil
}

// Tokens exposes the client's token store.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// Request describes a single API call.
type Request struct {
	Method string
	// Path is joined onto the base URL's path. It may carry a query string.
	Path   string
	Query  url.Values
	Header http.Header
	// Body is JSON-encoded unless it is a *Multipart.
	Body any
	// Timeout overrides the client budget when positive.
	Timeout time.Duration
}

// Request performs req once and decodes a JSON response into dest (which may
// be nil). Every failure is returned as a *Error.
func (c *Client) Request(ctx context.Context, req Request, dest any) error {
	if c == nil {
		return &Error{Status: StatusNetwork, Message: "client is nil"}
	}

	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return &Error{Status: StatusNetwork, Message: err.Error(), Err: err}
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return &Error{Status: StatusNetwork, Message: err.Error(), Err: err}
	}

	budget := req.Timeout
	if budget <= 0 {
		budget = c.timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target.String(), body)
	if err != nil {
		return &Error{Status: StatusNetwork, Message: fmt.Sprintf("create request: %v", err), Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if token := c.tokens.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return c.transportError(ctx, attemptCtx, budget, "execute request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.transportError(ctx, attemptCtx, budget, "read response", err)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", target.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeErrorBody(resp.StatusCode, statusText(resp), payload)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(payload)) == 0 || dest == nil {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return &Error{Status: StatusNetwork, Message: fmt.Sprintf("decode response: %v", err), Err: err}
	}
	return nil
}

// transportError classifies a failed round trip. Only the expiry of this
// request's own budget is a timeout; a cancelled caller context or any other
// transport failure is a network error.
func (c *Client) transportError(parent, attempt context.Context, budget time.Duration, op string, err error) *Error {
	if parent.Err() == nil && errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return &Error{
			Status:  StatusTimeout,
			Message: fmt.Sprintf("request timed out after %s", budget),
			Err:     err,
		}
	}
	return &Error{Status: StatusNetwork, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

// RequestWithRetry performs req through Retry using the client policy.
func (c *Client) RequestWithRetry(ctx context.Context, req Request, dest any) error {
	_, err := retry(ctx, c.retry, c.logger, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Request(ctx, req, dest)
	})
	return err
}

// Get issues a GET and decodes into dest.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	return c.Request(ctx, Request{Method: http.MethodGet, Path: path}, dest)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.Request(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, dest)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	return c.Request(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, dest)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.Request(ctx, Request{Method: http.MethodDelete, Path: path}, dest)
}

// Upload POSTs a multipart form.
func (c *Client) Upload(ctx context.Context, path string, form *Multipart, dest any) error {
	return c.Request(ctx, Request{Method: http.MethodPost, Path: path, Body: form}, dest)
}

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	values := rel.Query()
	for k, vs := range query {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	target.RawQuery = values.Encode()
	return &target, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "application/json", nil
	case *Multipart:
		if b == nil {
			return nil, "", errors.New("encode body: nil multipart form")
		}
		return bytes.NewReader(b.data), b.contentType, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// statusText returns the reason phrase from the status line, falling back to
// the canonical text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
