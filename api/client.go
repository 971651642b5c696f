// Package api is the HTTP client for a meme-generator-rs backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/reglet-dev/reglet-memes/netutil"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	transport      http.RoundTripper
	logger         *slog.Logger
	headers        map[string]string
	userAgent      string
	timeout        time.Duration
	initialBackoff time.Duration
	maxBodySize    int64
	maxRetries     int
	insecure       bool
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		logger:         slog.Default(),
		userAgent:      "reglet-memes",
		timeout:        30 * time.Second,
		initialBackoff: 500 * time.Millisecond,
		maxBodySize:    32 * 1024 * 1024,
	}
}

// WithTimeout sets the per-request timeout, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many times transient failures are retried.
func WithRetries(n int, initialBackoff time.Duration) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
		if initialBackoff > 0 {
			c.initialBackoff = initialBackoff
		}
	}
}

// WithHeaders adds static headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) {
		if c.headers == nil {
			c.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize caps response bodies.
func WithMaxBodySize(size int64) Option {
	return func(c *clientConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithInsecureTLS disables certificate verification.
func WithInsecureTLS(insecure bool) Option {
	return func(c *clientConfig) {
		c.insecure = insecure
	}
}

// WithTransport replaces the base transport (below the retry layer).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client talks to one backend endpoint. It is safe for concurrent use.
type Client struct {
	endpoint    *url.URL
	http        *http.Client
	headers     map[string]string
	userAgent   string
	maxBodySize int64
}

// New creates a client for the backend at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	base, err := netutil.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	transport := cfg.transport
	if transport == nil {
		transport = netutil.NewTransport(cfg.insecure)
	}

	logger := cfg.logger
	retrying := &netutil.RetryTransport{
		Base:           transport,
		MaxRetries:     cfg.maxRetries,
		InitialBackoff: cfg.initialBackoff,
		OnRetry: func(attempt int, wait time.Duration, statusCode int) {
			logger.Debug("retrying backend request",
				"attempt", attempt,
				"wait", wait,
				"status", statusCode)
		},
	}

	return &Client{
		endpoint: base,
		http: &http.Client{
			Timeout:   cfg.timeout,
			Transport: retrying,
		},
		headers:     cfg.headers,
		userAgent:   cfg.userAgent,
		maxBodySize: cfg.maxBodySize,
	}, nil
}

// Endpoint returns the backend base URL without credentials.
func (c *Client) Endpoint() string {
	return netutil.StripCredentials(c.endpoint.String())
}

// Version returns the backend version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, nil, "meme", "version")
	if err != nil {
		return "", err
	}

	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return "", decodeError(http.MethodGet, "/meme/version", err)
		}
		raw = v
	}
	return raw, nil
}

// Info returns the metadata of one meme.
func (c *Client) Info(ctx context.Context, key string) (MemeInfo, error) {
	var info MemeInfo
	err := c.getJSON(ctx, &info, "memes", key, "info")
	return info, err
}

// Infos returns the metadata of every meme keyed by meme key.
func (c *Client) Infos(ctx context.Context) (map[string]MemeInfo, error) {
	var list []MemeInfo
	if err := c.getJSON(ctx, &list, "meme", "infos"); err != nil {
		return nil, err
	}

	infos := make(map[string]MemeInfo, len(list))
	for i, info := range list {
		if info.Key == "" {
			return nil, decodeError(http.MethodGet, "/meme/infos", fmt.Errorf("entry %d has no key", i))
		}
		infos[info.Key] = info
	}
	return infos, nil
}

// FetchInfos fetches the backend version and the full meme metadata. It
// returns either both or an error, never a partial result.
func (c *Client) FetchInfos(ctx context.Context) (map[string]MemeInfo, string, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return nil, "", err
	}
	infos, err := c.Infos(ctx)
	if err != nil {
		return nil, "", err
	}
	return infos, version, nil
}

// Generate renders the meme key and returns the encoded image.
func (c *Client) Generate(ctx context.Context, key string, req GenerateRequest) ([]byte, error) {
	if req.Images == nil {
		req.Images = []Image{}
	}
	if req.Texts == nil {
		req.Texts = []string{}
	}
	if req.Options == nil {
		req.Options = map[string]any{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding generate request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, payload, "memes", key)
	if err != nil {
		return nil, err
	}

	var resp imageIDResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeError(http.MethodPost, "/memes/"+key, err)
	}
	return c.Image(ctx, resp.ImageID)
}

// Image downloads a rendered or uploaded image by id.
func (c *Client) Image(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, nil, "image", id)
}

func (c *Client) getJSON(ctx context.Context, out any, segments ...string) error {
	body, err := c.do(ctx, http.MethodGet, nil, segments...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return decodeError(http.MethodGet, "/"+strings.Join(segments, "/"), err)
	}
	return nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method string, payload []byte, segments ...string) ([]byte, error) {
	path := "/" + strings.Join(segments, "/")

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, netutil.JoinPath(c.endpoint, segments...), body)
	if err != nil {
		return nil, &Error{Err: err, Method: method, Path: path, Code: CodeRequestFailed, Message: err.Error()}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := netutil.ReadAllLimited(resp.Body, c.maxBodySize)
	if err != nil {
		code := CodeRequestFailed
		if netutil.IsSizeLimitExceededError(err) {
			code = CodeBodyTooLarge
		}
		return nil, &Error{Err: err, Method: method, Path: path, Code: code, Message: err.Error(), HTTPStatus: statusIfFailed(resp.StatusCode)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Method:     method,
			Path:       path,
			Code:       CodeHTTPStatus,
			Message:    errorMessage(data),
			HTTPStatus: resp.StatusCode,
		}
	}
	return data, nil
}

func statusIfFailed(status int) int {
	if status >= 200 && status <= 299 {
		return 0
	}
	return status
}

// transportError classifies a failure that produced no response.
func transportError(ctx context.Context, method, path string, err error) *Error {
	code := CodeRequestFailed
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() == context.DeadlineExceeded, isTimeout(err):
		code = CodeTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		code = CodeConnectionRefused
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		code = CodeHostNotFound
	}
	return &Error{Err: err, Method: method, Path: path, Code: code, Message: err.Error()}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func decodeError(method, path string, err error) *Error {
	return &Error{Err: err, Method: method, Path: path, Code: CodeDecodeFailed, Message: err.Error()}
}

// errorMessage extracts the backend's error message, falling back to the
// raw body.
func errorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return resp.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
