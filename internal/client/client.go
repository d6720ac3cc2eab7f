package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Default plane endpoints used when no base URL is configured.
const (
	DefaultManagementURL = "http://localhost:3002"
	DefaultRunURL        = "http://localhost:3003"
)

var errServerStatus = errors.New("server returned 5xx")

// Client is the request core shared by both backend planes. The base URL
// resolves lazily: an unset URL falls back to the plane default with a
// single warning for the client's lifetime, never one per request.
type Client struct {
	plane    string
	baseURL  string
	fallback string
	secret   string

	http *http.Client
	log  *zap.Logger

	useBreaker bool
	breaker    *gobreaker.CircuitBreaker

	warnOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the plane's base URL explicitly.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithBypassSecret sets the shared credential sent as a bearer token on
// every request, allowing the editor to reach protected endpoints without
// end-user authentication.
func WithBypassSecret(secret string) Option {
	return func(c *Client) {
		c.secret = secret
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithLogger sets the client's logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithCircuitBreaker guards the plane with a circuit breaker. Transport
// errors and 5xx responses count as failures; 4xx responses do not.
func WithCircuitBreaker() Option {
	return func(c *Client) {
		c.useBreaker = true
	}
}

func newClient(plane, fallback string, opts ...Option) *Client {
	c := &Client{
		plane:    plane,
		fallback: fallback,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.useBreaker {
		c.breaker = newBreaker(c.plane, c.log)
	}
	return c
}

func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("plane", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// resolve returns the effective base URL, warning once when falling back.
func (c *Client) resolve() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	c.warnOnce.Do(func() {
		c.log.Warn("api base url not configured, using default",
			zap.String("plane", c.plane),
			zap.String("url", c.fallback),
		)
	})
	return c.fallback
}

// do runs one request against the plane. A non-nil out is filled from the
// response body only when the content type indicates JSON. All failures
// surface as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		payload = bytes.NewReader(encoded)
	}

	url := c.resolve() + path
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.send(req)
	if err != nil {
		code := CodeNetworkError
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			code = CodeCircuitOpen
		}
		c.log.Debug("request failed before a response",
			zap.String("plane", c.plane),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &APIError{Code: code, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Code: CodeNetworkError, Message: err.Error(), Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, raw)
	}

	if out == nil {
		return nil
	}
	if !jsonContent(resp.Header.Get("Content-Type")) {
		c.log.Debug("skipping non-json response body",
			zap.String("plane", c.plane),
			zap.String("content_type", resp.Header.Get("Content-Type")),
		)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Code: CodeUnexpectedResponse, Message: err.Error(), Status: resp.StatusCode}
	}
	return nil
}

// send performs the round trip, through the breaker when one is
// configured. 5xx responses feed the breaker's failure counts but are
// still returned to the caller for normal status handling.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.http.Do(req)
	}
	result, err := c.breaker.Execute(func() (any, error) {
		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if resp, ok := result.(*http.Response); ok {
		return resp, nil
	}
	return nil, err
}

// statusError translates a non-2xx response into an APIError, decoding
// the backend's error envelope when the body carries JSON.
func (c *Client) statusError(resp *http.Response, raw []byte) error {
	apiErr := &APIError{Status: resp.StatusCode}
	if jsonContent(resp.Header.Get("Content-Type")) && len(raw) > 0 {
		if err := json.Unmarshal(raw, apiErr); err != nil {
			c.log.Debug("undecodable error body", zap.Error(err), zap.Int("status", resp.StatusCode))
		}
	}
	if apiErr.Code == "" {
		apiErr.Code = "http_error"
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func jsonContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
