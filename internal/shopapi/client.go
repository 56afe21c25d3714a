package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jogardn/shop-console/internal/circuitbreaker"
	"github.com/sirupsen/logrus"
)

// Client talks to the shop REST backend. It never retries and sets no
// timeout of its own; requests are bounded by the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCircuitBreaker makes the client fail fast while the breaker is open.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

func NewClient(baseURL string, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	headers map[string]string
}

type RequestOption func(*requestOptions)

// WithHeader adds a header to a single request. It overrides the default
// JSON content type when the key is Content-Type.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// Do performs one request against path. A non-nil body is sent as JSON and a
// non-nil out receives the decoded JSON response.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	if c.breaker == nil {
		return c.do(ctx, method, path, body, out, opts)
	}

	err := c.breaker.Execute(func() error {
		return c.do(ctx, method, path, body, out, opts)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return &RequestError{
			Method:  method,
			Path:    path,
			Kind:    KindConnectivity,
			Message: "shop API unavailable: " + err.Error(),
			Err:     err,
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, opts []RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &RequestError{
				Method:  method,
				Path:    path,
				Kind:    KindInvalidRequest,
				Message: fmt.Sprintf("failed to marshal request body: %v", err),
				Err:     err,
			}
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{
			Method:  method,
			Path:    path,
			Kind:    KindInvalidRequest,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Err:     err,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range o.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"method": method,
				"path":   path,
			}).Debug("API call abandoned by caller")
			return &RequestError{
				Method:  method,
				Path:    path,
				Kind:    KindCanceled,
				Message: fmt.Sprintf("request cancelled: %v", ctx.Err()),
				Err:     err,
			}
		}
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Error("API call failed")
		return &RequestError{
			Method:  method,
			Path:    path,
			Kind:    KindConnectivity,
			Message: fmt.Sprintf("failed to reach shop API: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			Method:     method,
			Path:       path,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp),
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
			"error":  reqErr.Message,
		}).Error("API call failed")
		return reqErr
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("API call succeeded")

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &RequestError{
			Method:     method,
			Path:       path,
			Kind:       KindInvalidResponse,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode shop API response: %v", err),
			Err:        err,
		}
	}

	return nil
}

// errorMessage prefers the "error" field of a JSON body. A JSON body without
// it yields the generic status message; a non-JSON body yields the reason
// phrase the server sent.
func errorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if reason := reasonPhrase(resp); reason != "" {
			return reason
		}
		return statusFallback(resp.StatusCode)
	}
	if body.Error != "" {
		return body.Error
	}
	return statusFallback(resp.StatusCode)
}

func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

// Health checks that the backend answers at all.
func (c *Client) Health(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, "/health", nil, nil)
}
