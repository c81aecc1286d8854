// Package request is a thin JSON client over net/http returning typed
// response envelopes.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/logger"
)

// Response is the envelope returned for a successful call
type Response[T any] struct {
	Data   T
	Status int
	Header http.Header
}

// Client sends requests relative to a base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
	log        *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithLogger replaces the component logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a client for baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     make(http.Header),
		log:        logger.Client(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request and decodes the JSON body into T
func Get[T any](ctx context.Context, c *Client, path string) (*Response[T], error) {
	return do[T](ctx, c, http.MethodGet, path, nil)
}

// Post issues a POST request with body encoded as JSON and decodes the
// JSON answer into T
func Post[T any](ctx context.Context, c *Client, path string, body any) (*Response[T], error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return do[T](ctx, c, http.MethodPost, path, payload)
}

func do[T any](ctx context.Context, c *Client, method, path string, payload []byte) (*Response[T], error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Request failed", "method", method, "url", url, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug("Request completed",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"latency", time.Since(start),
		"size", len(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierr.HTTPError{
			Method: method,
			URL:    url,
			Response: &apierr.Response{
				Status: resp.StatusCode,
				Body:   raw,
				Data:   decodeRequestError(raw),
			},
		}
	}

	data, err := decode[T](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response from %s %s: %w", method, url, err)
	}

	return &Response[T]{
		Data:   data,
		Status: resp.StatusCode,
		Header: resp.Header,
	}, nil
}

// decode unmarshals raw into T. Plain text bodies are accepted for string
// kinded targets since the vote endpoint answers with a bare token.
func decode[T any](raw []byte) (T, error) {
	var data T
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}

	err := json.Unmarshal(raw, &data)
	if err == nil {
		return data, nil
	}

	if v := reflect.ValueOf(&data).Elem(); v.Kind() == reflect.String {
		v.SetString(string(raw))
		return data, nil
	}

	return data, err
}

// decodeRequestError returns the structured error body or nil when raw is
// not one.
func decodeRequestError(raw []byte) *apierr.RequestError {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	if _, ok := fields["statusCode"]; !ok {
		return nil
	}

	var reqErr apierr.RequestError
	if err := json.Unmarshal(raw, &reqErr); err != nil {
		return nil
	}
	return &reqErr
}
