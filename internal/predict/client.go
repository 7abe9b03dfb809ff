// Package predict calls the remote dental detection service.
//
// The service accepts a JSON body {"image": "<data URI>"} and answers with
// {"labels": [...]}. Any transport failure, non-2xx status or undecodable body
// is a failed prediction; there are no retries.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ironsheep/dental-detect/internal/detection"
)

// DefaultTimeout bounds a single prediction request.
const DefaultTimeout = 60 * time.Second

var (
	// ErrTransport wraps network-level failures.
	ErrTransport = errors.New("prediction request failed")

	// ErrDecode wraps responses that are not a valid detection result.
	ErrDecode = errors.New("invalid prediction response")
)

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("prediction failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("prediction failed with status %d: %s", e.StatusCode, e.Body)
}

// Request is the JSON body sent to the service.
type Request struct {
	Image string `json:"image"`
}

// Client sends prediction requests to one endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
	catalog    detection.Catalog
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithCatalog sets the catalog used to fill labels that arrive without
// treatment text. The default catalog is used otherwise.
func WithCatalog(catalog detection.Catalog) Option {
	return func(c *Client) { c.catalog = catalog }
}

// NewClient creates a client for the prediction endpoint URL.
//
// A timeout <= 0 selects DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		headers:    make(map[string]string),
		catalog:    detection.DefaultCatalog(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends the image to the service and returns the normalized result.
//
// Parameters:
//   - ctx: Cancels the request when done.
//   - dataURI: The image as a data URI, e.g. "data:image/jpeg;base64,...".
//
// Errors wrap ErrTransport, ErrDecode, or are a *StatusError.
func (c *Client) Predict(ctx context.Context, dataURI string) (*detection.Result, error) {
	body, err := json.Marshal(Request{Image: dataURI})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var result detection.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if result.Labels == nil {
		return nil, fmt.Errorf("%w: missing labels", ErrDecode)
	}

	return result.Normalize(c.catalog), nil
}
