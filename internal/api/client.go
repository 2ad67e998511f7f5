// Package api is the client for the Scanner Log inventory HTTP API.
//
// Every operation is a single request: there is no retry and no backoff.
// Non-2xx responses are returned as *RequestError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the address of a locally running API server.
const DefaultBaseURL = "http://localhost:8000"

// DefaultMaxResponseSize bounds how much of a response body is read.
// Exports are the largest payloads the API returns.
const DefaultMaxResponseSize = 256 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8000".
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for request logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// UserAgent is sent with every request. Defaults to "scannerlog".
	UserAgent string
	// MaxResponseSize is the largest body accepted, in bytes. Larger
	// responses fail with ErrResponseTooLarge. Defaults to
	// DefaultMaxResponseSize.
	MaxResponseSize int64
}

// Client talks to the inventory API. It holds no credentials: the bearer
// token is passed to each authenticated call. A Client is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
	maxSize    int64
}

// NewClient creates a new API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: invalid BaseURL %q: scheme must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "scannerlog"
	}

	maxSize := config.MaxResponseSize
	if maxSize <= 0 {
		maxSize = DefaultMaxResponseSize
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
		maxSize:    maxSize,
	}, nil
}

// BaseURL returns the API root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a successful (2xx) response.
type response struct {
	body   []byte
	header http.Header
}

// doRequest performs one request. A url.Values body is sent form-encoded,
// any other non-nil body as JSON. An empty token sends no Authorization
// header.
func (c *Client) doRequest(ctx context.Context, op, method, path, token string, body any, query url.Values) (*response, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var (
		bodyReader  io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		bodyReader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("api: %s: encoding request body: %w", op, err)
		}
		bodyReader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: %s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s: request to %s %s failed: %w", op, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("api: %s: reading response body: %w", op, err)
	}
	if int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("%w: %s: more than %d bytes", ErrResponseTooLarge, op, c.maxSize)
	}

	c.logger.Debug("api request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &response{body: data, header: resp.Header}, nil
	}
	return nil, newRequestError(op, resp.StatusCode, data)
}

// decode unmarshals a successful response body into target.
func decode(op string, resp *response, target any) error {
	if err := json.Unmarshal(resp.body, target); err != nil {
		return fmt.Errorf("api: %s: parsing response: %w", op, err)
	}
	return nil
}
