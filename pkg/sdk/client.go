package roomrank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client is the roomrank API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets the server address (default http://localhost:8080).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to adjust
// timeouts or inject middleware.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a roomrank API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    "http://localhost:8080",
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RecommendApartments ranks apartment listings against a free-text query.
func (c *Client) RecommendApartments(ctx context.Context, req Request) (Result, error) {
	return c.recommend(ctx, "/v1/recommendations/apartments", apartmentsPayload{
		Query: req.Query,
		TopK:  req.TopK,
	})
}

// RecommendRoommates ranks roommate candidates against a free-text profile.
func (c *Client) RecommendRoommates(ctx context.Context, req Request) (Result, error) {
	return c.recommend(ctx, "/v1/recommendations/roommates", roommatesPayload{
		Profile: req.Query,
		TopK:    req.TopK,
	})
}

// Health reports the server's component health. A non-nil error means the
// server was unreachable; an Unhealthy status comes back as a valid report.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthReport{}, fmt.Errorf("roomrank: build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return HealthReport{}, fmt.Errorf("roomrank: health request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("roomrank: decode health response: %w", err)
	}
	return report, nil
}

func (c *Client) recommend(ctx context.Context, path string, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("roomrank: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("roomrank: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("roomrank: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, decodeAPIError(resp)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("roomrank: decode response: %w", err)
	}
	return result, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var body struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil && body.Code != "" {
			apiErr.Code = body.Code
			apiErr.Message = body.Message
			return apiErr
		}
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
