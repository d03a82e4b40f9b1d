package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tutorialpub/internal/services"
)

// Client queries a proposal service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Authority = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient creates a proposal service client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("proposal service url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetPackageState fetches `{baseURL}/proposals/{id}`.
func (c *Client) GetPackageState(ctx context.Context, id int64) (*State, error) {
	if id <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "proposal", "get state", "proposal id required", nil)
	}
	return c.fetch(ctx, c.baseURL+"/proposals/"+strconv.FormatInt(id, 10))
}

// FindBySlug fetches `{baseURL}/proposals?slug=`.
func (c *Client) FindBySlug(ctx context.Context, slug string) (*State, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, services.Wrap(services.ErrConfiguration, "proposal", "find by slug", "slug required", nil)
	}
	params := url.Values{}
	params.Set("slug", slug)
	return c.fetch(ctx, c.baseURL+"/proposals?"+params.Encode())
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrStateLookup, "proposal", "build request", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrStateLookup, "proposal", "get state", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, services.StatusError(services.ErrStateLookup, "proposal", "get state", resp.StatusCode, string(body))
	}

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, services.Wrap(services.ErrStateLookup, "proposal", "decode state", endpoint, err)
	}
	return &state, nil
}
