// Package httpstore uploads files to an immutable storage gateway over HTTP.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tutorialpub/internal/services"
	"tutorialpub/internal/storage"
)

// Client posts file bytes to `{baseURL}/tx` and returns the transaction id.
type Client struct {
	baseURL    string
	appName    string
	httpClient *http.Client
}

var _ storage.Store = (*Client)(nil)

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

// New creates a gateway client.
func New(baseURL, appName string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("storage gateway url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appName:    strings.TrimSpace(appName),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type uploadResponse struct {
	ID string `json:"id"`
}

// Upload sends data under key and returns the gateway's transaction id.
func (c *Client) Upload(ctx context.Context, key string, data []byte, creds storage.Credentials) (string, error) {
	wallet := strings.TrimSpace(creds.Wallet)
	if wallet == "" {
		return "", services.Wrap(services.ErrUpload, "httpstore", "upload", "wallet credentials required", services.ErrAuth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tx", bytes.NewReader(data))
	if err != nil {
		return "", services.Wrap(services.ErrUpload, "httpstore", "build request", key, err)
	}
	req.Header.Set("Authorization", "Bearer "+wallet)
	req.Header.Set("Content-Type", storage.ContentType(key))
	req.Header.Set("X-Object-Key", key)
	if c.appName != "" {
		req.Header.Set("X-App-Name", c.appName)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", services.Wrap(services.ErrUpload, "httpstore", "upload", fmt.Sprintf("%s (latency=%v)", key, latency), errors.Join(services.ErrTransient, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", services.StatusError(services.ErrUpload, "httpstore", "upload "+key, resp.StatusCode, string(body))
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrUpload, "httpstore", "decode response", key, err)
	}
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		return "", services.Wrap(services.ErrUpload, "httpstore", "decode response", key+": empty transaction id", nil)
	}
	return id, nil
}
