// Package httpdoc reads and writes metadata documents through a document
// node's HTTP API.
package httpdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tutorialpub/internal/metadata"
	"tutorialpub/internal/services"
)

// Client talks to `{baseURL}/streams/{id}`.
type Client struct {
	baseURL    string
	seed       string
	httpClient *http.Client
}

var _ metadata.Store = (*Client)(nil)

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

// New creates a document node client. The seed authenticates writes.
func New(baseURL, seed string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("metadata node url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		seed:       strings.TrimSpace(seed),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetDocument fetches the current document for streamID.
func (c *Client) GetDocument(ctx context.Context, streamID string) (*metadata.Document, error) {
	endpoint, err := c.streamURL(streamID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrReconcile, "httpdoc", "build request", streamID, err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrReconcile, "httpdoc", "get document", streamID, errors.Join(services.ErrTransient, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, services.StatusError(services.ErrReconcile, "httpdoc", "get document "+streamID, resp.StatusCode, string(body))
	}

	var doc metadata.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrReconcile, "httpdoc", "decode document", streamID, err)
	}
	return &doc, nil
}

// SetDocument replaces the whole document for streamID.
func (c *Client) SetDocument(ctx context.Context, streamID string, doc *metadata.Document) error {
	if c.seed == "" {
		return services.Wrap(services.ErrReconcile, "httpdoc", "set document", "seed credentials required", services.ErrAuth)
	}
	endpoint, err := c.streamURL(streamID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = metadata.NewDocument()
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return services.Wrap(services.ErrReconcile, "httpdoc", "encode document", streamID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return services.Wrap(services.ErrReconcile, "httpdoc", "build request", streamID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrReconcile, "httpdoc", "set document", streamID, errors.Join(services.ErrTransient, err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return services.StatusError(services.ErrReconcile, "httpdoc", "set document "+streamID, resp.StatusCode, string(body))
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.seed != "" {
		req.Header.Set("Authorization", "Bearer "+c.seed)
	}
}

func (c *Client) streamURL(streamID string) (string, error) {
	streamID = strings.TrimSpace(streamID)
	if streamID == "" {
		return "", services.Wrap(services.ErrReconcile, "httpdoc", "resolve stream", "stream id required", nil)
	}
	endpoint, err := url.JoinPath(c.baseURL, "streams", streamID)
	if err != nil {
		return "", services.Wrap(services.ErrReconcile, "httpdoc", "resolve stream", fmt.Sprintf("parse url for %s", streamID), err)
	}
	return endpoint, nil
}
