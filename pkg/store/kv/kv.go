// Package kv speaks the generic command protocol of the remote key-value
// backend: JSON command arrays posted to a single endpoint with a bearer
// credential. Only the two commands the composite store needs are exposed,
// GET <key> and SET <key> <value>.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Client issues commands against the backend endpoint. The zero-value URL or
// token means no backend is configured, which is the documented fallback
// path, not an error.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

// New creates a backend client. url and token may be empty; Configured
// reports whether the client is usable.
func New(url, token string) *Client {
	return &Client{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether both connection parameters are present.
func (c *Client) Configured() bool {
	return c.url != "" && c.token != ""
}

// Get returns the raw value stored under key, with found=false when the key
// is absent. Calling an unconfigured client is a programming error surfaced
// as a failure.
func (c *Client) Get(ctx context.Context, key string) (value string, found bool, err error) {
	resp, err := c.call(ctx, []string{"GET", key})
	if err != nil {
		return "", false, err
	}
	if resp.Result == nil {
		return "", false, nil
	}
	return *resp.Result, true, nil
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	_, err := c.call(ctx, []string{"SET", key, value})
	return err
}

type commandResponse struct {
	Result *string `json:"result"`
}

func (c *Client) call(ctx context.Context, command []string) (*commandResponse, error) {
	if !c.Configured() {
		return nil, errors.New("kv backend not configured")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, errors.Wrap(err, "encode kv command")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build kv request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "kv request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("kv request failed: %d", resp.StatusCode)
	}

	var parsed commandResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode kv response")
	}
	return &parsed, nil
}
