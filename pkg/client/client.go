// Package client is the typed HTTP client for the single /api/data
// endpoint. Any non-2xx status is a hard failure; callers decide whether to
// degrade (the sync queue does) or to propagate.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skcglow/glowpos/pkg/models"
)

// DataPath is the only API path this client speaks to.
const DataPath = "/api/data"

// Response is the envelope returned by both GET and POST.
type Response struct {
	OK      bool            `json:"ok"`
	Storage string          `json:"storage,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    models.Document `json:"data"`
}

// Gateway issues requests against the API server.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewGateway creates a gateway for the given base URL (protocol and host,
// no trailing slash).
func NewGateway(baseURL string, log zerolog.Logger) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "gateway").Logger(),
	}
}

// Fetch retrieves the current composite document.
func (g *Gateway) Fetch(ctx context.Context) (*Response, error) {
	return g.request(ctx, http.MethodGet, nil)
}

// Push replicates the coalesced payload in a single request and returns the
// merged document the server now holds.
func (g *Gateway) Push(ctx context.Context, partial models.Partial) (*Response, error) {
	return g.request(ctx, http.MethodPost, &partial)
}

func (g *Gateway) request(ctx context.Context, method string, body any) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+DataPath, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.log.Warn().Err(err).Str("request_id", requestID).Msg("api request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		g.log.Warn().Int("status", resp.StatusCode).Str("request_id", requestID).Msg("api request rejected")
		return nil, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(raw))
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &parsed, nil
}
