package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/teslashibe/go-nao/internal/httpc"
)

// maxResponseSize bounds a decoded response body.
const maxResponseSize = 1 << 20

// Channel carries requests to a server and returns its responses.
// Errors returned by Call are transport failures; remote errors travel in
// Response.Error.
type Channel interface {
	Call(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

// HTTPChannel posts JSON envelopes to a server's /rpc endpoint.
type HTTPChannel struct {
	url    string
	client *http.Client
}

// NewHTTPChannel creates a channel to the server at baseURL
// (for example "http://localhost:8000").
func NewHTTPChannel(baseURL string) *HTTPChannel {
	return &HTTPChannel{
		url:    strings.TrimRight(baseURL, "/") + "/rpc",
		client: httpc.NewClient(0),
	}
}

// URL returns the endpoint the channel posts to.
func (h *HTTPChannel) URL() string {
	return h.url
}

// Call sends req and decodes the response.
func (h *HTTPChannel) Call(ctx context.Context, req *Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", req.Method, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", httpResp.StatusCode, err)
	}
	if resp.Error == nil && httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}
	if resp.ID != req.ID && resp.ID != "" {
		return nil, fmt.Errorf("response id %s does not match request %s", resp.ID, req.ID)
	}
	return &resp, nil
}

// Close releases idle connections.
func (h *HTTPChannel) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
