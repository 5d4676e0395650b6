// Package tickerboard is a Go client for the tickerboard widget API.
package tickerboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Target is one render target as served by GET /api/widget.
type Target struct {
	HTML          string  `json:"html"`
	Width         float64 `json:"width"`
	ScrollSeconds float64 `json:"scrollSeconds,omitempty"`
	Version       uint64  `json:"version"`
}

// Widget is the full widget state.
type Widget struct {
	Targets map[string]Target          `json:"targets"`
	Charts  map[string]json.RawMessage `json:"charts"`
	Version uint64                     `json:"version"`
	State   string                     `json:"state"`
	Cycles  uint64                     `json:"cycles"`
	Visible bool                       `json:"visible"`
}

// Update is one change pushed over the websocket feed.
type Update struct {
	Type          string          `json:"type"`
	Key           string          `json:"key"`
	HTML          string          `json:"html,omitempty"`
	ScrollSeconds float64         `json:"scrollSeconds,omitempty"`
	Chart         json.RawMessage `json:"chart,omitempty"`
	Version       uint64          `json:"version"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tickerboard: status %d: %s", e.Status, e.Message)
}

// Client provides a Go SDK for the tickerboard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tickerboard API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetWidget retrieves every render target and drawn chart.
func (c *Client) GetWidget(ctx context.Context) (*Widget, error) {
	var w Widget
	if err := c.do(ctx, http.MethodGet, "/api/widget", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// SetVisibility reports page visibility and returns the resulting state.
func (c *Client) SetVisibility(ctx context.Context, visible bool) (bool, error) {
	var out struct {
		Visible bool `json:"visible"`
	}
	body := map[string]bool{"visible": visible}
	if err := c.do(ctx, http.MethodPost, "/api/visibility", body, &out); err != nil {
		return false, err
	}
	return out.Visible, nil
}

// Refresh runs a manual refresh cycle and returns the completed-cycle count.
func (c *Client) Refresh(ctx context.Context) (uint64, error) {
	var out struct {
		OK     bool   `json:"ok"`
		Cycles uint64 `json:"cycles"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/refresh", nil, &out); err != nil {
		return 0, err
	}
	return out.Cycles, nil
}

// Watch streams page updates to fn until ctx is cancelled or the connection
// drops. The current page is replayed first.
func (c *Client) Watch(ctx context.Context, fn func(Update)) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", url, err)
	}
	defer conn.CloseNow()

	for {
		var u Update
		if err := wsjson.Read(ctx, conn, &u); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading update: %w", err)
		}
		fn(u)
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
