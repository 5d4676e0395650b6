// Package quotes fetches quote snapshots and intraday series from the JSON
// quotes backend.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tickerboard/internal/domain"
)

// Endpoint names used in FetchError.
const (
	EndpointQuotes   = "quotes"
	EndpointIntraday = "intraday"
)

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

// FetchError reports a transport, status, or decode failure against one
// backend endpoint.
type FetchError struct {
	Endpoint string
	URL      string
	Status   int // 0 when no response was received
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s %s: status %d: %v", e.Endpoint, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrBadStatus is wrapped by FetchError for non-2xx quote responses.
var ErrBadStatus = errors.New("unexpected status")

// Client talks to the quotes backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. A zero timeout
// means 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchQuotes retrieves the current quote snapshot. A response without
// items is an empty snapshot.
func (c *Client) FetchQuotes(ctx context.Context) (domain.QuoteSnapshot, error) {
	u := c.baseURL + "/api/quotes"

	status, body, err := c.get(ctx, u)
	if err != nil {
		return nil, &FetchError{Endpoint: EndpointQuotes, URL: u, Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &FetchError{Endpoint: EndpointQuotes, URL: u, Status: status, Err: ErrBadStatus}
	}

	var resp domain.QuotesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Endpoint: EndpointQuotes, URL: u, Status: status, Err: fmt.Errorf("decoding body: %w", err)}
	}
	if resp.Items == nil {
		return domain.QuoteSnapshot{}, nil
	}
	return resp.Items, nil
}

// FetchIntraday retrieves the intraday series for one ticker. The backend
// signals "no data" with ok:false and a 4xx/5xx status; any decodable body is
// returned as-is so callers can tell an empty series from a failed fetch.
func (c *Client) FetchIntraday(ctx context.Context, ticker string) (domain.IntradaySeries, error) {
	u := c.baseURL + "/api/intraday/" + url.PathEscape(ticker)

	status, body, err := c.get(ctx, u)
	if err != nil {
		return domain.IntradaySeries{}, &FetchError{Endpoint: EndpointIntraday, URL: u, Err: err}
	}

	var series domain.IntradaySeries
	if err := json.Unmarshal(body, &series); err != nil {
		return domain.IntradaySeries{}, &FetchError{Endpoint: EndpointIntraday, URL: u, Status: status, Err: fmt.Errorf("decoding body: %w", err)}
	}
	if series.OK && (status < 200 || status > 299) {
		return domain.IntradaySeries{}, &FetchError{Endpoint: EndpointIntraday, URL: u, Status: status, Err: ErrBadStatus}
	}
	return series, nil
}

func (c *Client) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}
