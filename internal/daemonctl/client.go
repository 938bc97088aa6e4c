package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"roomcheck/internal/api"
)

// ErrAPIUnavailable means no daemon answered on the configured bind address.
var ErrAPIUnavailable = errors.New("roomcheck API unavailable")

// APIError is a non-2xx reply decoded from the daemon.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("api %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to a running roomcheckd over HTTP.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for bind, e.g. "127.0.0.1:7487". A nil client is
// returned when bind is empty.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout - long-polls block until a snapshot arrives or the caller cancels.
		http: &http.Client{},
	}, nil
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// Snapshot fetches the newest-first snapshot. With wait set the call blocks
// until a snapshot newer than since exists or the server's poll window ends.
func (c *Client) Snapshot(ctx context.Context, since uint64, wait bool) (api.SnapshotResponse, error) {
	values := url.Values{}
	if since > 0 {
		values.Set("since", strconv.FormatUint(since, 10))
	}
	if wait {
		values.Set("wait", "1")
	}
	var out api.SnapshotResponse
	err := c.do(ctx, http.MethodGet, "/api/inspections", values, nil, &out)
	return out, err
}

// Submit sends a new inspection, or an edit when req.ID is set.
func (c *Client) Submit(ctx context.Context, req api.SubmitRequest) (api.SubmitResponse, error) {
	var out api.SubmitResponse
	method, path := http.MethodPost, "/api/inspections"
	if req.ID != "" {
		method, path = http.MethodPut, "/api/inspections/"+url.PathEscape(req.ID)
	}
	err := c.do(ctx, method, path, nil, req, &out)
	return out, err
}

// Logs reads daemon log lines. A negative offset asks for the last limit
// lines; otherwise lines after offset are returned, waiting for new output
// when wait is set.
func (c *Client) Logs(ctx context.Context, offset int64, limit int, wait bool) (api.LogsResponse, error) {
	values := url.Values{}
	if offset >= 0 {
		values.Set("offset", strconv.FormatInt(offset, 10))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if wait {
		values.Set("wait", "1")
	}
	var out api.LogsResponse
	err := c.do(ctx, http.MethodGet, "/api/logs", values, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload api.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &payload) != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Kind: payload.Kind, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
