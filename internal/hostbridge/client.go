package hostbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client posts overlay events back to the host process. The host exposes one
// endpoint per event under the overlay's resource namespace.
type Client struct {
	baseURL    string
	resource   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a host bridge client. baseURL is the scheme and authority the
// host listens on (for an in-game browser this is usually "https://").
func New(baseURL, resource string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:    baseURL,
		resource:   strings.Trim(resource, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Endpoint returns the URL an event is posted to.
func (c *Client) Endpoint(event string) string {
	return c.baseURL + c.resource + "/" + event
}

// Post sends payload as JSON to the event's endpoint and decodes the JSON
// response. An empty response body decodes to nil.
func (c *Client) Post(ctx context.Context, event string, payload any) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(event), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", event, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned status %d", event, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", event, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", event, err)
	}
	return out, nil
}

// Notify posts an event without waiting for it. Failures are logged and
// otherwise dropped.
func (c *Client) Notify(event string, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if _, err := c.Post(ctx, event, payload); err != nil {
			c.logger.Warn("host notification failed", "event", event, "error", err)
			return
		}
		c.logger.Debug("host notified", "event", event)
	}()
}
