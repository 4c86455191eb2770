// Package bridge is an HTTP client for the physical indicator bridge,
// which exposes alert conditions as virtual contact devices.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

// Client talks to the device bridge. If baseURL is empty, every call is
// a successful no-op, mirroring an unconfigured bridge.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a bridge client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// RegisterDevice registers a virtual device with the bridge. The bridge
// treats registration as idempotent; re-registering an existing
// identifier succeeds. Returns whether the device is registered.
func (c *Client) RegisterDevice(ctx context.Context, kind, identifier, name string) (bool, error) {
	if c.baseURL == "" {
		return true, nil
	}
	return c.post(ctx, "/devices", map[string]any{
		"kind":       kind,
		"identifier": identifier,
		"name":       name,
	})
}

// SetContactState sets the open/active state of a contact device.
func (c *Client) SetContactState(ctx context.Context, identifier string, isOpen bool) (bool, error) {
	if c.baseURL == "" {
		return true, nil
	}
	return c.post(ctx, "/devices/contact-state", map[string]any{
		"identifier": identifier,
		"open":       isOpen,
	})
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("bridge: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("bridge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req) //nolint:gosec // G704: baseURL is from trusted config, not user input
	if err != nil {
		return false, fmt.Errorf("bridge: post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("bridge: %s returned %d: %s", path, resp.StatusCode, string(respBody))
	}
	return true, nil
}
