// Package push delivers tenant-scoped alert events to a realtime push
// gateway over HTTP. The gateway owns the subscriber transport; this
// client only triggers it.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/beacon/internal/alert"
)

const httpTimeout = 10 * time.Second

// Event names carried on the wire.
const (
	EventAlertReceived     = "alert.received"
	EventAlertAcknowledged = "alert.acknowledged"
)

// Notifier posts alert events to the configured gateway endpoint.
type Notifier struct {
	endpoint string
	client   *http.Client
}

// New creates a push notifier. If endpoint is empty, every send is a no-op.
func New(endpoint string) *Notifier {
	return &Notifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: httpTimeout},
	}
}

type event struct {
	Event    string      `json:"event"`
	TenantID string      `json:"tenant_id"`
	Alert    *alert.View `json:"alert"`
}

// NotifyAlertReceived publishes an alert.received event to the tenant's
// subscribers.
func (n *Notifier) NotifyAlertReceived(ctx context.Context, tenantID string, v *alert.View) error {
	return n.send(ctx, EventAlertReceived, tenantID, v)
}

// NotifyAlertAcknowledged publishes an alert.acknowledged event to the
// tenant's subscribers.
func (n *Notifier) NotifyAlertAcknowledged(ctx context.Context, tenantID string, v *alert.View) error {
	return n.send(ctx, EventAlertAcknowledged, tenantID, v)
}

func (n *Notifier) send(ctx context.Context, name, tenantID string, v *alert.View) error {
	if n.endpoint == "" {
		return nil
	}

	body, err := json.Marshal(event{Event: name, TenantID: tenantID, Alert: v})
	if err != nil {
		return fmt.Errorf("push: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("push: post event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push: gateway returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
