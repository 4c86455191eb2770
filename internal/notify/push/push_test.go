package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linnemanlabs/beacon/internal/alert"
)

func sampleView() *alert.View {
	return &alert.View{
		ID:       "01HTEST0000000000000000000",
		TypeCode: "mold_risk",
		Severity: alert.SeverityWarning,
		Message:  "High humidity",
	}
}

func TestNotifyAlertReceived(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	if err := n.NotifyAlertReceived(context.Background(), "t-1", sampleView()); err != nil {
		t.Fatalf("NotifyAlertReceived: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}

	var ev struct {
		Event    string     `json:"event"`
		TenantID string     `json:"tenant_id"`
		Alert    alert.View `json:"alert"`
	}
	if err := json.Unmarshal(gotBody, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Event != EventAlertReceived {
		t.Errorf("event = %q, want %q", ev.Event, EventAlertReceived)
	}
	if ev.TenantID != "t-1" {
		t.Errorf("tenant_id = %q", ev.TenantID)
	}
	if ev.Alert.ID != "01HTEST0000000000000000000" {
		t.Errorf("alert.id = %q", ev.Alert.ID)
	}
}

func TestNotifyAlertAcknowledged(t *testing.T) {
	t.Parallel()

	var gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev struct {
			Event string `json:"event"`
		}
		_ = json.NewDecoder(r.Body).Decode(&ev)
		gotEvent = ev.Event
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	if err := n.NotifyAlertAcknowledged(context.Background(), "t-1", sampleView()); err != nil {
		t.Fatalf("NotifyAlertAcknowledged: %v", err)
	}
	if gotEvent != EventAlertAcknowledged {
		t.Errorf("event = %q, want %q", gotEvent, EventAlertAcknowledged)
	}
}

func TestSend_GatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscriber hub overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	n := New(srv.URL)
	err := n.NotifyAlertReceived(context.Background(), "t-1", sampleView())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want status code included", err)
	}
	if !strings.Contains(err.Error(), "subscriber hub overloaded") {
		t.Errorf("err = %v, want body excerpt included", err)
	}
}

func TestSend_EmptyEndpointIsNoop(t *testing.T) {
	t.Parallel()

	n := New("")
	if err := n.NotifyAlertReceived(context.Background(), "t-1", sampleView()); err != nil {
		t.Errorf("empty endpoint should be a no-op, got %v", err)
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := New(srv.URL)
	if err := n.NotifyAlertReceived(ctx, "t-1", sampleView()); err == nil {
		t.Error("expected error for cancelled context")
	}
}
