package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// mockBridge records bridge calls.
type mockBridge struct {
	mu          sync.Mutex
	registered  []string
	states      map[string]bool
	registerErr error
	stateErr    error
}

func newMockBridge() *mockBridge {
	return &mockBridge{states: make(map[string]bool)}
}

func (m *mockBridge) RegisterDevice(_ context.Context, kind, identifier, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registerErr != nil {
		return false, m.registerErr
	}
	m.registered = append(m.registered, identifier)
	return true, nil
}

func (m *mockBridge) SetContactState(_ context.Context, identifier string, isOpen bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stateErr != nil {
		return false, m.stateErr
	}
	m.states[identifier] = isOpen
	return true, nil
}

func contactAlert(active bool) *Alert {
	return &Alert{
		ID:       "alert-1",
		TenantID: "t-1",
		NodeID:   "node-1",
		TypeCode: "water_leak",
		Severity: SeverityCritical,
		IsActive: active,
	}
}

func TestFanout_BridgeMirrorsContactAlert(t *testing.T) {
	t.Parallel()

	bridge := newMockBridge()
	f := NewFanout(nil, bridge, NewCatalog(BuiltinTypes()...), nil, nil)

	f.AlertReceived(context.Background(), contactAlert(true))

	wantID := "t-1:node-1:water_leak"
	if len(bridge.registered) != 1 || bridge.registered[0] != wantID {
		t.Fatalf("registered = %v, want [%s]", bridge.registered, wantID)
	}
	if open, ok := bridge.states[wantID]; !ok || !open {
		t.Errorf("contact state = %v/%v, want open", open, ok)
	}

	f.AlertAcknowledged(context.Background(), contactAlert(false))

	if len(bridge.registered) != 1 {
		t.Errorf("device registered %d times, want once", len(bridge.registered))
	}
	if open := bridge.states[wantID]; open {
		t.Error("contact state still open after acknowledge")
	}
}

func TestFanout_BridgeSkipsNonContactTypes(t *testing.T) {
	t.Parallel()

	bridge := newMockBridge()
	f := NewFanout(nil, bridge, NewCatalog(BuiltinTypes()...), nil, nil)

	f.AlertReceived(context.Background(), &Alert{
		ID:       "alert-1",
		TenantID: "t-1",
		NodeID:   "node-1",
		TypeCode: "battery_low",
		IsActive: true,
	})

	if len(bridge.registered) != 0 {
		t.Errorf("registered %v for a non-contact type", bridge.registered)
	}
}

func TestFanout_BridgeSkipsHubScopedAlerts(t *testing.T) {
	t.Parallel()

	bridge := newMockBridge()
	f := NewFanout(nil, bridge, NewCatalog(BuiltinTypes()...), nil, nil)

	f.AlertReceived(context.Background(), &Alert{
		ID:       "alert-1",
		TenantID: "t-1",
		HubID:    "hub-1",
		TypeCode: "water_leak",
		IsActive: true,
	})

	if len(bridge.registered) != 0 {
		t.Errorf("registered %v for an alert without a node", bridge.registered)
	}
}

func TestFanout_RegistrationRetriedAfterFailure(t *testing.T) {
	t.Parallel()

	bridge := newMockBridge()
	bridge.registerErr = errors.New("bridge down")
	f := NewFanout(nil, bridge, NewCatalog(BuiltinTypes()...), nil, nil)

	f.AlertReceived(context.Background(), contactAlert(true))
	if len(bridge.registered) != 0 {
		t.Fatal("registration should have failed")
	}

	// bridge recovers; the next event must register the device
	bridge.mu.Lock()
	bridge.registerErr = nil
	bridge.mu.Unlock()

	f.AlertReceived(context.Background(), contactAlert(true))
	if len(bridge.registered) != 1 {
		t.Errorf("registered = %v, want one retry after recovery", bridge.registered)
	}
}

func TestFanout_NotifierFailureStillUpdatesBridge(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{err: errors.New("gateway down")}
	bridge := newMockBridge()
	f := NewFanout(notifier, bridge, NewCatalog(BuiltinTypes()...), nil, nil)

	f.AlertReceived(context.Background(), contactAlert(true))

	if len(bridge.registered) != 1 {
		t.Error("bridge update skipped after notifier failure")
	}
}

func TestFanout_NilSinks(t *testing.T) {
	t.Parallel()

	f := NewFanout(nil, nil, NewCatalog(BuiltinTypes()...), nil, nil)

	// must not panic with both sinks disabled
	f.AlertReceived(context.Background(), contactAlert(true))
	f.AlertAcknowledged(context.Background(), contactAlert(false))
}
