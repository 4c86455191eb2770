package alert

import (
	"context"
	"sync"

	"github.com/linnemanlabs/go-core/log"
)

// Notifier delivers tenant-scoped realtime events to subscribed clients.
// The transport (websocket hub, push gateway, ...) is behind this seam.
type Notifier interface {
	NotifyAlertReceived(ctx context.Context, tenantID string, v *View) error
	NotifyAlertAcknowledged(ctx context.Context, tenantID string, v *View) error
}

// Bridge mirrors contact-style alerts onto a physical indicator device.
type Bridge interface {
	RegisterDevice(ctx context.Context, kind, identifier, name string) (bool, error)
	SetContactState(ctx context.Context, identifier string, isOpen bool) (bool, error)
}

const bridgeDeviceKind = "contact"

// Fanout propagates alert state changes to the realtime notifier and the
// device bridge. It is best-effort: every failure is logged and swallowed,
// nothing is retried, and callers never wait on it. Run it on a detached
// goroutine with a non-cancellable context.
type Fanout struct {
	notifier Notifier
	bridge   Bridge
	catalog  *Catalog
	logger   log.Logger
	metrics  *Metrics

	registered sync.Map // bridge identifier -> struct{}
}

// NewFanout creates a Fanout. notifier and bridge may be nil, disabling
// the corresponding sink.
func NewFanout(notifier Notifier, bridge Bridge, catalog *Catalog, logger log.Logger, metrics *Metrics) *Fanout {
	if logger == nil {
		logger = log.Nop()
	}
	return &Fanout{
		notifier: notifier,
		bridge:   bridge,
		catalog:  catalog,
		logger:   logger,
		metrics:  metrics,
	}
}

// AlertReceived propagates a newly created alert.
func (f *Fanout) AlertReceived(ctx context.Context, a *Alert) {
	if f.notifier != nil {
		if err := f.notifier.NotifyAlertReceived(ctx, a.TenantID, ToView(a)); err != nil {
			f.logger.Error(ctx, err, "alert received notification failed", "alert_id", a.ID, "tenant_id", a.TenantID)
			f.sinkFailure("notifier")
		}
	}
	f.updateBridge(ctx, a)
}

// AlertAcknowledged propagates an acknowledgement.
func (f *Fanout) AlertAcknowledged(ctx context.Context, a *Alert) {
	if f.notifier != nil {
		if err := f.notifier.NotifyAlertAcknowledged(ctx, a.TenantID, ToView(a)); err != nil {
			f.logger.Error(ctx, err, "alert acknowledged notification failed", "alert_id", a.ID, "tenant_id", a.TenantID)
			f.sinkFailure("notifier")
		}
	}
	f.updateBridge(ctx, a)
}

// updateBridge mirrors contact-style node alerts to the device bridge:
// register the virtual device once, then set its open state to IsActive.
func (f *Fanout) updateBridge(ctx context.Context, a *Alert) {
	if f.bridge == nil || a.NodeID == "" {
		return
	}
	typ, err := f.catalog.Resolve(a.TypeCode)
	if err != nil || !typ.IsContact {
		return
	}

	id := a.TenantID + ":" + a.NodeID + ":" + a.TypeCode

	if _, seen := f.registered.Load(id); !seen {
		ok, err := f.bridge.RegisterDevice(ctx, bridgeDeviceKind, id, typ.Name)
		if err != nil {
			f.logger.Error(ctx, err, "bridge device registration failed", "device", id)
			f.sinkFailure("bridge")
			return
		}
		if ok {
			f.registered.Store(id, struct{}{})
		}
	}

	if _, err := f.bridge.SetContactState(ctx, id, a.IsActive); err != nil {
		f.logger.Error(ctx, err, "bridge contact state update failed", "device", id, "open", a.IsActive)
		f.sinkFailure("bridge")
	}
}

func (f *Fanout) sinkFailure(sink string) {
	if f.metrics != nil {
		f.metrics.FanoutFailures.WithLabelValues(sink).Inc()
	}
}
