package alert

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/xerrors"
)

// ErrDuplicate is returned by Store.Insert when an active alert already
// exists for the same (tenant, scope, type) of a dedup-sensitive type.
// The store enforces this (partial unique index in postgres, mutex in
// memstore); the service's dedup pre-check alone cannot, since two
// creators can both pass it before either writes.
var ErrDuplicate = xerrors.New("active duplicate alert exists")

// Store is the persistence interface for alerts. All operations are
// tenant-scoped; an id belonging to another tenant behaves as absent.
type Store interface {
	Insert(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, tenantID, id string) (*Alert, bool, error)

	// FindActiveDuplicate returns the active alert matching the scope
	// and type, if any.
	FindActiveDuplicate(ctx context.Context, tenantID string, scope Scope, typeCode string) (*Alert, bool, error)

	// Acknowledge sets acknowledged_at and clears is_active, only if the
	// alert is not yet acknowledged. Returns the updated alert, or
	// ok=false when no row matched the conditional update.
	Acknowledge(ctx context.Context, tenantID, id string, at time.Time) (*Alert, bool, error)

	// SetRecommendation fills in the recommendation on an alert that has
	// none. Best-effort consumers (the advisor) use it after creation.
	SetRecommendation(ctx context.Context, tenantID, id, recommendation string) error

	// DeactivateByScope clears is_active on all active alerts matching
	// scope+type as a single set-based operation, returning the count.
	DeactivateByScope(ctx context.Context, tenantID string, scope Scope, typeCode string) (int64, error)

	ListActive(ctx context.Context, tenantID string) ([]Alert, error)
	ListFiltered(ctx context.Context, tenantID string, f Filter) (*Page, error)
}
