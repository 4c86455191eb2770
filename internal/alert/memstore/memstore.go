// Package memstore provides an in-memory implementation of alert.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/beacon/internal/alert"
)

// Store holds alerts in memory. Suitable for dev/testing. It enforces
// the same active-uniqueness guarantee for dedup-sensitive alerts that
// the postgres schema does, under its mutex.
type Store struct {
	mu     sync.RWMutex
	alerts map[string]*alert.Alert // alert ID -> alert
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{alerts: make(map[string]*alert.Alert)}
}

// Insert stores a copy of the alert. Inserting an active dedup-sensitive
// alert whose (tenant, scope, type) already has an active row fails with
// alert.ErrDuplicate.
func (s *Store) Insert(_ context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.IsDedup && a.IsActive {
		for _, existing := range s.alerts {
			if existing.IsActive && existing.TenantID == a.TenantID &&
				existing.TypeCode == a.TypeCode && existing.Scope() == a.Scope() {
				return alert.ErrDuplicate
			}
		}
	}

	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

// GetByID retrieves an alert scoped to the tenant. Returns a copy.
func (s *Store) GetByID(_ context.Context, tenantID, id string) (*alert.Alert, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok || a.TenantID != tenantID {
		return nil, false, nil
	}
	cp := *a
	return &cp, true, nil
}

// FindActiveDuplicate returns the active alert matching scope and type.
func (s *Store) FindActiveDuplicate(_ context.Context, tenantID string, scope alert.Scope, typeCode string) (*alert.Alert, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.IsActive && a.TenantID == tenantID && a.TypeCode == typeCode && a.Scope() == scope {
			cp := *a
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

// Acknowledge sets acknowledged_at once. ok=false when the alert is
// absent, cross-tenant, or already acknowledged.
func (s *Store) Acknowledge(_ context.Context, tenantID, id string, at time.Time) (*alert.Alert, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.TenantID != tenantID || a.AcknowledgedAt != nil {
		return nil, false, nil
	}
	ackAt := at
	a.AcknowledgedAt = &ackAt
	a.IsActive = false
	cp := *a
	return &cp, true, nil
}

// SetRecommendation fills in the recommendation if the alert still has
// none. Silently does nothing when the alert is gone.
func (s *Store) SetRecommendation(_ context.Context, tenantID, id, recommendation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.TenantID != tenantID || a.Recommendation != "" {
		return nil
	}
	a.Recommendation = recommendation
	return nil
}

// DeactivateByScope clears is_active on all matching active alerts in one
// pass under the write lock, so no concurrent insert lands between a read
// and a write.
func (s *Store) DeactivateByScope(_ context.Context, tenantID string, scope alert.Scope, typeCode string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.alerts {
		if a.IsActive && a.TenantID == tenantID && a.TypeCode == typeCode && a.Scope() == scope {
			a.IsActive = false
			n++
		}
	}
	return n, nil
}

// ListActive returns the tenant's active alerts ordered by severity rank
// descending, created_at descending.
func (s *Store) ListActive(_ context.Context, tenantID string) ([]alert.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []alert.Alert
	for _, a := range s.alerts {
		if a.IsActive && a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return alert.Less(&out[i], &out[j]) })
	return out, nil
}

// ListFiltered returns one page of matching alerts, created_at descending.
func (s *Store) ListFiltered(_ context.Context, tenantID string, f alert.Filter) (*alert.Page, error) {
	f = f.Normalize()

	s.mu.RLock()
	var matched []alert.Alert
	for _, a := range s.alerts {
		if a.TenantID == tenantID && matches(a, f) {
			matched = append(matched, *a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}

	return &alert.Page{
		Items:      matched[start:end],
		TotalCount: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}, nil
}

func matches(a *alert.Alert, f alert.Filter) bool {
	if f.HubID != "" && a.HubID != f.HubID {
		return false
	}
	if f.NodeID != "" && a.NodeID != f.NodeID {
		return false
	}
	if f.TypeCode != "" && a.TypeCode != f.TypeCode {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Source != "" && a.Source != f.Source {
		return false
	}
	if f.IsActive != nil && a.IsActive != *f.IsActive {
		return false
	}
	if f.IsAcknowledged != nil && (a.AcknowledgedAt != nil) != *f.IsAcknowledged {
		return false
	}
	if !f.CreatedFrom.IsZero() && a.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && a.CreatedAt.After(f.CreatedTo) {
		return false
	}
	return true
}
