package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// Advisor produces a recommendation for an alert that was created without
// one. Implementations may call out to an LLM; the service only ever
// invokes it on a detached best-effort path.
type Advisor interface {
	Recommend(ctx context.Context, a *Alert) (string, error)
}

// Service is the business boundary for the alert lifecycle: creation,
// dedup, acknowledgement, deactivation, and queries. State changes are
// fanned out asynchronously; the triggering call is complete the moment
// the store write succeeds.
type Service struct {
	store   Store
	catalog *Catalog
	fanout  *Fanout
	advisor Advisor
	logger  log.Logger
	metrics *Metrics

	now func() time.Time
}

// NewService creates a new alert service. fanout, advisor, and metrics
// may be nil.
func NewService(store Store, catalog *Catalog, fanout *Fanout, advisor Advisor, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:   store,
		catalog: catalog,
		fanout:  fanout,
		advisor: advisor,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// CreateFromCloud records a cloud-detected alert.
func (s *Service) CreateFromCloud(ctx context.Context, tenantID string, req *CreateRequest) (*Alert, error) {
	return s.create(ctx, tenantID, req, SourceCloud)
}

// CreateLocal records a locally-observed alert.
func (s *Service) CreateLocal(ctx context.Context, tenantID string, req *CreateRequest) (*Alert, error) {
	return s.create(ctx, tenantID, req, SourceLocal)
}

func (s *Service) create(ctx context.Context, tenantID string, req *CreateRequest, source Source) (*Alert, error) {
	typ, err := s.catalog.Resolve(req.TypeCode)
	if err != nil {
		s.countCreateError("type_not_found")
		return nil, err
	}

	severity := typ.DefaultSeverity
	if req.Severity != "" {
		if !req.Severity.Valid() {
			s.countCreateError("invalid_severity")
			return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, req.Severity)
		}
		severity = req.Severity
	}

	a := &Alert{
		ID:             ulid.Make().String(),
		TenantID:       tenantID,
		HubID:          req.HubID,
		NodeID:         req.NodeID,
		TypeCode:       typ.Code,
		Severity:       severity,
		Message:        req.Message,
		Recommendation: req.Recommendation,
		Source:         source,
		CreatedAt:      s.now().UTC(),
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
		IsDedup:        typ.IsDedup,
	}

	if err := s.store.Insert(ctx, a); err != nil {
		s.countCreateError("store")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CreatesTotal.WithLabelValues(string(source), string(severity)).Inc()
	}
	s.logger.Info(ctx, "alert created",
		"alert_id", a.ID,
		"tenant_id", tenantID,
		"type", a.TypeCode,
		"severity", a.Severity,
		"source", a.Source,
	)

	s.dispatchReceived(ctx, a)
	return a, nil
}

// CreateDeviceOfflineAlert records that a device went offline. Repeated
// calls for the same scope are idempotent: if an active offline alert for
// the scope already exists, it is returned unchanged with no write and no
// notification. The external monitor decides *when* a device is offline;
// this only records it.
func (s *Service) CreateDeviceOfflineAlert(ctx context.Context, tenantID string, scope Scope) (*Alert, error) {
	code := TypeSensorOffline
	if scope.NodeID == "" {
		code = TypeHubOffline
	}
	typ, err := s.catalog.Resolve(code)
	if err != nil {
		return nil, err
	}

	if existing, ok, err := s.store.FindActiveDuplicate(ctx, tenantID, scope, typ.Code); err != nil {
		return nil, err
	} else if ok {
		s.countDedupHit()
		return existing, nil
	}

	a := &Alert{
		ID:        ulid.Make().String(),
		TenantID:  tenantID,
		HubID:     scope.HubID,
		NodeID:    scope.NodeID,
		TypeCode:  typ.Code,
		Severity:  typ.DefaultSeverity,
		Message:   typ.Name,
		Source:    SourceLocal,
		CreatedAt: s.now().UTC(),
		IsActive:  true,
		IsDedup:   true,
	}

	err = s.store.Insert(ctx, a)
	if errors.Is(err, ErrDuplicate) {
		// lost the check-then-insert race; the store's uniqueness
		// guarantee picked a winner, return it
		s.countDedupHit()
		winner, ok, err := s.store.FindActiveDuplicate(ctx, tenantID, scope, typ.Code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicate
		}
		return winner, nil
	}
	if err != nil {
		s.countCreateError("store")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CreatesTotal.WithLabelValues(string(SourceLocal), string(a.Severity)).Inc()
	}
	s.logger.Info(ctx, "device offline alert created",
		"alert_id", a.ID,
		"tenant_id", tenantID,
		"hub_id", scope.HubID,
		"node_id", scope.NodeID,
	)

	s.dispatchReceived(ctx, a)
	return a, nil
}

// Acknowledge marks an alert as acknowledged. Missing and cross-tenant
// ids both yield (nil, nil); acknowledging twice returns the alert
// unchanged. acknowledged_at is set exactly once.
func (s *Service) Acknowledge(ctx context.Context, tenantID, id string) (*Alert, error) {
	a, ok, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if a.AcknowledgedAt != nil {
		return a, nil
	}

	acked, ok, err := s.store.Acknowledge(ctx, tenantID, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// a concurrent caller acknowledged first; the timestamp they
		// set stands
		a, ok, err = s.store.GetByID(ctx, tenantID, id)
		if err != nil || !ok {
			return a, err
		}
		return a, nil
	}

	if s.metrics != nil {
		s.metrics.AcksTotal.Inc()
	}
	s.logger.Info(ctx, "alert acknowledged", "alert_id", id, "tenant_id", tenantID)

	if s.fanout != nil {
		cp := *acked
		go s.fanout.AlertAcknowledged(context.WithoutCancel(ctx), &cp)
	}
	return acked, nil
}

// DeactivateAlerts clears all active alerts matching scope+type in one
// set-based store operation, used when the underlying condition clears.
func (s *Service) DeactivateAlerts(ctx context.Context, tenantID string, scope Scope, typeCode string) (int64, error) {
	typ, err := s.catalog.Resolve(typeCode)
	if err != nil {
		return 0, err
	}

	n, err := s.store.DeactivateByScope(ctx, tenantID, scope, typ.Code)
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.DeactivatedAlerts.Observe(float64(n))
	}
	if n > 0 {
		s.logger.Info(ctx, "alerts deactivated",
			"tenant_id", tenantID,
			"type", typ.Code,
			"hub_id", scope.HubID,
			"node_id", scope.NodeID,
			"count", n,
		)
	}
	return n, nil
}

// GetActive returns the tenant's active alerts, most severe and most
// recent first.
func (s *Service) GetActive(ctx context.Context, tenantID string) ([]Alert, error) {
	start := s.now()
	alerts, err := s.store.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ActiveListDuration.Observe(time.Since(start).Seconds())
	}
	return alerts, nil
}

// GetFiltered returns one page of alerts matching the filter.
func (s *Service) GetFiltered(ctx context.Context, tenantID string, f Filter) (*Page, error) {
	return s.store.ListFiltered(ctx, tenantID, f.Normalize())
}

// GetByID returns the alert, or (nil, nil) when absent or cross-tenant.
func (s *Service) GetByID(ctx context.Context, tenantID, id string) (*Alert, error) {
	a, ok, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return a, nil
}

// dispatchReceived kicks off detached post-create work: fanout, and
// recommendation enrichment when an advisor is configured. A copy of the
// alert is passed so background work never shares the caller's pointer.
func (s *Service) dispatchReceived(ctx context.Context, a *Alert) {
	bg := context.WithoutCancel(ctx)
	if s.fanout != nil {
		cp := *a
		go s.fanout.AlertReceived(bg, &cp)
	}
	if s.advisor != nil && a.Recommendation == "" {
		cp := *a
		go s.enrichRecommendation(bg, &cp)
	}
}

// enrichRecommendation asks the advisor once and persists the answer.
// Failures are logged and swallowed, like fanout.
func (s *Service) enrichRecommendation(ctx context.Context, a *Alert) {
	rec, err := s.advisor.Recommend(ctx, a)
	if err != nil {
		s.logger.Error(ctx, err, "recommendation enrichment failed", "alert_id", a.ID)
		return
	}
	if rec == "" {
		return
	}
	if err := s.store.SetRecommendation(ctx, a.TenantID, a.ID, rec); err != nil {
		s.logger.Error(ctx, err, "failed to persist recommendation", "alert_id", a.ID)
	}
}

func (s *Service) countCreateError(reason string) {
	if s.metrics != nil {
		s.metrics.CreateErrorsTotal.WithLabelValues(reason).Inc()
	}
}

func (s *Service) countDedupHit() {
	if s.metrics != nil {
		s.metrics.DedupHitsTotal.Inc()
	}
}
