// Package alertapi exposes the alert lifecycle over HTTP.
package alertapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/beacon/internal/alert"
)

// AlertService defines the business operations alertapi needs.
type AlertService interface {
	CreateFromCloud(ctx context.Context, tenantID string, req *alert.CreateRequest) (*alert.Alert, error)
	CreateLocal(ctx context.Context, tenantID string, req *alert.CreateRequest) (*alert.Alert, error)
	CreateDeviceOfflineAlert(ctx context.Context, tenantID string, scope alert.Scope) (*alert.Alert, error)
	Acknowledge(ctx context.Context, tenantID, id string) (*alert.Alert, error)
	DeactivateAlerts(ctx context.Context, tenantID string, scope alert.Scope, typeCode string) (int64, error)
	GetActive(ctx context.Context, tenantID string) ([]alert.Alert, error)
	GetFiltered(ctx context.Context, tenantID string, f alert.Filter) (*alert.Page, error)
	GetByID(ctx context.Context, tenantID, id string) (*alert.Alert, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    AlertService
}

// New creates a new API handler.
func New(logger log.Logger, svc AlertService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("alert service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Post("/cloud", a.handleCreateCloud)
		r.Post("/local", a.handleCreateLocal)
		r.Post("/device-offline", a.handleDeviceOffline)
		r.Post("/deactivate", a.handleDeactivate)
		r.Get("/active", a.handleGetActive)
		r.Get("/", a.handleGetFiltered)
		r.Get("/{id}", a.handleGetByID)
		r.Post("/{id}/ack", a.handleAcknowledge)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
