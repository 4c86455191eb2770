package alertapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/beacon/internal/alert"
	"github.com/linnemanlabs/beacon/internal/tenant"
)

func (a *API) handleCreateCloud(w http.ResponseWriter, r *http.Request) {
	a.handleCreate(w, r, a.svc.CreateFromCloud)
}

func (a *API) handleCreateLocal(w http.ResponseWriter, r *http.Request) {
	a.handleCreate(w, r, a.svc.CreateLocal)
}

type createFn func(ctx context.Context, tenantID string, req *alert.CreateRequest) (*alert.Alert, error)

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request, create createFn) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}

	var req alert.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.TypeCode == "" || req.Message == "" {
		http.Error(w, `{"error":"alert_type_code and message are required"}`, http.StatusBadRequest)
		return
	}

	al, err := create(r.Context(), tenantID, &req)
	if err != nil {
		if errors.Is(err, alert.ErrTypeNotFound) {
			http.Error(w, `{"error":"unknown alert type"}`, http.StatusBadRequest)
			return
		}
		if errors.Is(err, alert.ErrInvalidSeverity) {
			http.Error(w, `{"error":"invalid severity"}`, http.StatusBadRequest)
			return
		}
		a.logger.Error(r.Context(), err, "alert creation failed", "type", req.TypeCode)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("beacon.alert.id", al.ID))

	writeJSON(w, http.StatusCreated, alert.ToView(al))
}

type scopeRequest struct {
	HubID  string `json:"hub_id,omitempty"`
	NodeID string `json:"node_id,omitempty"`
}

func (s scopeRequest) scope() alert.Scope { return alert.Scope{HubID: s.HubID, NodeID: s.NodeID} }

func (a *API) handleDeviceOffline(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}

	var req scopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.scope().IsZero() {
		http.Error(w, `{"error":"hub_id or node_id is required"}`, http.StatusBadRequest)
		return
	}

	al, err := a.svc.CreateDeviceOfflineAlert(r.Context(), tenantID, req.scope())
	if err != nil {
		a.logger.Error(r.Context(), err, "device offline alert failed", "hub_id", req.HubID, "node_id", req.NodeID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, alert.ToView(al))
}

type deactivateRequest struct {
	scopeRequest
	TypeCode string `json:"alert_type_code"`
}

func (a *API) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}

	var req deactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.TypeCode == "" {
		http.Error(w, `{"error":"alert_type_code is required"}`, http.StatusBadRequest)
		return
	}

	n, err := a.svc.DeactivateAlerts(r.Context(), tenantID, req.scope(), req.TypeCode)
	if err != nil {
		if errors.Is(err, alert.ErrTypeNotFound) {
			http.Error(w, `{"error":"unknown alert type"}`, http.StatusBadRequest)
			return
		}
		a.logger.Error(r.Context(), err, "alert deactivation failed", "type", req.TypeCode)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deactivated": n})
}

func (a *API) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("beacon.alert.id", id))

	al, err := a.svc.Acknowledge(r.Context(), tenantID, id)
	if err != nil {
		a.logger.Error(r.Context(), err, "acknowledge failed", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if al == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, alert.ToView(al))
}

func (a *API) handleGetByID(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	al, err := a.svc.GetByID(r.Context(), tenantID, id)
	if err != nil {
		a.logger.Error(r.Context(), err, "get alert failed", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if al == nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, alert.ToView(al))
}

func (a *API) handleGetActive(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}

	alerts, err := a.svc.GetActive(r.Context(), tenantID)
	if err != nil {
		a.logger.Error(r.Context(), err, "list active alerts failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alert.ToViews(alerts)})
}

func (a *API) handleGetFiltered(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"tenant not resolved"}`, http.StatusUnauthorized)
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	page, err := a.svc.GetFiltered(r.Context(), tenantID, f)
	if err != nil {
		a.logger.Error(r.Context(), err, "filtered alert query failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":       alert.ToViews(page.Items),
		"total_count": page.TotalCount,
		"page":        page.Page,
		"page_size":   page.PageSize,
	})
}

func filterFromQuery(r *http.Request) (alert.Filter, error) {
	q := r.URL.Query()
	f := alert.Filter{
		HubID:    q.Get("hub_id"),
		NodeID:   q.Get("node_id"),
		TypeCode: q.Get("type"),
		Severity: alert.Severity(q.Get("severity")),
		Source:   alert.Source(q.Get("source")),
	}

	if f.Severity != "" && !f.Severity.Valid() {
		return f, errors.New("invalid severity")
	}

	var err error
	if f.IsActive, err = boolParam(q.Get("is_active")); err != nil {
		return f, errors.New("invalid is_active")
	}
	if f.IsAcknowledged, err = boolParam(q.Get("is_acknowledged")); err != nil {
		return f, errors.New("invalid is_acknowledged")
	}

	if v := q.Get("from"); v != "" {
		if f.CreatedFrom, err = time.Parse(time.RFC3339, v); err != nil {
			return f, errors.New("invalid from timestamp")
		}
	}
	if v := q.Get("to"); v != "" {
		if f.CreatedTo, err = time.Parse(time.RFC3339, v); err != nil {
			return f, errors.New("invalid to timestamp")
		}
	}

	if v := q.Get("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil || f.Page < 1 {
			return f, errors.New("invalid page")
		}
	}
	if v := q.Get("page_size"); v != "" {
		if f.PageSize, err = strconv.Atoi(v); err != nil || f.PageSize < 1 {
			return f, errors.New("invalid page_size")
		}
	}

	return f, nil
}

func boolParam(v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
