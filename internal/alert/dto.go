package alert

import "time"

// CreateRequest is the transfer shape for alert creation.
type CreateRequest struct {
	TypeCode       string     `json:"alert_type_code"`
	HubID          string     `json:"hub_id,omitempty"`
	NodeID         string     `json:"node_id,omitempty"`
	Severity       Severity   `json:"severity,omitempty"`
	Message        string     `json:"message"`
	Recommendation string     `json:"recommendation,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// View is the transfer shape of an alert as served to clients and
// carried in realtime events.
type View struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	HubID          string     `json:"hub_id,omitempty"`
	NodeID         string     `json:"node_id,omitempty"`
	TypeCode       string     `json:"alert_type_code"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	Recommendation string     `json:"recommendation,omitempty"`
	Source         Source     `json:"source"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	IsActive       bool       `json:"is_active"`
}

// ToView converts a persisted alert to its transfer shape.
func ToView(a *Alert) *View {
	if a == nil {
		return nil
	}
	return &View{
		ID:             a.ID,
		TenantID:       a.TenantID,
		HubID:          a.HubID,
		NodeID:         a.NodeID,
		TypeCode:       a.TypeCode,
		Severity:       a.Severity,
		Message:        a.Message,
		Recommendation: a.Recommendation,
		Source:         a.Source,
		CreatedAt:      a.CreatedAt,
		ExpiresAt:      a.ExpiresAt,
		AcknowledgedAt: a.AcknowledgedAt,
		IsActive:       a.IsActive,
	}
}

// ToViews converts a slice of alerts.
func ToViews(alerts []Alert) []View {
	out := make([]View, len(alerts))
	for i := range alerts {
		out[i] = *ToView(&alerts[i])
	}
	return out
}
