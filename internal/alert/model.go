package alert

import (
	"time"

	"github.com/linnemanlabs/go-core/xerrors"
)

// ErrInvalidSeverity is returned when a request carries a severity
// outside the known set.
var ErrInvalidSeverity = xerrors.New("invalid severity")

// Severity orders alert importance. The total order is defined by the
// rank table below, not by declaration order.
type Severity string

const (
	SeverityOk       Severity = "ok"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityOk:       0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityCritical: 3,
}

// Rank returns the numeric ordering of a severity (critical > warning >
// info > ok). Unknown severities rank below ok.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Source records where an alert condition was detected.
type Source string

const (
	SourceLocal Source = "local"
	SourceCloud Source = "cloud"
)

// Type is alert-type metadata resolved by the catalog. Code is the stable
// lowercase identifier alerts reference.
type Type struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	DefaultSeverity Severity `json:"default_severity"`
	IsGlobal        bool     `json:"is_global"`
	Description     string   `json:"description,omitempty"`
	IconName        string   `json:"icon_name,omitempty"`

	// IsDedup marks the type as dedup-sensitive: at most one active
	// alert per (tenant, scope, type).
	IsDedup bool `json:"is_dedup"`

	// IsContact marks a binary contact-style condition mirrored to the
	// device bridge.
	IsContact bool `json:"is_contact"`
}

// Scope attaches an alert to a hub or node. Either field may be empty.
type Scope struct {
	HubID  string `json:"hub_id,omitempty"`
	NodeID string `json:"node_id,omitempty"`
}

// IsZero reports whether the scope names neither a hub nor a node.
func (s Scope) IsZero() bool { return s.HubID == "" && s.NodeID == "" }

// Alert is a single alert record. IsActive is true exactly while
// AcknowledgedAt is nil; Acknowledge is the only transition in this
// engine that clears it.
type Alert struct {
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

	// IsDedup is copied from the type at creation so the store can
	// enforce the active-uniqueness constraint without a join.
	IsDedup bool `json:"-"`
}

// Scope returns the hub/node the alert is attached to.
func (a *Alert) Scope() Scope { return Scope{HubID: a.HubID, NodeID: a.NodeID} }

// Filter narrows GetFiltered. Zero values mean "no constraint".
type Filter struct {
	HubID          string
	NodeID         string
	TypeCode       string
	Severity       Severity
	Source         Source
	IsActive       *bool
	IsAcknowledged *bool
	CreatedFrom    time.Time
	CreatedTo      time.Time
	Page           int
	PageSize       int
}

const (
	DefaultPage     = 1
	DefaultPageSize = 50
)

// Normalize applies pagination defaults in place and returns the filter.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// Page is one page of filtered results.
type Page struct {
	Items      []Alert `json:"items"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

// Less orders alerts for active listings: severity rank descending,
// CreatedAt descending as tie-break.
func Less(a, b *Alert) bool {
	if ar, br := a.Severity.Rank(), b.Severity.Rank(); ar != br {
		return ar > br
	}
	return a.CreatedAt.After(b.CreatedAt)
}
