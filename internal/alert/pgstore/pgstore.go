// Package pgstore provides a PostgreSQL implementation of alert.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/beacon/internal/alert"
)

var tracer = otel.Tracer("github.com/linnemanlabs/beacon/internal/alert/pgstore")

//go:embed schema.sql
var schema string

const pgUniqueViolation = "23505"

// severityOrder ranks severities in SQL the same way alert.Severity.Rank
// does in Go. Kept explicit so reordering the Go constants cannot change
// query results.
const severityOrder = `CASE severity
	WHEN 'critical' THEN 3
	WHEN 'warning' THEN 2
	WHEN 'info' THEN 1
	WHEN 'ok' THEN 0
	ELSE -1 END`

const alertColumns = `id, tenant_id, hub_id, node_id, alert_type_code, severity, message,
	recommendation, source, created_at, expires_at, acknowledged_at, is_active, is_dedup`

// Store persists alerts in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
// The pool's lifecycle stays with the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// SeedTypes upserts the catalog's alert types, keyed by code. Display
// metadata is refreshed; codes already referenced by alerts stay stable.
func (s *Store) SeedTypes(ctx context.Context, types []alert.Type) error {
	ctx, span := s.startSpan(ctx, "pgstore.SeedTypes", "INSERT")
	defer span.End()

	for _, t := range types {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO alert_types (code, name, default_severity, is_global, description, icon_name, is_dedup, is_contact)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (code) DO UPDATE SET
				name        = EXCLUDED.name,
				description = EXCLUDED.description,
				icon_name   = EXCLUDED.icon_name`,
			t.Code, t.Name, string(t.DefaultSeverity), t.IsGlobal, t.Description, t.IconName, t.IsDedup, t.IsContact,
		)
		if err != nil {
			return s.fail(span, fmt.Errorf("seed type %s: %w", t.Code, err))
		}
	}
	return nil
}

// Insert writes a new alert. A unique violation on the active-dedup
// index maps to alert.ErrDuplicate.
func (s *Store) Insert(ctx context.Context, a *alert.Alert) error {
	ctx, span := s.startSpan(ctx, "pgstore.Insert", "INSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		a.ID, a.TenantID, a.HubID, a.NodeID, a.TypeCode, string(a.Severity), a.Message,
		a.Recommendation, string(a.Source), a.CreatedAt, a.ExpiresAt, a.AcknowledgedAt,
		a.IsActive, a.IsDedup,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "alerts_active_dedup_uniq" {
			return alert.ErrDuplicate
		}
		return s.fail(span, fmt.Errorf("insert alert: %w", err))
	}
	return nil
}

// GetByID retrieves an alert scoped to the tenant.
func (s *Store) GetByID(ctx context.Context, tenantID, id string) (*alert.Alert, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.GetByID", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE tenant_id = $1 AND id = $2`
	a, err := scanAlertRow(s.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if a == nil {
		return nil, false, nil
	}
	return a, true, nil
}

// FindActiveDuplicate returns the active alert matching scope and type.
func (s *Store) FindActiveDuplicate(ctx context.Context, tenantID string, scope alert.Scope, typeCode string) (*alert.Alert, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.FindActiveDuplicate", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = $1 AND hub_id = $2 AND node_id = $3 AND alert_type_code = $4 AND is_active
		ORDER BY created_at DESC LIMIT 1`
	a, err := scanAlertRow(s.pool.QueryRow(ctx, query, tenantID, scope.HubID, scope.NodeID, typeCode))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if a == nil {
		return nil, false, nil
	}
	return a, true, nil
}

// Acknowledge sets acknowledged_at and clears is_active with a
// conditional update, so the timestamp is written exactly once.
func (s *Store) Acknowledge(ctx context.Context, tenantID, id string, at time.Time) (*alert.Alert, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.Acknowledge", "UPDATE")
	defer span.End()

	query := `UPDATE alerts SET acknowledged_at = $3, is_active = false
		WHERE tenant_id = $1 AND id = $2 AND acknowledged_at IS NULL
		RETURNING ` + alertColumns
	a, err := scanAlertRow(s.pool.QueryRow(ctx, query, tenantID, id, at))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if a == nil {
		return nil, false, nil
	}
	return a, true, nil
}

// SetRecommendation fills in the recommendation if still empty.
func (s *Store) SetRecommendation(ctx context.Context, tenantID, id, recommendation string) error {
	ctx, span := s.startSpan(ctx, "pgstore.SetRecommendation", "UPDATE")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`UPDATE alerts SET recommendation = $3
		 WHERE tenant_id = $1 AND id = $2 AND recommendation = ''`,
		tenantID, id, recommendation,
	)
	if err != nil {
		return s.fail(span, fmt.Errorf("set recommendation: %w", err))
	}
	return nil
}

// DeactivateByScope clears is_active on all matching active alerts in a
// single statement.
func (s *Store) DeactivateByScope(ctx context.Context, tenantID string, scope alert.Scope, typeCode string) (int64, error) {
	ctx, span := s.startSpan(ctx, "pgstore.DeactivateByScope", "UPDATE")
	defer span.End()

	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET is_active = false
		 WHERE tenant_id = $1 AND hub_id = $2 AND node_id = $3 AND alert_type_code = $4 AND is_active`,
		tenantID, scope.HubID, scope.NodeID, typeCode,
	)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("deactivate alerts: %w", err))
	}
	return tag.RowsAffected(), nil
}

// ListActive returns the tenant's active alerts, severity rank
// descending, created_at descending.
func (s *Store) ListActive(ctx context.Context, tenantID string) ([]alert.Alert, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListActive", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = $1 AND is_active
		ORDER BY ` + severityOrder + ` DESC, created_at DESC`
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query active alerts: %w", err))
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return alerts, nil
}

// ListFiltered returns one page of matching alerts, created_at descending.
func (s *Store) ListFiltered(ctx context.Context, tenantID string, f alert.Filter) (*alert.Page, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListFiltered", "SELECT")
	defer span.End()

	f = f.Normalize()
	where, args := buildWhere(tenantID, f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM alerts `+where, args...).Scan(&total); err != nil {
		return nil, s.fail(span, fmt.Errorf("count alerts: %w", err))
	}

	query := `SELECT ` + alertColumns + ` FROM alerts ` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query alerts: %w", err))
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}

	return &alert.Page{
		Items:      alerts,
		TotalCount: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}, nil
}

func buildWhere(tenantID string, f alert.Filter) (string, []any) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.HubID != "" {
		add("hub_id = $%d", f.HubID)
	}
	if f.NodeID != "" {
		add("node_id = $%d", f.NodeID)
	}
	if f.TypeCode != "" {
		add("alert_type_code = $%d", f.TypeCode)
	}
	if f.Severity != "" {
		add("severity = $%d", string(f.Severity))
	}
	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}
	if f.IsActive != nil {
		add("is_active = $%d", *f.IsActive)
	}
	if f.IsAcknowledged != nil {
		if *f.IsAcknowledged {
			conds = append(conds, "acknowledged_at IS NOT NULL")
		} else {
			conds = append(conds, "acknowledged_at IS NULL")
		}
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		add("created_at <= $%d", f.CreatedTo)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanAlerts(rows pgx.Rows) ([]alert.Alert, error) {
	var out []alert.Alert
	for rows.Next() {
		a, err := scanAlertValues(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

// scanAlertRow scans a single row into an alert. Returns (nil, nil) when
// no row is found.
func scanAlertRow(row pgx.Row) (*alert.Alert, error) {
	a, err := scanAlertValues(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func scanAlertValues(row pgx.Row) (*alert.Alert, error) {
	var (
		a                alert.Alert
		severity, source string
	)
	err := row.Scan(
		&a.ID, &a.TenantID, &a.HubID, &a.NodeID, &a.TypeCode, &severity, &a.Message,
		&a.Recommendation, &source, &a.CreatedAt, &a.ExpiresAt, &a.AcknowledgedAt,
		&a.IsActive, &a.IsDedup,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	a.Severity = alert.Severity(severity)
	a.Source = alert.Source(source)
	return &a, nil
}

func (s *Store) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func (s *Store) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
