// Package alert provides the business boundary for Beacon's alert
// lifecycle. It defines the Service (creation, dedup, acknowledgement,
// deactivation, queries), Catalog (type resolution), Fanout (best-effort
// propagation), Store interface (persistence), and domain models.
package alert
