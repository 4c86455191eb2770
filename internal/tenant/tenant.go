// Package tenant carries the resolved tenant identifier through request
// contexts. Every alert read and write is scoped to exactly one tenant.
package tenant

import "context"

type ctxKey struct{}

// WithID returns a context carrying the tenant identifier.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the tenant identifier, if present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
