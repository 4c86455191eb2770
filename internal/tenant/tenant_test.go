package tenant

import (
	"context"
	"testing"
)

func TestWithIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithID(context.Background(), "t-1")
	id, ok := FromContext(ctx)
	if !ok || id != "t-1" {
		t.Errorf("FromContext = %q/%v, want t-1/true", id, ok)
	}
}

func TestFromContext_Absent(t *testing.T) {
	t.Parallel()

	if id, ok := FromContext(context.Background()); ok || id != "" {
		t.Errorf("FromContext = %q/%v, want empty/false", id, ok)
	}
}

func TestFromContext_EmptyID(t *testing.T) {
	t.Parallel()

	// an empty tenant is never valid
	if _, ok := FromContext(WithID(context.Background(), "")); ok {
		t.Error("empty tenant id reported as resolved")
	}
}
