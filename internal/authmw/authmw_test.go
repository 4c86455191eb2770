package authmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linnemanlabs/beacon/internal/tenant"
)

func newProtectedServer(t *testing.T, tokens map[string]string) (*httptest.Server, *string) {
	t.Helper()
	var seenTenant string
	handler := TenantToken(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := tenant.FromContext(r.Context())
		seenTenant = id
		w.WriteHeader(http.StatusOK)
	}))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, &seenTenant
}

func get(t *testing.T, url, authHeader string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	return resp
}

func TestTenantToken_ResolvesTenant(t *testing.T) {
	t.Parallel()

	srv, seen := newProtectedServer(t, map[string]string{
		"secret-a": "tenant-a",
		"secret-b": "tenant-b",
	})

	resp := get(t, srv.URL, "Bearer secret-b")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if *seen != "tenant-b" {
		t.Errorf("tenant = %q, want tenant-b", *seen)
	}
}

func TestTenantToken_Rejections(t *testing.T) {
	t.Parallel()

	srv, seen := newProtectedServer(t, map[string]string{"secret-a": "tenant-a"})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic c2VjcmV0LWE="},
		{"wrong token", "Bearer wrong"},
		{"token prefix only", "Bearer secret"},
		{"token with suffix", "Bearer secret-a-extra"},
		{"empty bearer", "Bearer "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*seen = ""
			resp := get(t, srv.URL, tt.header)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
			if *seen != "" {
				t.Errorf("handler ran with tenant %q", *seen)
			}
		})
	}
}

func TestTenantToken_NoTokensConfigured(t *testing.T) {
	t.Parallel()

	srv, _ := newProtectedServer(t, nil)

	resp := get(t, srv.URL, "Bearer anything")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
