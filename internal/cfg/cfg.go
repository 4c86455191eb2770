// Package cfg holds Beacon's application configuration.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	DatabaseURL           string
	PushEndpoint          string
	BridgeURL             string
	ClaudeAPIKey          string
	ClaudeModel           string
	TenantTokens          string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.PushEndpoint, "push-endpoint", "", "realtime push gateway URL for alert events (empty = disabled)")
	fs.StringVar(&c.BridgeURL, "bridge-url", "", "device bridge base URL for contact indicators (empty = disabled)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude recommendation advisor (empty = disabled)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model for the recommendation advisor")
	fs.StringVar(&c.TenantTokens, "tenant-tokens", "", "comma-separated tenant=token pairs for API authentication")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Tenant tokens are required: without them no request can be scoped
	if c.TenantTokens == "" {
		errs = append(errs, errors.New("TENANT_TOKENS is required"))
	} else if _, err := ParseTenantTokens(c.TenantTokens); err != nil {
		errs = append(errs, err)
	}

	// The advisor needs a model when enabled
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseTenantTokens parses "tenant=token,tenant=token" into a
// token -> tenant ID map.
func ParseTenantTokens(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tid, token, ok := strings.Cut(pair, "=")
		if !ok || tid == "" || token == "" {
			return nil, fmt.Errorf("invalid TENANT_TOKENS entry %q (want tenant=token)", pair)
		}
		if existing, dup := out[token]; dup && existing != tid {
			return nil, fmt.Errorf("TENANT_TOKENS token reused across tenants %q and %q", existing, tid)
		}
		out[token] = tid
	}
	if len(out) == 0 {
		return nil, errors.New("TENANT_TOKENS contains no tenant=token pairs")
	}
	return out, nil
}
