// Package advisor fills in recommendations for alerts created without
// one, using the Claude API. It runs only on detached best-effort paths;
// a failed or empty answer leaves the alert untouched.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/beacon/internal/alert"
)

const (
	requestTimeout    = 60 * time.Second
	maxRecommendation = 2000
)

// Provider produces a completion for a system prompt and user prompt.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Advisor generates recommendations for alerts.
type Advisor struct {
	provider Provider
	logger   log.Logger
}

// New creates an advisor on top of the given provider.
func New(provider Provider, logger log.Logger) *Advisor {
	if logger == nil {
		logger = log.Nop()
	}
	return &Advisor{provider: provider, logger: logger}
}

// Recommend asks the provider for a short recommendation for the alert.
// The detached caller has no deadline, so the request is bounded here.
func (a *Advisor) Recommend(ctx context.Context, al *alert.Alert) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	start := time.Now()
	out, err := a.provider.Complete(ctx, systemPrompt, buildPrompt(al))
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if len(out) > maxRecommendation {
		out = out[:maxRecommendation]
	}

	a.logger.Info(ctx, "recommendation generated",
		"alert_id", al.ID,
		"type", al.TypeCode,
		"duration", time.Since(start).Seconds(),
		"length", len(out),
	)
	return out, nil
}

const systemPrompt = `You advise owners of home and building IoT sensor installations.
Given an alert, reply with a single short paragraph telling the owner what
to do about it. Be concrete and practical. No preamble, no markdown.`

func buildPrompt(al *alert.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert: %s\nSeverity: %s\nMessage: %s\n", al.TypeCode, al.Severity, al.Message)
	if al.HubID != "" {
		fmt.Fprintf(&b, "Hub: %s\n", al.HubID)
	}
	if al.NodeID != "" {
		fmt.Fprintf(&b, "Sensor: %s\n", al.NodeID)
	}
	b.WriteString("\nWhat should the owner do?")
	return b.String()
}
