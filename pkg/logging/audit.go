package logging

import (
	"context"
	"log/slog"
)

// AuditEvent describes a security relevant action such as a token exchange.
type AuditEvent struct {
	Action  string // e.g. "token_exchange", "token_cache_hit"
	Outcome string // "success" or "failure"
	Target  string // server name
	Details string
	Error   string
}

// Audit logs an AuditEvent at INFO level with an [AUDIT] prefix.
func Audit(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("action", event.Action),
		slog.String("outcome", event.Outcome),
	}
	if event.Target != "" {
		attrs = append(attrs, slog.String("target", event.Target))
	}
	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	current().LogAttrs(context.Background(), slog.LevelInfo, "[AUDIT] "+event.Action, attrs...)
}

// TruncateSecret returns the first few characters of a secret followed by
// an ellipsis, for debug output. Short values are fully masked.
func TruncateSecret(secret string) string {
	const visible = 6
	if len(secret) <= visible*2 {
		return "***"
	}
	return secret[:visible] + "..."
}
