package ports

import "context"

// Logger is the observability hook injected into the chart engine and every
// adapter. Implementations live in internal/adapters/logger (plain text and
// zerolog). Several field maps may be passed per call.
type Logger interface {
	// Debug logs per-event detail such as dropped range changes.
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	// Info logs lifecycle events: chart loaded, provider initialized.
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	// Warn logs a contained failure: a pane refused a series, the cache is down.
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs a failure together with its cause.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
