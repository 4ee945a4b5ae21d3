package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Pane Errors
	ErrPaneUnready    = errors.New("pane is not ready")
	ErrUnknownSeries  = errors.New("series handle is not attached to the pane")
	ErrInvalidRange   = errors.New("visible range is missing or degenerate")
	ErrNoContent      = errors.New("pane has no data to fit")
	ErrPaneNotWired   = errors.New("pane is not registered with the chart")
	ErrDuplicatePane  = errors.New("pane id is already registered")
	ErrDatasetMissing = errors.New("chart has no dataset configured")

	// Data Source Errors
	ErrDataSourceUnavailable = errors.New("data source is unavailable")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed  = errors.New("data source authentication failed (check API keys)")
	ErrMalformedPayload      = errors.New("data source returned a malformed payload")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
