package ports

import "stockMatrix/internal/domain"

// SeriesHandle is the opaque reference a pane returns for a created series.
type SeriesHandle uint64

// StyleOptions describes how a pane should draw a series.
type StyleOptions struct {
	Color     string
	LineWidth int
	Title     string
}

// PointerEvent is what a pane reports when the cursor moves over it.
// Time and Point are nil when the cursor left the pane. SeriesValues holds
// the values the pane rendered under the cursor, keyed by handle.
type PointerEvent struct {
	Time         *domain.TimePoint
	Point        *domain.ScreenPoint
	SeriesValues map[SeriesHandle]domain.Point
}

// Pane is the rendering capability of one chart surface.
// Its coordinate space is private: other panes never read it directly.
type Pane interface {
	// ID returns which pane of the chart this surface is.
	ID() domain.PaneID

	// CreateSeries attaches a new, empty series.
	CreateSeries(role domain.SeriesRole, style StyleOptions) (SeriesHandle, error)
	// SetData replaces the points of a series.
	SetData(handle SeriesHandle, points []domain.Point) error
	// RemoveSeries detaches a series; its handle becomes invalid.
	RemoveSeries(handle SeriesHandle) error

	// VisibleRange returns the current time window, or nil before the pane has settled.
	VisibleRange() *domain.VisibleRange
	// SetVisibleRange sets the time window. Implementations may synchronously
	// fire their own visible-range-change notification.
	SetVisibleRange(r domain.VisibleRange) error
	// FitContent fits the time window to all attached data.
	FitContent() error

	// PriceAt converts a vertical screen coordinate to a price on the series' scale.
	PriceAt(handle SeriesHandle, y float64) (float64, bool)
	// TimeToX converts a time to a horizontal screen coordinate.
	TimeToX(t domain.TimePoint) (float64, bool)
	// Bounds returns the rendered bounding box.
	Bounds() domain.Rect

	// OnVisibleRangeChange subscribes to time window changes.
	OnVisibleRangeChange(cb func(r *domain.VisibleRange))
	// OnPointerMove subscribes to cursor movement.
	OnPointerMove(cb func(ev PointerEvent))
}
