package chart

import (
	"math"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// DefaultHighlightThreshold is the largest price distance, in price units,
// at which an overlay line is still considered under the cursor.
const DefaultHighlightThreshold = 2.0

// NearestOverlayMatcher picks the moving average line closest to the cursor
// on the price pane.
type NearestOverlayMatcher struct {
	pane      ports.Pane
	threshold float64
}

// NewNearestOverlayMatcher creates a matcher for the price pane.
// A non-positive or non-finite threshold selects DefaultHighlightThreshold.
func NewNearestOverlayMatcher(pricePane ports.Pane, threshold float64) *NearestOverlayMatcher {
	if !(threshold > 0) || math.IsInf(threshold, 1) {
		threshold = DefaultHighlightThreshold
	}
	return &NearestOverlayMatcher{pane: pricePane, threshold: threshold}
}

// Threshold returns the configured maximum distance.
func (m *NearestOverlayMatcher) Threshold() float64 {
	return m.threshold
}

// FindNearest returns the name of the overlay average whose value at the
// hovered time is closest to the price implied by the cursor's Y coordinate,
// or "" if none is within the threshold. Only RoleOverlayAverage candidates
// with a value in values are considered. On equal distance the earlier
// candidate wins. A pointer outside the pane bounds matches nothing.
func (m *NearestOverlayMatcher) FindNearest(pointer domain.ScreenPoint, candidates []RegisteredSeries, values map[string]domain.Point) string {
	if m.pane == nil || !m.pane.Bounds().Contains(pointer) {
		return ""
	}

	best := ""
	bestDist := math.Inf(1)
	for _, rs := range candidates {
		if rs.Role != domain.RoleOverlayAverage {
			continue
		}
		p, ok := values[rs.Name]
		if !ok {
			continue
		}
		implied, ok := m.pane.PriceAt(rs.Handle, pointer.Y)
		if !ok {
			continue
		}
		if d := math.Abs(implied - p.Value); d < bestDist {
			best, bestDist = rs.Name, d
		}
	}
	if bestDist > m.threshold {
		return ""
	}
	return best
}
