package domain

// SeriesRole is the semantic role of a series on a chart pane.
type SeriesRole int

const (
	RolePrice          SeriesRole = iota // Candlestick OHLC
	RoleVolume                           // Volume histogram
	RoleOverlayAverage                   // Moving average drawn over the price pane
	RoleBand                             // Upper/middle/lower band lines, never highlighted
	RoleOscillator                       // Indicator sub-line on the technical pane
)

// String returns the string representation of the SeriesRole.
func (r SeriesRole) String() string {
	switch r {
	case RolePrice:
		return "price"
	case RoleVolume:
		return "volume"
	case RoleOverlayAverage:
		return "overlay-average"
	case RoleBand:
		return "band"
	case RoleOscillator:
		return "oscillator"
	default:
		return "unknown"
	}
}

// PaneID indexes one of the fixed chart panes.
type PaneID int

const (
	PanePrice PaneID = iota
	PaneVolume
	PaneTechnical

	// NumPanes sizes per-pane arrays.
	NumPanes = 3
)

// AllPanes lists the panes in layout order.
var AllPanes = [NumPanes]PaneID{PanePrice, PaneVolume, PaneTechnical}

// String returns the string representation of the PaneID.
func (p PaneID) String() string {
	switch p {
	case PanePrice:
		return "price"
	case PaneVolume:
		return "volume"
	case PaneTechnical:
		return "technical"
	default:
		return "unknown"
	}
}

// ParsePane returns the pane named by s.
func ParsePane(s string) (PaneID, bool) {
	for _, p := range AllPanes {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// Valid reports whether p indexes a known pane.
func (p PaneID) Valid() bool {
	return p >= 0 && p < NumPanes
}

// PaneFor returns the pane a series with the given role is drawn on.
func PaneFor(role SeriesRole) PaneID {
	switch role {
	case RoleVolume:
		return PaneVolume
	case RoleOscillator:
		return PaneTechnical
	default:
		return PanePrice
	}
}

// Category tags volume and histogram bars by direction.
type Category string

const (
	CategoryUp   Category = "up"
	CategoryDown Category = "down"
	CategoryFlat Category = "flat"
)

// CategoryFor classifies a bar by comparing its close with its open.
func CategoryFor(open, close float64) Category {
	switch {
	case close > open:
		return CategoryUp
	case close < open:
		return CategoryDown
	default:
		return CategoryFlat
	}
}

// CategoryForValue classifies a signed histogram value.
func CategoryForValue(v float64) Category {
	return CategoryFor(0, v)
}
