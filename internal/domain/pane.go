package domain

// VisibleRange is the time window displayed on a pane's time axis.
type VisibleRange struct {
	From TimePoint `json:"from" yaml:"from"`
	To   TimePoint `json:"to" yaml:"to"`
}

// Valid reports whether the range is settled: From strictly before To.
func (r VisibleRange) Valid() bool {
	return r.From < r.To
}

// Contains reports whether t lies within the range, bounds included.
func (r VisibleRange) Contains(t TimePoint) bool {
	return t >= r.From && t <= r.To
}

// ScreenPoint is a pointer position in pane pixel coordinates.
type ScreenPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is the rendered bounding box of a pane.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p ScreenPoint) bool {
	return p.X >= r.Left && p.X <= r.Left+r.Width &&
		p.Y >= r.Top && p.Y <= r.Top+r.Height
}
