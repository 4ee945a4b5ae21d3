// Package headless implements ports.Pane without drawing anything. It keeps
// the pane's coordinate space in memory and emits the same notifications a
// rendered chart would, which makes it usable from the replay tool and tests.
package headless

import (
	"fmt"
	"math"
	"sort"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// DefaultBounds is the pane rectangle used when none is configured.
var DefaultBounds = domain.Rect{Left: 0, Top: 0, Width: 800, Height: 400}

type series struct {
	role   domain.SeriesRole
	style  ports.StyleOptions
	points []domain.Point
}

// Pane is an in-memory chart pane. It is not safe for concurrent use; like a
// browser chart it expects to be driven from a single event loop.
type Pane struct {
	id      domain.PaneID
	bounds  domain.Rect
	ready   bool
	next    ports.SeriesHandle
	series  map[ports.SeriesHandle]*series
	order   []ports.SeriesHandle
	visible *domain.VisibleRange

	rangeSubs   []func(*domain.VisibleRange)
	pointerSubs []func(ports.PointerEvent)
}

// Option configures a Pane.
type Option func(*Pane)

// WithBounds sets the rendered bounding box.
func WithBounds(r domain.Rect) Option {
	return func(p *Pane) { p.bounds = r }
}

// NotReady makes the pane refuse series creation and range changes until
// MarkReady is called, like a pane still initializing.
func NotReady() Option {
	return func(p *Pane) { p.ready = false }
}

// New creates a ready pane.
func New(id domain.PaneID, opts ...Option) *Pane {
	p := &Pane{
		id:     id,
		bounds: DefaultBounds,
		ready:  true,
		series: make(map[ports.SeriesHandle]*series),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MarkReady lets a NotReady pane accept calls.
func (p *Pane) MarkReady() { p.ready = true }

// ID returns the pane identifier.
func (p *Pane) ID() domain.PaneID { return p.id }

// Bounds returns the pane rectangle in screen coordinates.
func (p *Pane) Bounds() domain.Rect { return p.bounds }

// CreateSeries attaches an empty series and returns its handle.
func (p *Pane) CreateSeries(role domain.SeriesRole, style ports.StyleOptions) (ports.SeriesHandle, error) {
	if !p.ready {
		return 0, fmt.Errorf("create %s series on %s pane: %w", role, p.id, ports.ErrPaneUnready)
	}
	p.next++
	p.series[p.next] = &series{role: role, style: style}
	p.order = append(p.order, p.next)
	return p.next, nil
}

// SetData replaces the points of series h with a copy of points.
func (p *Pane) SetData(h ports.SeriesHandle, points []domain.Point) error {
	s, ok := p.series[h]
	if !ok {
		return fmt.Errorf("set data on handle %d: %w", h, ports.ErrUnknownSeries)
	}
	s.points = append([]domain.Point(nil), points...)
	return nil
}

// RemoveSeries detaches series h.
func (p *Pane) RemoveSeries(h ports.SeriesHandle) error {
	if _, ok := p.series[h]; !ok {
		return fmt.Errorf("remove handle %d: %w", h, ports.ErrUnknownSeries)
	}
	delete(p.series, h)
	for i, o := range p.order {
		if o == h {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

// SeriesCount returns the number of attached series.
func (p *Pane) SeriesCount() int { return len(p.series) }

// Lookup returns the handle of the first attached series titled title.
func (p *Pane) Lookup(title string) (ports.SeriesHandle, bool) {
	for _, h := range p.order {
		if p.series[h].style.Title == title {
			return h, true
		}
	}
	return 0, false
}

// Style returns the style a series was created with.
func (p *Pane) Style(h ports.SeriesHandle) (ports.StyleOptions, bool) {
	s, ok := p.series[h]
	if !ok {
		return ports.StyleOptions{}, false
	}
	return s.style, true
}

// VisibleRange returns a copy of the current window, or nil before the
// first range is set.
func (p *Pane) VisibleRange() *domain.VisibleRange {
	if p.visible == nil {
		return nil
	}
	r := *p.visible
	return &r
}

// SetVisibleRange sets the window and, like a rendered chart, fires the
// pane's own change notification synchronously.
func (p *Pane) SetVisibleRange(r domain.VisibleRange) error {
	if !p.ready {
		return fmt.Errorf("set range on %s pane: %w", p.id, ports.ErrPaneUnready)
	}
	if !r.Valid() {
		return fmt.Errorf("set range [%d, %d] on %s pane: %w", r.From, r.To, p.id, ports.ErrInvalidRange)
	}
	p.visible = &r
	for _, cb := range p.rangeSubs {
		cb(p.VisibleRange())
	}
	return nil
}

// FitContent sets the window to span every attached point.
func (p *Pane) FitContent() error {
	first, last, ok := p.span()
	if !ok {
		return fmt.Errorf("fit %s pane: %w", p.id, ports.ErrNoContent)
	}
	if first == last {
		last = first + 1
	}
	return p.SetVisibleRange(domain.VisibleRange{From: first, To: last})
}

// OnVisibleRangeChange subscribes cb to window changes.
func (p *Pane) OnVisibleRangeChange(cb func(*domain.VisibleRange)) {
	p.rangeSubs = append(p.rangeSubs, cb)
}

// OnPointerMove subscribes cb to pointer moves over the pane.
func (p *Pane) OnPointerMove(cb func(ports.PointerEvent)) {
	p.pointerSubs = append(p.pointerSubs, cb)
}

// PriceAt maps y onto the pane's shared price scale, which autoscales to the
// series values inside the visible range.
func (p *Pane) PriceAt(h ports.SeriesHandle, y float64) (float64, bool) {
	if _, ok := p.series[h]; !ok || p.bounds.Height <= 0 {
		return 0, false
	}
	lo, hi, ok := p.priceScale()
	if !ok {
		return 0, false
	}
	return hi - (y-p.bounds.Top)/p.bounds.Height*(hi-lo), true
}

// PriceToY is the inverse of PriceAt.
func (p *Pane) PriceToY(h ports.SeriesHandle, price float64) (float64, bool) {
	if _, ok := p.series[h]; !ok {
		return 0, false
	}
	lo, hi, ok := p.priceScale()
	if !ok {
		return 0, false
	}
	return p.bounds.Top + (hi-price)/(hi-lo)*p.bounds.Height, true
}

// TimeToX maps t onto the horizontal axis of the current window.
func (p *Pane) TimeToX(t domain.TimePoint) (float64, bool) {
	if p.visible == nil {
		return 0, false
	}
	span := float64(p.visible.To - p.visible.From)
	return p.bounds.Left + float64(t-p.visible.From)/span*p.bounds.Width, true
}

// XToTime snaps a horizontal coordinate to the nearest data timestamp.
func (p *Pane) XToTime(x float64) (domain.TimePoint, bool) {
	if p.visible == nil || p.bounds.Width <= 0 {
		return 0, false
	}
	target := float64(p.visible.From) + (x-p.bounds.Left)/p.bounds.Width*float64(p.visible.To-p.visible.From)
	return p.nearestTime(target)
}

// MovePointer emits a pointer-move at pt with the values of every series at
// the snapped time. Coordinates outside the bounds are reported as-is.
func (p *Pane) MovePointer(pt domain.ScreenPoint) {
	ev := ports.PointerEvent{Point: &pt}
	if t, ok := p.XToTime(pt.X); ok {
		ev.Time = &t
		ev.SeriesValues = p.valuesAt(t)
	}
	p.emit(ev)
}

// HoverAt places the pointer over time t at the height of price, measured on
// the scale of handle h.
func (p *Pane) HoverAt(h ports.SeriesHandle, t domain.TimePoint, price float64) error {
	x, ok := p.TimeToX(t)
	if !ok {
		return fmt.Errorf("hover %s pane: %w", p.id, ports.ErrInvalidRange)
	}
	y, ok := p.PriceToY(h, price)
	if !ok {
		return fmt.Errorf("hover %s pane handle %d: %w", p.id, h, ports.ErrUnknownSeries)
	}
	p.MovePointer(domain.ScreenPoint{X: x, Y: y})
	return nil
}

// Leave emits the pointer-move that signals the cursor left the pane.
func (p *Pane) Leave() {
	p.emit(ports.PointerEvent{})
}

func (p *Pane) emit(ev ports.PointerEvent) {
	for _, cb := range p.pointerSubs {
		cb(ev)
	}
}

func (p *Pane) valuesAt(t domain.TimePoint) map[ports.SeriesHandle]domain.Point {
	out := make(map[ports.SeriesHandle]domain.Point)
	for _, h := range p.order {
		s := p.series[h]
		if pt, ok := pointAt(s.points, t); ok {
			out[h] = pt
		}
	}
	return out
}

func (p *Pane) nearestTime(target float64) (domain.TimePoint, bool) {
	var times []domain.TimePoint
	for _, h := range p.order {
		for _, pt := range p.series[h].points {
			if p.visible.Contains(pt.Time) {
				times = append(times, pt.Time)
			}
		}
	}
	if len(times) == 0 {
		return 0, false
	}
	best := times[0]
	for _, t := range times[1:] {
		if math.Abs(float64(t)-target) < math.Abs(float64(best)-target) {
			best = t
		}
	}
	return best, true
}

func (p *Pane) span() (domain.TimePoint, domain.TimePoint, bool) {
	found := false
	var first, last domain.TimePoint
	for _, h := range p.order {
		pts := p.series[h].points
		if len(pts) == 0 {
			continue
		}
		if !found || pts[0].Time < first {
			first = pts[0].Time
		}
		if !found || pts[len(pts)-1].Time > last {
			last = pts[len(pts)-1].Time
		}
		found = true
	}
	return first, last, found
}

func (p *Pane) priceScale() (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, h := range p.order {
		s := p.series[h]
		for _, pt := range s.points {
			if p.visible != nil && !p.visible.Contains(pt.Time) {
				continue
			}
			low, high := pt.Value, pt.Value
			if s.role == domain.RolePrice {
				low, high = pt.Low, pt.High
			}
			lo, hi = math.Min(lo, low), math.Max(hi, high)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi, true
}

func pointAt(points []domain.Point, t domain.TimePoint) (domain.Point, bool) {
	i := sort.Search(len(points), func(i int) bool { return points[i].Time >= t })
	if i < len(points) && points[i].Time == t {
		return points[i], true
	}
	return domain.Point{}, false
}
