package chart

import (
	"context"
	"sync"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// mockLogger implements ports.Logger for testing and records messages.
type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

// fakePane is a minimal ports.Pane whose range-set behavior is scriptable.
type fakePane struct {
	id         domain.PaneID
	bounds     domain.Rect
	visible    *domain.VisibleRange
	setErr     error
	panicOnSet bool
	onSet      func(r domain.VisibleRange)
	setCalls   int
	fitCalls   int
	implied    map[ports.SeriesHandle]float64
	rangeSubs  []func(*domain.VisibleRange)
}

func newFakePane(id domain.PaneID) *fakePane {
	return &fakePane{
		id:      id,
		bounds:  domain.Rect{Width: 800, Height: 400},
		implied: make(map[ports.SeriesHandle]float64),
	}
}

func (f *fakePane) ID() domain.PaneID { return f.id }
func (f *fakePane) CreateSeries(role domain.SeriesRole, style ports.StyleOptions) (ports.SeriesHandle, error) {
	return 0, ports.ErrPaneUnready
}
func (f *fakePane) SetData(h ports.SeriesHandle, points []domain.Point) error { return nil }
func (f *fakePane) RemoveSeries(h ports.SeriesHandle) error                   { return nil }
func (f *fakePane) VisibleRange() *domain.VisibleRange                        { return f.visible }
func (f *fakePane) SetVisibleRange(r domain.VisibleRange) error {
	f.setCalls++
	if f.panicOnSet {
		panic("pane not initialized")
	}
	if f.setErr != nil {
		return f.setErr
	}
	f.visible = &r
	if f.onSet != nil {
		f.onSet(r)
	}
	for _, cb := range f.rangeSubs {
		cb(&r)
	}
	return nil
}
func (f *fakePane) FitContent() error {
	f.fitCalls++
	return nil
}
func (f *fakePane) PriceAt(h ports.SeriesHandle, y float64) (float64, bool) {
	p, ok := f.implied[h]
	return p, ok
}
func (f *fakePane) TimeToX(t domain.TimePoint) (float64, bool) { return 0, false }
func (f *fakePane) Bounds() domain.Rect                        { return f.bounds }
func (f *fakePane) OnVisibleRangeChange(cb func(*domain.VisibleRange)) {
	f.rangeSubs = append(f.rangeSubs, cb)
}
func (f *fakePane) OnPointerMove(cb func(ports.PointerEvent)) {}

const (
	day = domain.TimePoint(86400)
	t0  = domain.TimePoint(1699920000) // 2023-11-14 00:00:00 UTC
)

var testConfig = domain.ChartConfig{Ticker: "AAPL", Interval: "1d", MAFamily: "sma", Indicator: domain.IndicatorMACD}

func line(start domain.TimePoint, values ...float64) []domain.Point {
	out := make([]domain.Point, len(values))
	for i, v := range values {
		out[i] = domain.Point{Time: start + domain.TimePoint(i)*day, Value: v}
	}
	return out
}

// testDataset returns five daily bars starting at t0. SMA20 starts one day
// later than everything else; at t0+2d SMA5 is 101 and SMA20 is 95.
func testDataset() *domain.Dataset {
	ds := domain.NewDataset(testConfig)
	closes := []float64{100, 102, 101, 99, 103}
	for i, c := range closes {
		open := c - 1
		if i == 3 {
			open = c + 1
		}
		t := t0 + domain.TimePoint(i)*day
		ds.Candles.Points = append(ds.Candles.Points, domain.Point{Time: t, Open: open, High: c + 2, Low: open - 2, Close: c})
		ds.Volume.Points = append(ds.Volume.Points, domain.Point{Time: t, Value: 1000 * float64(i+1), Category: domain.CategoryFor(open, c)})
	}
	ds.AddAverage("SMA5", line(t0, 99, 100, 101, 100.5, 101.5))
	ds.AddAverage("SMA20", line(t0+day, 94, 95, 95.5, 96))
	ds.AddAverage("EMA10", line(t0, 100.4, 100.6, 100.7, 100.3, 101))
	ds.AddAverage("BBANDS_UPPER", line(t0, 105, 105.5, 100.6, 104, 106))
	ds.AddAverage("BBANDS_LOWER", line(t0, 95, 95.5, 96, 94, 96))
	ds.AddTechnical("macd_line", line(t0, 0.5, 0.6, 0.7, 0.4, 0.8))
	ds.AddTechnical("signal_line", line(t0, 0.4, 0.45, 0.5, 0.5, 0.55))
	ds.AddTechnical("histogram", []domain.Point{
		{Time: t0, Value: 0.1, Category: domain.CategoryUp},
		{Time: t0 + day, Value: 0.15, Category: domain.CategoryUp},
		{Time: t0 + 2*day, Value: 0.2, Category: domain.CategoryUp},
		{Time: t0 + 3*day, Value: -0.1, Category: domain.CategoryDown},
		{Time: t0 + 4*day, Value: 0.25, Category: domain.CategoryUp},
	})
	ds.AddTechnical("rsi_line", line(t0, 55, 60, 58, 45, 62))
	return ds
}

func tp(t domain.TimePoint) *domain.TimePoint { return &t }
