package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMatrix/internal/adapters/headless"
	"stockMatrix/internal/chart"
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// Mock implementations
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

func (m *mockLogger) warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnMsgs...)
}

type mockProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockProvider) FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return sampleDataset(cfg), nil
}

func (m *mockProvider) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRepository struct {
	mockProvider
	saved   []domain.ChartConfig
	saveErr error
}

func (m *mockRepository) SaveDataset(ctx context.Context, ds *domain.Dataset) error {
	m.saved = append(m.saved, ds.Config)
	return m.saveErr
}

const (
	t0  = domain.TimePoint(1_699_920_000)
	day = domain.TimePoint(86400)
)

var dailyConfig = domain.ChartConfig{Ticker: "AAPL", Interval: "1d", MAFamily: "sma", Indicator: domain.IndicatorRSI}

func sampleDataset(cfg domain.ChartConfig) *domain.Dataset {
	ds := domain.NewDataset(cfg)
	for i, c := range []float64{100, 102, 101} {
		t := t0 + domain.TimePoint(i)*day
		ds.Candles.Points = append(ds.Candles.Points, domain.Point{Time: t, Open: c - 1, High: c + 1, Low: c - 2, Close: c})
		ds.Volume.Points = append(ds.Volume.Points, domain.Point{Time: t, Value: 1000, Category: domain.CategoryUp})
	}
	ds.AddAverage("SMA5", []domain.Point{{Time: t0, Value: 99}, {Time: t0 + day, Value: 100}})
	ds.AddTechnical("rsi_line", []domain.Point{{Time: t0 + 2*day, Value: 55}})
	return ds
}

type fixture struct {
	svc      *ChartService
	engine   *chart.Engine
	panes    [domain.NumPanes]*headless.Pane
	provider *mockProvider
	logger   *mockLogger
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{provider: &mockProvider{}, logger: &mockLogger{}}
	var panes []ports.Pane
	for _, id := range domain.AllPanes {
		f.panes[id] = headless.New(id)
		panes = append(panes, f.panes[id])
	}
	e, err := chart.NewEngine(chart.Config{Logger: f.logger, Panes: panes})
	require.NoError(t, err)
	f.engine = e

	f.svc, err = NewChartService(f.logger, f.provider, e, opts...)
	require.NoError(t, err)
	return f
}

func TestNewChartService_Validation(t *testing.T) {
	_, err := NewChartService(nil, &mockProvider{}, nil)
	assert.Error(t, err)

	f := newFixture(t)
	_, err = NewChartService(f.logger, nil, f.engine)
	assert.Error(t, err)
}

func TestChartService_LoadConfiguresAndFitsEveryPane(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.Load(context.Background(), dailyConfig))

	assert.Equal(t, dailyConfig, f.engine.ChartConfig())
	assert.Equal(t, 1, f.svc.Loads())
	assert.Equal(t, 2, f.panes[domain.PanePrice].SeriesCount())
	assert.Equal(t, 1, f.panes[domain.PaneVolume].SeriesCount())
	assert.Equal(t, 1, f.panes[domain.PaneTechnical].SeriesCount())

	want := domain.VisibleRange{From: t0, To: t0 + 2*day}
	for _, id := range domain.AllPanes {
		got := f.panes[id].VisibleRange()
		require.NotNil(t, got, "pane %s", id)
		assert.Equal(t, want, *got, "pane %s", id)
	}
	assert.Contains(t, f.logger.infoMsgs, "Chart loaded")
}

func TestChartService_LoadFailureKeepsPreviousChart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, dailyConfig))

	f.provider.fail(ports.ErrNotFound)
	other := dailyConfig
	other.Ticker = "ZZZZ"
	err := f.svc.Load(ctx, other)

	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Equal(t, dailyConfig, f.engine.ChartConfig())
	assert.Equal(t, 2, f.panes[domain.PanePrice].SeriesCount())
	assert.Contains(t, f.logger.errorMsgs, "Failed to fetch dataset")
}

func TestChartService_LoadRejectsInvalidConfig(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Load(context.Background(), domain.ChartConfig{Ticker: "AAPL"})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	assert.Zero(t, f.provider.callCount())
}

func TestChartService_Reconfigure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loaded, err := f.svc.Reconfigure(ctx, dailyConfig)
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = f.svc.Reconfigure(ctx, dailyConfig)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, 1, f.provider.callCount())

	macd := dailyConfig
	macd.Indicator = domain.IndicatorMACD
	loaded, err = f.svc.Reconfigure(ctx, macd)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, macd, f.engine.ChartConfig())
	// rsi_line is not part of the macd family
	assert.Zero(t, f.panes[domain.PaneTechnical].SeriesCount())
}

func TestChartService_RefreshNeedsActiveConfig(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Refresh(context.Background()), ports.ErrDatasetMissing)

	require.NoError(t, f.svc.Load(context.Background(), dailyConfig))
	require.NoError(t, f.svc.Refresh(context.Background()))
	assert.Equal(t, 2, f.svc.Loads())
}

func TestChartService_RefreshKeepsWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, dailyConfig))

	zoomed := domain.VisibleRange{From: t0 + day, To: t0 + 2*day}
	require.NoError(t, f.panes[domain.PanePrice].SetVisibleRange(zoomed))

	require.NoError(t, f.svc.Refresh(ctx))
	for _, id := range domain.AllPanes {
		require.NotNil(t, f.panes[id].VisibleRange(), "pane %s", id)
		assert.Equal(t, zoomed, *f.panes[id].VisibleRange(), "pane %s", id)
	}

	// A different configuration is fitted to its own data again.
	macd := dailyConfig
	macd.Indicator = domain.IndicatorMACD
	_, err := f.svc.Reconfigure(ctx, macd)
	require.NoError(t, err)
	assert.Equal(t, domain.VisibleRange{From: t0, To: t0 + 2*day}, *f.panes[domain.PanePrice].VisibleRange())
}

type cachingProvider struct {
	mockProvider
	invalidated []domain.ChartConfig
	invErr      error
}

func (c *cachingProvider) Invalidate(ctx context.Context, cfg domain.ChartConfig) error {
	c.invalidated = append(c.invalidated, cfg)
	return c.invErr
}

func TestChartService_RefreshInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	cache := &cachingProvider{invErr: ports.ErrDataSourceUnavailable}
	svc, err := NewChartService(f.logger, cache, f.engine)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx, dailyConfig))
	assert.Empty(t, cache.invalidated, "a plain load may be served from cache")

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, []domain.ChartConfig{dailyConfig}, cache.invalidated)
	assert.Equal(t, 2, cache.callCount())
	assert.Contains(t, f.logger.warnings(), "Cached dataset not invalidated")
}

func TestChartService_Snapshot(t *testing.T) {
	repo := &mockRepository{saveErr: errors.New("disk full")}
	f := newFixture(t, WithSnapshot(repo))

	require.NoError(t, f.svc.Load(context.Background(), dailyConfig))
	assert.Equal(t, []domain.ChartConfig{dailyConfig}, repo.saved)
	assert.Contains(t, f.logger.warnings(), "Dataset snapshot failed")
}

func TestChartService_RunOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Run(context.Background(), dailyConfig, 0))
	assert.Equal(t, 1, f.svc.Loads())
}

func TestChartService_RunRefreshesUntilCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.svc.Run(ctx, dailyConfig, 20*time.Millisecond) }()

	require.Eventually(t, func() bool { return f.provider.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	f.provider.fail(ports.ErrDataSourceUnavailable)
	require.Eventually(t, func() bool {
		for _, w := range f.logger.warnings() {
			if w == "Refresh failed, keeping previous chart" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.Equal(t, dailyConfig, f.engine.ChartConfig())
}

func TestChartService_RunFailsOnFirstLoad(t *testing.T) {
	f := newFixture(t)
	f.provider.fail(ports.ErrAuthenticationFailed)
	err := f.svc.Run(context.Background(), dailyConfig, time.Hour)
	assert.ErrorIs(t, err, ports.ErrAuthenticationFailed)
}
