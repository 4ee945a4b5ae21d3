package chart

import (
	"context"
	"fmt"
	"sync"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// Config wires an Engine to its panes and collaborators.
type Config struct {
	Logger             ports.Logger
	Panes              []ports.Pane // must include the price pane
	Clock              ports.Clock
	HighlightThreshold float64 // <= 0 or non-finite selects DefaultHighlightThreshold
	Format             *Format // nil selects DefaultFormat
	// OnDisplay receives every new DisplayModel. It runs with the engine
	// locked and must not call back into the Engine.
	OnDisplay func(domain.DisplayModel)
}

// Engine keeps the chart panes coherent: it propagates visible ranges,
// resolves the crosshair into a legend and tracks the highlighted average.
type Engine struct {
	logger    ports.Logger
	panes     [domain.NumPanes]ports.Pane
	sync      *Synchronizer
	resolver  CrosshairResolver
	matcher   *NearestOverlayMatcher
	shortcuts *ShortcutController
	format    Format
	onDisplay func(domain.DisplayModel)

	mu        sync.Mutex // serializes reconfiguration and crosshair dispatch
	registry  *Registry
	config    domain.ChartConfig
	highlight domain.HighlightState
	display   domain.DisplayModel
}

// NewEngine registers every pane and subscribes to its events.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for chart engine")
	}

	e := &Engine{
		logger:    cfg.Logger,
		sync:      NewSynchronizer(cfg.Logger),
		format:    DefaultFormat,
		onDisplay: cfg.OnDisplay,
		registry:  newRegistry(),
	}
	if cfg.Format != nil {
		e.format = *cfg.Format
	}

	for _, p := range cfg.Panes {
		if p == nil {
			return nil, fmt.Errorf("nil pane: %w", ports.ErrConfigurationError)
		}
		if err := e.sync.Register(p); err != nil {
			return nil, err
		}
		e.panes[p.ID()] = p
	}
	price := e.panes[domain.PanePrice]
	if price == nil {
		return nil, fmt.Errorf("price pane is required: %w", ports.ErrConfigurationError)
	}
	e.matcher = NewNearestOverlayMatcher(price, cfg.HighlightThreshold)
	e.shortcuts = NewShortcutController(price, cfg.Clock, cfg.Logger)
	e.display = ProjectLegend(domain.LegendModel{}, domain.HighlightState{}, domain.ChartConfig{}, e.format)

	for _, p := range e.panes {
		if p == nil {
			continue
		}
		id := p.ID()
		p.OnVisibleRangeChange(func(r *domain.VisibleRange) {
			e.sync.OnRangeChange(context.Background(), id, r)
		})
		p.OnPointerMove(func(ev ports.PointerEvent) {
			e.HandlePointerMove(context.Background(), id, ev)
		})
	}
	return e, nil
}

// Configure replaces the chart's series with those of ds. The old series
// are removed from every pane and the new ones attached before any further
// pointer event is processed. The legend and highlight are reset.
func (e *Engine) Configure(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil {
		return ports.ErrDatasetMissing
	}
	if err := ds.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrMalformedPayload, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.Teardown(ctx, e.panes, e.logger)
	e.registry = BuildRegistry(ctx, e.panes, ds, e.logger)
	e.config = ds.Config
	e.highlight = domain.HighlightState{}
	e.publishLocked(ProjectLegend(domain.LegendModel{}, e.highlight, e.config, e.format))

	e.logger.Info(ctx, "Chart configured", map[string]interface{}{
		"config": ds.Config.Key(), "series": e.registry.Len(),
	})
	return nil
}

// HandlePointerMove resolves a pointer-move from source into a new
// DisplayModel. The highlight is only computed for the price pane.
func (e *Engine) HandlePointerMove(ctx context.Context, source domain.PaneID, ev ports.PointerEvent) domain.DisplayModel {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := domain.CrosshairState{Time: ev.Time, Source: source, Pointer: ev.Point}
	model := e.resolver.Resolve(e.registry, state, ev.SeriesValues)

	e.highlight = domain.HighlightState{}
	if !model.Cleared() && state.Source == domain.PanePrice && state.Pointer != nil {
		e.highlight.Series = e.matcher.FindNearest(*state.Pointer, e.registry.Series(domain.PanePrice), model.Values[domain.PanePrice])
	}

	display := ProjectLegend(model, e.highlight, e.config, e.format)
	e.publishLocked(display)
	return display
}

// HandleRangeChange forwards a visible-range change from source to the
// other panes. Panes wired through NewEngine call it automatically.
func (e *Engine) HandleRangeChange(ctx context.Context, source domain.PaneID, r *domain.VisibleRange) bool {
	return e.sync.OnRangeChange(ctx, source, r)
}

// ApplyShortcut applies a time-range shortcut to the price pane.
func (e *Engine) ApplyShortcut(ctx context.Context, s domain.Shortcut) error {
	return e.shortcuts.Apply(ctx, s)
}

// VisibleRange returns the price pane's window, or nil while it is unsettled.
func (e *Engine) VisibleRange() *domain.VisibleRange {
	return e.panes[domain.PanePrice].VisibleRange()
}

// SetVisibleRange moves the price pane to r. The other panes follow through
// the price pane's change notification.
func (e *Engine) SetVisibleRange(ctx context.Context, r domain.VisibleRange) error {
	if err := e.panes[domain.PanePrice].SetVisibleRange(r); err != nil {
		return fmt.Errorf("set visible range: %w", err)
	}
	e.logger.Debug(ctx, "Visible range set", map[string]interface{}{"from": int64(r.From), "to": int64(r.To)})
	return nil
}

// Shortcuts returns the shortcut menu for the configured interval.
func (e *Engine) Shortcuts() []domain.Shortcut {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ShortcutsForInterval(e.config.Interval)
}

// Display returns the latest DisplayModel.
func (e *Engine) Display() domain.DisplayModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display
}

// Highlight returns the latest highlight state.
func (e *Engine) Highlight() domain.HighlightState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.highlight
}

// ChartConfig returns the active configuration.
func (e *Engine) ChartConfig() domain.ChartConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

func (e *Engine) publishLocked(d domain.DisplayModel) {
	e.display = d
	if e.onDisplay != nil {
		e.onDisplay(d)
	}
}
