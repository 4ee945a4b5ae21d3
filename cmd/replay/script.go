package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"stockMatrix/config"
	"stockMatrix/internal/adapters/backend"
	"stockMatrix/internal/adapters/headless"
	"stockMatrix/internal/app"
	"stockMatrix/internal/chart"
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// Actions understood in a script step.
const (
	ActionHover     = "hover"
	ActionMove      = "move"
	ActionLeave     = "leave"
	ActionZoom      = "zoom"
	ActionShortcut  = "shortcut"
	ActionConfigure = "configure"
)

// Script is a recorded chart session.
type Script struct {
	Chart domain.ChartConfig `yaml:"chart"`
	// Now pins the clock used by shortcuts.
	Now string `yaml:"now"`
	// Dataset is a backend chart-data JSON file, relative to the script.
	// Without it datasets come from the configured data source.
	Dataset string `yaml:"dataset"`
	Steps   []Step `yaml:"steps"`
}

// Step is one user interaction.
type Step struct {
	Action string `yaml:"action"`
	Pane   string `yaml:"pane"`

	// hover; Series is the title of the line whose scale places the cursor.
	// Technical lines are titled by their legend label (MACD, RSI, K).
	Series string  `yaml:"series"`
	Time   string  `yaml:"time"`
	Price  float64 `yaml:"price"`

	// move
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`

	// zoom
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// shortcut
	Unit  domain.ShortcutUnit `yaml:"step"`
	Count int                 `yaml:"count"`

	// configure
	Chart *domain.ChartConfig `yaml:"chart"`
}

// Frame is the legend after a step.
type Frame struct {
	Step    int                    `json:"step"`
	Action  string                 `json:"action"`
	Display domain.DisplayModel    `json:"display"`
	Ranges  []*domain.VisibleRange `json:"ranges"`
}

// LoadScript reads a YAML script. A relative dataset path is resolved
// against the script's directory.
func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w: %w", path, ports.ErrInvalidRequest, err)
	}
	if s.Dataset != "" && !filepath.IsAbs(s.Dataset) {
		s.Dataset = filepath.Join(filepath.Dir(path), s.Dataset)
	}
	return &s, nil
}

// fileProvider serves one backend payload for every configuration.
type fileProvider struct {
	payload []byte
}

func newFileProvider(path string) (*fileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return &fileProvider{payload: raw}, nil
}

func (f *fileProvider) FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error) {
	return backend.DecodeChartData(cfg, f.payload)
}

// Player drives a headless chart through a script.
type Player struct {
	logger  ports.Logger
	engine  *chart.Engine
	panes   [domain.NumPanes]*headless.Pane
	service *app.ChartService
}

// NewPlayer builds the headless chart for script. provider is used when the
// script names no dataset file.
func NewPlayer(cfg *config.Config, script *Script, provider ports.DatasetProvider, logger ports.Logger) (*Player, error) {
	clock := ports.SystemClock
	if script.Now != "" {
		now, err := domain.ParseTimePoint(script.Now)
		if err != nil {
			return nil, fmt.Errorf("script clock: %w: %w", ports.ErrInvalidRequest, err)
		}
		clock = ports.ClockFunc(func() time.Time { return now.Time() })
	}
	if script.Dataset != "" {
		fp, err := newFileProvider(script.Dataset)
		if err != nil {
			return nil, err
		}
		provider = fp
	}
	if provider == nil {
		return nil, fmt.Errorf("no dataset provider: %w", ports.ErrConfigurationError)
	}

	engine, panes, err := app.NewHeadlessChart(cfg, logger, clock, nil)
	if err != nil {
		return nil, err
	}
	svc, err := app.NewChartService(logger, provider, engine)
	if err != nil {
		return nil, err
	}
	return &Player{logger: logger, engine: engine, panes: panes, service: svc}, nil
}

// Play loads the script's chart and applies every step, returning one frame
// per step. It stops at the first failing step.
func (p *Player) Play(ctx context.Context, script *Script) ([]Frame, error) {
	if err := p.service.Load(ctx, script.Chart); err != nil {
		return nil, err
	}

	frames := make([]Frame, 0, len(script.Steps))
	for i, step := range script.Steps {
		if err := p.apply(ctx, step); err != nil {
			return frames, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		frame := Frame{Step: i + 1, Action: step.Action, Display: p.engine.Display()}
		for _, pane := range p.panes {
			frame.Ranges = append(frame.Ranges, pane.VisibleRange())
		}
		frames = append(frames, frame)

		p.logger.Info(ctx, "Step replayed", map[string]interface{}{
			"step": i + 1, "action": step.Action, "time": frame.Display.Time, "highlighted": frame.Display.Highlighted,
		})
	}
	return frames, nil
}

// Pane returns the headless pane with the given id.
func (p *Player) Pane(id domain.PaneID) *headless.Pane {
	return p.panes[id]
}

// Engine returns the chart engine.
func (p *Player) Engine() *chart.Engine {
	return p.engine
}

func (p *Player) apply(ctx context.Context, step Step) error {
	switch step.Action {
	case ActionShortcut:
		return p.engine.ApplyShortcut(ctx, domain.Shortcut{Unit: step.Unit, Count: step.Count})
	case ActionConfigure:
		if step.Chart == nil {
			return fmt.Errorf("configure without chart: %w", ports.ErrInvalidRequest)
		}
		_, err := p.service.Reconfigure(ctx, *step.Chart)
		return err
	}

	pane, err := p.pane(step.Pane)
	if err != nil {
		return err
	}
	switch step.Action {
	case ActionHover:
		t, err := domain.ParseTimePoint(step.Time)
		if err != nil {
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
		h, err := p.scale(pane, step.Series)
		if err != nil {
			return err
		}
		return pane.HoverAt(h, t, step.Price)
	case ActionMove:
		pane.MovePointer(domain.ScreenPoint{X: step.X, Y: step.Y})
		return nil
	case ActionLeave:
		pane.Leave()
		return nil
	case ActionZoom:
		from, err := domain.ParseTimePoint(step.From)
		if err != nil {
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
		to, err := domain.ParseTimePoint(step.To)
		if err != nil {
			return fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
		}
		return pane.SetVisibleRange(domain.VisibleRange{From: from, To: to})
	default:
		return fmt.Errorf("unknown action %q: %w", step.Action, ports.ErrInvalidRequest)
	}
}

func (p *Player) pane(name string) (*headless.Pane, error) {
	if name == "" {
		name = domain.PanePrice.String()
	}
	id, ok := domain.ParsePane(name)
	if !ok {
		return nil, fmt.Errorf("unknown pane %q: %w", name, ports.ErrInvalidRequest)
	}
	return p.panes[id], nil
}

// scale picks the series whose price scale positions a hover.
func (p *Player) scale(pane *headless.Pane, series string) (ports.SeriesHandle, error) {
	if series == "" {
		switch pane.ID() {
		case domain.PanePrice:
			series = domain.CandlestickSeries
		case domain.PaneVolume:
			series = domain.VolumeSeries
		default:
			return 0, fmt.Errorf("hover on %s pane needs a series: %w", pane.ID(), ports.ErrInvalidRequest)
		}
	}
	h, ok := pane.Lookup(series)
	if !ok {
		return 0, fmt.Errorf("series %q on %s pane: %w", series, pane.ID(), ports.ErrUnknownSeries)
	}
	return h, nil
}
