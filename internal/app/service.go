package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// ChartEngine is the part of chart.Engine the service drives.
type ChartEngine interface {
	Configure(ctx context.Context, ds *domain.Dataset) error
	ApplyShortcut(ctx context.Context, s domain.Shortcut) error
	ChartConfig() domain.ChartConfig
	Display() domain.DisplayModel
	VisibleRange() *domain.VisibleRange
	SetVisibleRange(ctx context.Context, r domain.VisibleRange) error
}

// cacheInvalidator is implemented by providers that keep fetched datasets.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, cfg domain.ChartConfig) error
}

// ChartService loads datasets into the chart engine. A failed load leaves
// the previously configured chart on screen.
type ChartService struct {
	logger   ports.Logger
	provider ports.DatasetProvider
	engine   ChartEngine
	snapshot ports.DatasetRepository // optional

	mu    sync.Mutex // serializes loads
	loads int
}

// Option customizes a ChartService.
type Option func(*ChartService)

// WithSnapshot stores every loaded dataset in repo.
func WithSnapshot(repo ports.DatasetRepository) Option {
	return func(s *ChartService) { s.snapshot = repo }
}

// NewChartService creates a new application service instance.
func NewChartService(logger ports.Logger, provider ports.DatasetProvider, engine ChartEngine, opts ...Option) (*ChartService, error) {
	if logger == nil || provider == nil || engine == nil {
		return nil, fmt.Errorf("missing required dependencies for ChartService")
	}
	s := &ChartService{logger: logger, provider: provider, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load fetches the dataset of cfg and configures the chart with it. A new
// configuration is fitted to its data; reloading the active one keeps the
// current window.
func (s *ChartService) Load(ctx context.Context, cfg domain.ChartConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("load chart: %w: %w", ports.ErrInvalidRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string]interface{}{"config": cfg.Key()}
	started := time.Now()
	reload := s.engine.ChartConfig() == cfg
	window := s.engine.VisibleRange()

	ds, err := s.provider.FetchDataset(ctx, cfg)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to fetch dataset", fields)
		return fmt.Errorf("fetch dataset %s: %w", cfg.Key(), err)
	}
	ds.Config = cfg

	if err := s.engine.Configure(ctx, ds); err != nil {
		s.logger.Error(ctx, err, "Failed to configure chart", fields)
		return fmt.Errorf("configure chart %s: %w", cfg.Key(), err)
	}
	if err := s.restoreWindow(ctx, reload, window); err != nil {
		s.logger.Warn(ctx, "Could not fit chart to data", map[string]interface{}{"config": cfg.Key(), "error": err.Error()})
	}

	if s.snapshot != nil {
		if err := s.snapshot.SaveDataset(ctx, ds); err != nil {
			s.logger.Warn(ctx, "Dataset snapshot failed", map[string]interface{}{"config": cfg.Key(), "error": err.Error()})
		}
	}

	s.loads++
	loaded := map[string]interface{}{
		"config":   cfg.Key(),
		"averages": len(ds.Averages),
		"duration": time.Since(started).String(),
	}
	if first, last, ok := ds.Candles.Span(); ok {
		loaded["candles"] = len(ds.Candles.Points)
		loaded["from"], loaded["to"] = int64(first), int64(last)
	}
	s.logger.Info(ctx, "Chart loaded", loaded)
	return nil
}

func (s *ChartService) restoreWindow(ctx context.Context, reload bool, window *domain.VisibleRange) error {
	if reload && window != nil {
		err := s.engine.SetVisibleRange(ctx, *window)
		if err == nil {
			return nil
		}
		s.logger.Debug(ctx, "Previous window not restored", map[string]interface{}{"error": err.Error()})
	}
	return s.engine.ApplyShortcut(ctx, domain.Shortcut{Unit: domain.UnitAll})
}

// Reconfigure reloads the chart when cfg differs from the active one.
// It reports whether a load happened.
func (s *ChartService) Reconfigure(ctx context.Context, cfg domain.ChartConfig) (bool, error) {
	if s.engine.ChartConfig() == cfg {
		s.logger.Debug(ctx, "Chart configuration unchanged", map[string]interface{}{"config": cfg.Key()})
		return false, nil
	}
	if err := s.Load(ctx, cfg); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh reloads the active configuration, bypassing a dataset cache, and
// keeps the current window.
func (s *ChartService) Refresh(ctx context.Context) error {
	cfg := s.engine.ChartConfig()
	if cfg == (domain.ChartConfig{}) {
		return fmt.Errorf("refresh: %w", ports.ErrDatasetMissing)
	}
	if c, ok := s.provider.(cacheInvalidator); ok {
		if err := c.Invalidate(ctx, cfg); err != nil {
			s.logger.Warn(ctx, "Cached dataset not invalidated", map[string]interface{}{"config": cfg.Key(), "error": err.Error()})
		}
	}
	return s.Load(ctx, cfg)
}

// Loads returns the number of successful loads.
func (s *ChartService) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Run loads cfg and then refreshes it every interval until ctx is canceled or
// the process receives SIGINT/SIGTERM. A zero interval returns after the
// first load. Refresh failures are logged and the previous chart is kept.
func (s *ChartService) Run(ctx context.Context, cfg domain.ChartConfig, interval time.Duration) error {
	s.logger.Info(ctx, "Starting Chart Service...", map[string]interface{}{"config": cfg.Key()})

	if err := s.Load(ctx, cfg); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Chart Service stopped.")
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				s.logger.Warn(ctx, "Refresh failed, keeping previous chart", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
