package app

import (
	"context"
	"fmt"
	"io"

	"stockMatrix/config"
	"stockMatrix/internal/adapters/backend"
	"stockMatrix/internal/adapters/binanceclient"
	"stockMatrix/internal/adapters/headless"
	"stockMatrix/internal/adapters/rediscache"
	"stockMatrix/internal/adapters/sqlite"
	"stockMatrix/internal/chart"
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// Closers releases adapters in reverse order of creation.
type Closers []io.Closer

func (c Closers) Close() error {
	var first error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BuildProvider creates the dataset provider selected by cfg.DataSource,
// wrapped in the Redis cache when cfg.RedisAddr is set. When the source is
// remote and a DB path is configured, the returned repository receives
// snapshots of every loaded dataset.
func BuildProvider(ctx context.Context, cfg *config.Config, logger ports.Logger) (ports.DatasetProvider, ports.DatasetRepository, Closers, error) {
	var (
		provider ports.DatasetProvider
		snapshot ports.DatasetRepository
		closers  Closers
	)

	openRepo := func() (*sqlite.Repository, error) {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database repository: %w", err)
		}
		closers = append(closers, repo)
		return repo, nil
	}

	switch cfg.DataSource {
	case config.SourceSQLite:
		repo, err := openRepo()
		if err != nil {
			return nil, nil, closers, err
		}
		provider = repo
	case config.SourceBinance:
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     logger,
			Limit:      cfg.BinanceLimit,
		})
		if err != nil {
			return nil, nil, closers, fmt.Errorf("failed to initialize Binance client: %w", err)
		}
		provider = client
	case config.SourceBackend:
		client, err := backend.New(backend.Config{BaseURL: cfg.BackendURL, Logger: logger})
		if err != nil {
			return nil, nil, closers, fmt.Errorf("failed to initialize backend client: %w", err)
		}
		provider = client
	default:
		return nil, nil, closers, fmt.Errorf("data source %q: %w", cfg.DataSource, ports.ErrConfigurationError)
	}

	if cfg.DataSource != config.SourceSQLite && cfg.DBPath != "" {
		repo, err := openRepo()
		if err != nil {
			logger.Warn(ctx, "Dataset snapshots disabled", map[string]interface{}{"error": err.Error()})
		} else {
			snapshot = repo
		}
	}

	if cfg.RedisAddr != "" {
		cache, err := rediscache.New(rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TTL:      cfg.RedisTTL,
			Logger:   logger,
		}, provider)
		if err != nil {
			return nil, nil, closers, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		closers = append(closers, cache)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn(ctx, "Redis unreachable, datasets are fetched uncached until it recovers", map[string]interface{}{"addr": cfg.RedisAddr})
		}
		provider = cache
	}

	logger.Info(ctx, "Dataset provider initialized", map[string]interface{}{
		"source": cfg.DataSource, "cache": cfg.RedisAddr != "", "snapshot": snapshot != nil,
	})
	return provider, snapshot, closers, nil
}

// NewHeadlessChart creates the three headless panes and an engine over them.
func NewHeadlessChart(cfg *config.Config, logger ports.Logger, clock ports.Clock, onDisplay func(domain.DisplayModel)) (*chart.Engine, [domain.NumPanes]*headless.Pane, error) {
	var (
		concrete [domain.NumPanes]*headless.Pane
		panes    []ports.Pane
	)
	for _, id := range domain.AllPanes {
		concrete[id] = headless.New(id)
		panes = append(panes, concrete[id])
	}
	format := chart.DefaultFormat
	format.Precision = cfg.ValuePrecision

	engine, err := chart.NewEngine(chart.Config{
		Logger:             logger,
		Panes:              panes,
		Clock:              clock,
		HighlightThreshold: cfg.HighlightThreshold,
		Format:             &format,
		OnDisplay:          onDisplay,
	})
	if err != nil {
		return nil, concrete, fmt.Errorf("failed to initialize chart engine: %w", err)
	}
	return engine, concrete, nil
}
