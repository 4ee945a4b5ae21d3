package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"stockMatrix/config"
	"stockMatrix/internal/adapters/logger"
	"stockMatrix/internal/app"
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, logCloser, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer logCloser.Close()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Dataset Provider
	provider, snapshot, closers, err := app.BuildProvider(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize dataset provider")
		log.Fatalf("FATAL: Failed to initialize dataset provider: %v", err)
	}
	defer func() {
		if err := closers.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing adapters")
		}
	}()

	// 4. Initialize Chart Engine
	engine, _, err := app.NewHeadlessChart(cfg, appLogger, ports.SystemClock, func(d domain.DisplayModel) {
		if d.Empty() {
			appLogger.Debug(ctx, "Legend cleared")
			return
		}
		appLogger.Debug(ctx, "Legend updated", map[string]interface{}{"time": d.Time, "highlighted": d.Highlighted})
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize chart engine")
		log.Fatalf("FATAL: Failed to initialize chart engine: %v", err)
	}

	// 5. Initialize Application Service
	var opts []app.Option
	if snapshot != nil {
		opts = append(opts, app.WithSnapshot(snapshot))
	}
	chartService, err := app.NewChartService(appLogger, provider, engine, opts...)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize chart service")
		log.Fatalf("FATAL: Failed to initialize chart service: %v", err)
	}

	// 6. Start the Service
	if err := chartService.Run(ctx, cfg.Chart, cfg.RefreshInterval); err != nil {
		appLogger.Error(ctx, err, "Chart service exited with error")
		closers.Close()
		log.Fatalf("FATAL: Chart service exited with error: %v", err)
	}

	labels := make([]string, 0)
	for _, s := range engine.Shortcuts() {
		labels = append(labels, s.Label)
	}
	appLogger.Info(ctx, "Application finished gracefully.", map[string]interface{}{
		"config": engine.ChartConfig().Key(), "shortcuts": labels,
	})
}
