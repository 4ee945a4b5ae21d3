// Command replay drives a headless chart through a YAML interaction script
// and writes the legend after every step as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"stockMatrix/config"
	"stockMatrix/internal/adapters/logger"
	"stockMatrix/internal/app"
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

var (
	scriptPath = flag.String("script", "replay.yaml", "path to the interaction script")
	outPath    = flag.String("out", "", "write frames to this file instead of stdout")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger, logCloser, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer logCloser.Close()

	script, err := LoadScript(*scriptPath)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to load script", map[string]interface{}{"path": *scriptPath})
		log.Fatalf("Error loading script: %v", err)
	}
	if script.Chart == (domain.ChartConfig{}) {
		script.Chart = cfg.Chart
	}

	var provider ports.DatasetProvider
	if script.Dataset == "" {
		p, _, closers, err := app.BuildProvider(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize dataset provider")
			log.Fatalf("FATAL: Failed to initialize dataset provider: %v", err)
		}
		defer closers.Close()
		provider = p
	}

	player, err := NewPlayer(cfg, script, provider, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize replay")
		log.Fatalf("FATAL: Failed to initialize replay: %v", err)
	}

	frames, playErr := player.Play(ctx, script)

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Error creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	for _, frame := range frames {
		if err := enc.Encode(frame); err != nil {
			appLogger.Error(ctx, err, "Error writing frame")
			break
		}
	}

	if playErr != nil {
		appLogger.Error(ctx, playErr, "Replay stopped")
		log.Fatalf("Replay stopped: %v", playErr)
	}
	appLogger.Info(ctx, "Replay finished", map[string]interface{}{"steps": len(frames)})
}
