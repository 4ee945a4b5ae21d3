package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"stockMatrix/config"
	"stockMatrix/internal/adapters/binanceclient"
	"stockMatrix/internal/adapters/logger"
	"stockMatrix/internal/adapters/sqlite"
	"stockMatrix/internal/domain"
	"stockMatrix/internal/utils"
)

var (
	symbolFlag   = flag.String("symbol", "", "symbol to fetch (default TICKER)")
	intervalFlag = flag.String("interval", "", "chart interval, e.g. 1m, 60m, 1d (default INTERVAL)")
	monthsFlag   = flag.Int("months", 3, "months of history to fetch")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, logCloser, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer logCloser.Close()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Binance Client
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
		Limit:      cfg.BinanceLimit,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// 4. Initialize Repository
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	chartCfg := cfg.Chart
	if *symbolFlag != "" {
		chartCfg.Ticker = strings.ToUpper(*symbolFlag)
	}
	if *intervalFlag != "" {
		chartCfg.Interval = *intervalFlag
	}
	end := time.Now()
	start := end.AddDate(0, -*monthsFlag, 0)

	fmt.Printf("Fetching klines for %s %s from %s to %s...\n", chartCfg.Ticker, chartCfg.Interval, start, end)
	ds, err := binanceClient.FetchRange(ctx, chartCfg, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(ds.Candles.Points)})

	if err := repo.SaveDataset(ctx, ds); err != nil {
		appLogger.Error(ctx, err, "Error saving dataset")
		log.Fatalf("Error saving dataset: %v", err)
	}

	filename := csvName(chartCfg, start, end)
	if err := utils.WriteDatasetToCSV(ds, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename, "db": cfg.DBPath})
}

func csvName(cfg domain.ChartConfig, start, end time.Time) string {
	return fmt.Sprintf("data/%s_%s_%s_to_%s.csv", cfg.Ticker, cfg.Interval, start.Format("20060102"), end.Format("20060102"))
}
