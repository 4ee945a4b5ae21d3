package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	defaultLimit = 500
	maxLimit     = 1500
)

// intervals maps chart intervals onto Binance kline intervals.
var intervals = map[string]string{
	"1m":  "1m",
	"5m":  "5m",
	"15m": "15m",
	"30m": "30m",
	"60m": "1h",
	"1d":  "1d",
	"1wk": "1w",
	"1mo": "1M",
}

// Client implements ports.DatasetProvider from Binance futures klines.
// Only the candle and volume families are delivered; moving averages and
// indicator lines are left empty, so their legend rows show no data.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	limit         int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
	Limit      int    // klines per dataset, default 500
	BaseURL    string // overrides the production/testnet URL
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Only public kline endpoints are used.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL})

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return &Client{futuresClient: client, logger: cfg.Logger, limit: limit}, nil
}

// BinanceInterval returns the Binance kline interval for a chart interval.
func BinanceInterval(interval string) (string, error) {
	bi, ok := intervals[interval]
	if !ok {
		return "", fmt.Errorf("interval %q has no Binance equivalent: %w", interval, ports.ErrInvalidRequest)
	}
	return bi, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1120, -1121, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrDataSourceUnavailable, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// FetchDataset returns the most recent klines for cfg as candle and volume series.
func (c *Client) FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error) {
	op := "FetchDataset"
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrInvalidRequest, err)
	}
	interval, err := BinanceInterval(cfg.Interval)
	if err != nil {
		return nil, err
	}

	klines, err := c.futuresClient.NewKlinesService().
		Symbol(strings.ToUpper(cfg.Ticker)).
		Interval(interval).
		Limit(c.limit).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	ds := domain.NewDataset(cfg)
	if err := appendKlines(ds, klines); err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(ds.Candles.Points) == 0 {
		return nil, fmt.Errorf("%s: no klines for %s: %w", op, cfg.Key(), ports.ErrNotFound)
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"config": cfg.Key(), "candles": len(ds.Candles.Points)})
	return ds, nil
}

// FetchRange pages through every kline of cfg between start and end.
func (c *Client) FetchRange(ctx context.Context, cfg domain.ChartConfig, start, end time.Time) (*domain.Dataset, error) {
	op := "FetchRange"
	interval, err := BinanceInterval(cfg.Interval)
	if err != nil {
		return nil, err
	}

	ds := domain.NewDataset(cfg)
	from := start
	for {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(strings.ToUpper(cfg.Ticker)).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		if err := appendKlines(ds, klines); err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		from = time.UnixMilli(klines[len(klines)-1].CloseTime + 1)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}
	c.logger.Info(ctx, op+" complete", map[string]interface{}{"config": cfg.Key(), "candles": len(ds.Candles.Points)})
	return ds, nil
}

// appendKlines translates klines onto ds, skipping any whose open time does
// not advance past the last stored candle.
func appendKlines(ds *domain.Dataset, klines []*futures.Kline) error {
	for _, bk := range klines {
		candle, volume, err := translateKline(bk)
		if err != nil {
			return fmt.Errorf("%w: %w", ports.ErrMalformedPayload, err)
		}
		if n := len(ds.Candles.Points); n > 0 && candle.Time <= ds.Candles.Points[n-1].Time {
			continue
		}
		ds.Candles.Points = append(ds.Candles.Points, candle)
		ds.Volume.Points = append(ds.Volume.Points, volume)
	}
	return nil
}

// translateKline converts a Binance kline into a candle and a categorized volume point.
func translateKline(bk *futures.Kline) (domain.Point, domain.Point, error) {
	if bk == nil {
		return domain.Point{}, domain.Point{}, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.Point{}, domain.Point{}, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.Point{}, domain.Point{}, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.Point{}, domain.Point{}, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.Point{}, domain.Point{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return domain.Point{}, domain.Point{}, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	t := domain.TimePointOf(time.UnixMilli(bk.OpenTime))
	candle := domain.Point{Time: t, Open: open, High: high, Low: low, Close: cls}
	volume := domain.Point{Time: t, Value: vol, Category: domain.CategoryFor(open, cls)}
	return candle, volume, nil
}
