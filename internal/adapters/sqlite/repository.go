package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Families stored in the family column. Moving averages use their lowercase
// name prefix ("sma", "ema"), oscillator lines their indicator family.
const (
	familyPrice  = "price"
	familyVolume = "volume"
	familyBand   = "band"
)

// Repository implements ports.DatasetRepository using SQLite.
// Every series point is one row of the series_points table.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/chart_series.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, fmt.Errorf("%w: %w", ports.ErrDBConnection, err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, fmt.Errorf("%w: %w", ports.ErrDBConnection, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, fmt.Errorf("%w: %w", ports.ErrDBConnection, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, fmt.Errorf("%w: %w", ports.ErrDBConnection, err)
	}
	cfg.Logger.Info(context.Background(), "SQLite series store ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS series_points (
		ticker   TEXT    NOT NULL,
		interval TEXT    NOT NULL,
		family   TEXT    NOT NULL,
		series   TEXT    NOT NULL,
		time     INTEGER NOT NULL,
		value    REAL    NOT NULL DEFAULT 0,
		open     REAL    NOT NULL DEFAULT 0,
		high     REAL    NOT NULL DEFAULT 0,
		low      REAL    NOT NULL DEFAULT 0,
		close    REAL    NOT NULL DEFAULT 0,
		category TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (ticker, interval, family, series, time)
	);
	CREATE INDEX IF NOT EXISTS idx_series_points_lookup ON series_points (ticker, interval, family);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveDataset upserts every point of ds in a single transaction.
// Rows are keyed by ticker and interval only, so one stored dataset can serve
// every moving average and indicator selection that was saved for it.
func (r *Repository) SaveDataset(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil {
		return ports.ErrDatasetMissing
	}
	ticker, interval := strings.ToUpper(ds.Config.Ticker), ds.Config.Interval
	if ticker == "" || interval == "" {
		return fmt.Errorf("save dataset without ticker or interval: %w", ports.ErrInvalidRequest)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const query = `
	INSERT OR REPLACE INTO series_points
		(ticker, interval, family, series, time, value, open, high, low, close, category)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %w", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	rows := 0
	for _, s := range ds.All() {
		family := familyOf(ds.Config, s)
		for _, p := range s.Points {
			if _, err := stmt.ExecContext(ctx, ticker, interval, family, s.Name, int64(p.Time),
				p.Value, p.Open, p.High, p.Low, p.Close, string(p.Category)); err != nil {
				return fmt.Errorf("%w: insert %s/%s at %d: %w", ports.ErrUpdateFailed, family, s.Name, p.Time, err)
			}
			rows++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Dataset saved", map[string]interface{}{"config": ds.Config.Key(), "rows": rows})
	return nil
}

// FetchDataset loads the candles, volume, bands, the selected moving average
// family and the selected indicator lines stored for cfg.
// It returns ports.ErrNotFound when no candles are stored.
func (r *Repository) FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}

	const query = `
	SELECT family, series, time, value, open, high, low, close, category
	FROM series_points
	WHERE ticker = ? AND interval = ? AND family IN (?, ?, ?, ?, ?)
	ORDER BY family, series, time`

	rows, err := r.db.QueryContext(ctx, query, strings.ToUpper(cfg.Ticker), cfg.Interval,
		familyPrice, familyVolume, familyBand, strings.ToLower(cfg.MAFamily), string(cfg.Indicator))
	if err != nil {
		return nil, fmt.Errorf("%w: query dataset %s: %w", ports.ErrQueryFailed, cfg.Key(), err)
	}
	defer rows.Close()

	ds := domain.NewDataset(cfg)
	averages := make(map[string][]domain.Point)
	technical := make(map[string][]domain.Point)
	for rows.Next() {
		var (
			family, series, category string
			t                        int64
			p                        domain.Point
		)
		if err := rows.Scan(&family, &series, &t, &p.Value, &p.Open, &p.High, &p.Low, &p.Close, &category); err != nil {
			return nil, fmt.Errorf("%w: scan dataset %s: %w", ports.ErrQueryFailed, cfg.Key(), err)
		}
		p.Time = domain.TimePoint(t)
		p.Category = domain.Category(category)

		switch family {
		case familyPrice:
			ds.Candles.Points = append(ds.Candles.Points, p)
		case familyVolume:
			ds.Volume.Points = append(ds.Volume.Points, p)
		case string(cfg.Indicator):
			technical[series] = append(technical[series], p)
		default:
			averages[series] = append(averages[series], p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate dataset %s: %w", ports.ErrQueryFailed, cfg.Key(), err)
	}
	if len(ds.Candles.Points) == 0 {
		return nil, fmt.Errorf("no stored candles for %s: %w", cfg.Key(), ports.ErrNotFound)
	}

	for name, pts := range averages {
		ds.AddAverage(name, pts)
	}
	for key, pts := range technical {
		ds.AddTechnical(key, pts)
	}
	r.logger.Debug(ctx, "Dataset loaded", map[string]interface{}{
		"config": cfg.Key(), "candles": len(ds.Candles.Points), "averages": len(averages), "technical": len(technical),
	})
	return ds, nil
}

// familyOf returns the family column value for a series of ds.
func familyOf(cfg domain.ChartConfig, s *domain.Series) string {
	switch s.Role {
	case domain.RolePrice:
		return familyPrice
	case domain.RoleVolume:
		return familyVolume
	case domain.RoleBand:
		return familyBand
	case domain.RoleOscillator:
		return string(cfg.Indicator)
	}
	return strings.ToLower(strings.TrimRight(s.Name, "0123456789"))
}
