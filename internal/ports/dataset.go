package ports

import (
	"context"

	"stockMatrix/internal/domain"
)

// DatasetProvider delivers the precomputed series families for a chart configuration.
type DatasetProvider interface {
	// FetchDataset returns the dataset for cfg.
	// Families the source does not carry are left empty rather than failing.
	FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error)
}

// DatasetRepository stores datasets locally.
type DatasetRepository interface {
	DatasetProvider
	// SaveDataset replaces every stored point of the dataset's configuration.
	SaveDataset(ctx context.Context, ds *domain.Dataset) error
}
