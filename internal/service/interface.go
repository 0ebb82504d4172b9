package service

import (
	"context"

	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/survey"
)

// DatasetRepository defines the storage operations the service needs.
type DatasetRepository interface {
	SaveDataset(ctx context.Context, name string, table *survey.Table) (int64, error)
	GetDataset(ctx context.Context, id int64) (*models.Dataset, error)
	ListDatasets(ctx context.Context) ([]models.DatasetInfo, error)
	DeleteDataset(ctx context.Context, id int64) error
	DistinctValues(ctx context.Context, id int64) (models.FilterOptions, error)
}
