package api

import (
	"context"
	"io"
	"time"

	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/service"
	"github.com/campuspulse/survey-server/internal/survey"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// InsightsService is the API's view of the application service.
type InsightsService interface {
	UploadDataset(ctx context.Context, name string, r io.Reader) (int64, error)
	Datasets(ctx context.Context) ([]models.DatasetInfo, error)
	DeleteDataset(ctx context.Context, id int64) error
	FilterOptions(ctx context.Context, id int64) (models.FilterOptions, error)
	Overview(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error)
	Distribution(ctx context.Context, id int64, subject string, criteria survey.Criteria) (service.DistributionResult, error)
}
