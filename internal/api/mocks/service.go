package mocks

import (
	"context"
	"errors"
	"io"

	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/service"
	"github.com/campuspulse/survey-server/internal/survey"
)

// MockInsightsService is a mock implementation of the InsightsService
// interface for testing the handler layer. It uses function-based
// mocking for flexibility.
type MockInsightsService struct {
	UploadDatasetFunc func(ctx context.Context, name string, r io.Reader) (int64, error)
	DatasetsFunc      func(ctx context.Context) ([]models.DatasetInfo, error)
	DeleteDatasetFunc func(ctx context.Context, id int64) error
	FilterOptionsFunc func(ctx context.Context, id int64) (models.FilterOptions, error)
	OverviewFunc      func(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error)
	DistributionFunc  func(ctx context.Context, id int64, subject string, criteria survey.Criteria) (service.DistributionResult, error)
}

// UploadDataset implements the InsightsService interface
func (m *MockInsightsService) UploadDataset(ctx context.Context, name string, r io.Reader) (int64, error) {
	if m.UploadDatasetFunc != nil {
		return m.UploadDatasetFunc(ctx, name, r)
	}
	return 0, errors.New("UploadDatasetFunc not implemented")
}

// Datasets implements the InsightsService interface
func (m *MockInsightsService) Datasets(ctx context.Context) ([]models.DatasetInfo, error) {
	if m.DatasetsFunc != nil {
		return m.DatasetsFunc(ctx)
	}
	return nil, errors.New("DatasetsFunc not implemented")
}

// DeleteDataset implements the InsightsService interface
func (m *MockInsightsService) DeleteDataset(ctx context.Context, id int64) error {
	if m.DeleteDatasetFunc != nil {
		return m.DeleteDatasetFunc(ctx, id)
	}
	return errors.New("DeleteDatasetFunc not implemented")
}

// FilterOptions implements the InsightsService interface
func (m *MockInsightsService) FilterOptions(ctx context.Context, id int64) (models.FilterOptions, error) {
	if m.FilterOptionsFunc != nil {
		return m.FilterOptionsFunc(ctx, id)
	}
	return models.FilterOptions{}, errors.New("FilterOptionsFunc not implemented")
}

// Overview implements the InsightsService interface
func (m *MockInsightsService) Overview(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx, id, criteria)
	}
	return service.OverviewResult{}, errors.New("OverviewFunc not implemented")
}

// Distribution implements the InsightsService interface
func (m *MockInsightsService) Distribution(ctx context.Context, id int64, subject string, criteria survey.Criteria) (service.DistributionResult, error) {
	if m.DistributionFunc != nil {
		return m.DistributionFunc(ctx, id, subject, criteria)
	}
	return service.DistributionResult{}, errors.New("DistributionFunc not implemented")
}
