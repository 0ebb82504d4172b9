package mocks

import (
	"context"
	"errors"

	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/survey"
)

// MockDatasetRepository is a mock implementation of the
// DatasetRepository interface for testing the service layer.
type MockDatasetRepository struct {
	SaveDatasetFunc    func(ctx context.Context, name string, table *survey.Table) (int64, error)
	GetDatasetFunc     func(ctx context.Context, id int64) (*models.Dataset, error)
	ListDatasetsFunc   func(ctx context.Context) ([]models.DatasetInfo, error)
	DeleteDatasetFunc  func(ctx context.Context, id int64) error
	DistinctValuesFunc func(ctx context.Context, id int64) (models.FilterOptions, error)
}

// SaveDataset implements the DatasetRepository interface
func (m *MockDatasetRepository) SaveDataset(ctx context.Context, name string, table *survey.Table) (int64, error) {
	if m.SaveDatasetFunc != nil {
		return m.SaveDatasetFunc(ctx, name, table)
	}
	return 0, errors.New("SaveDatasetFunc not implemented")
}

// GetDataset implements the DatasetRepository interface
func (m *MockDatasetRepository) GetDataset(ctx context.Context, id int64) (*models.Dataset, error) {
	if m.GetDatasetFunc != nil {
		return m.GetDatasetFunc(ctx, id)
	}
	return nil, errors.New("GetDatasetFunc not implemented")
}

// ListDatasets implements the DatasetRepository interface
func (m *MockDatasetRepository) ListDatasets(ctx context.Context) ([]models.DatasetInfo, error) {
	if m.ListDatasetsFunc != nil {
		return m.ListDatasetsFunc(ctx)
	}
	return nil, errors.New("ListDatasetsFunc not implemented")
}

// DeleteDataset implements the DatasetRepository interface
func (m *MockDatasetRepository) DeleteDataset(ctx context.Context, id int64) error {
	if m.DeleteDatasetFunc != nil {
		return m.DeleteDatasetFunc(ctx, id)
	}
	return errors.New("DeleteDatasetFunc not implemented")
}

// DistinctValues implements the DatasetRepository interface
func (m *MockDatasetRepository) DistinctValues(ctx context.Context, id int64) (models.FilterOptions, error) {
	if m.DistinctValuesFunc != nil {
		return m.DistinctValuesFunc(ctx, id)
	}
	return models.FilterOptions{}, errors.New("DistinctValuesFunc not implemented")
}
