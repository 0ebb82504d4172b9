package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campuspulse/survey-server/internal/loader"
	"github.com/campuspulse/survey-server/internal/repository"
	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/survey"
)

const (
	dbTimeout = 2 * time.Second
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrStorageFailure  = errors.New("storage failure")
	ErrBadUpload       = errors.New("unreadable survey export")
)

// InsightsService computes filtered per-subject rating statistics over
// stored survey datasets. All computation happens freshly per call from
// the stored rows; nothing is mutated incrementally.
type InsightsService struct {
	storage DatasetRepository
	logger  *zap.Logger
}

// NewInsightsService creates a new InsightsService instance.
func NewInsightsService(storage DatasetRepository, logger *zap.Logger) *InsightsService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &InsightsService{
		storage: storage,
		logger:  logger,
	}
}

// UploadDataset parses an export and stores it under the given name.
func (s *InsightsService) UploadDataset(ctx context.Context, name string, r io.Reader) (int64, error) {
	table, err := loader.Load(r, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadUpload, err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id, err := s.storage.SaveDataset(dbCtx, name, table)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("dataset stored",
		zap.Int64("dataset_id", id),
		zap.String("name", name),
		zap.Int("responses", len(table.Rows)))
	return id, nil
}

// Datasets lists the stored datasets.
func (s *InsightsService) Datasets(ctx context.Context) ([]models.DatasetInfo, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	list, err := s.storage.ListDatasets(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return list, nil
}

// DeleteDataset removes a stored dataset.
func (s *InsightsService) DeleteDataset(ctx context.Context, id int64) error {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := s.storage.DeleteDataset(dbCtx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDatasetNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}

// FilterOptions returns the observed categorical values and time bounds
// of a dataset, for pre-populating filter accept-sets.
func (s *InsightsService) FilterOptions(ctx context.Context, id int64) (models.FilterOptions, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	opts, err := s.storage.DistinctValues(dbCtx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.FilterOptions{}, ErrDatasetNotFound
	}
	if err != nil {
		return models.FilterOptions{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return opts, nil
}

// Overview computes per-subject statistics over the rows matching the
// criteria, sorted by mean score descending. An empty subject list is a
// valid result, not an error: it is the "no data" state after filtering.
func (s *InsightsService) Overview(ctx context.Context, id int64, criteria survey.Criteria) (OverviewResult, error) {
	rows, stats, err := s.aggregate(ctx, id, criteria)
	if err != nil {
		return OverviewResult{}, err
	}

	subjects := make([]SubjectOverview, 0, len(stats))
	for _, st := range stats {
		subjects = append(subjects, SubjectOverview{
			Subject:       string(st.Key),
			MeanScore:     st.Mean,
			ResponseCount: st.Count,
			ResponseRate:  st.ResponseRate,
		})
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].MeanScore != subjects[j].MeanScore {
			return subjects[i].MeanScore > subjects[j].MeanScore
		}
		return subjects[i].Subject < subjects[j].Subject
	})

	s.logger.Info("computed overview",
		zap.Int64("dataset_id", id),
		zap.Int("filtered_responses", len(rows)),
		zap.Int("subjects", len(subjects)))

	return OverviewResult{
		DatasetID:      id,
		TotalResponses: len(rows),
		Subjects:       subjects,
	}, nil
}

// Distribution computes the score histogram for one subject over the
// rows matching the criteria.
func (s *InsightsService) Distribution(ctx context.Context, id int64, subject string, criteria survey.Criteria) (DistributionResult, error) {
	key, ok := survey.NormalizeSubject(subject)
	if !ok {
		return DistributionResult{}, ErrSubjectNotFound
	}

	_, stats, err := s.aggregate(ctx, id, criteria)
	if err != nil {
		return DistributionResult{}, err
	}

	st, ok := stats[key]
	if !ok {
		return DistributionResult{}, ErrSubjectNotFound
	}

	scores := make([]int, len(st.Scores))
	for i, sc := range st.Scores {
		scores[i] = int(sc)
	}

	raw := survey.Summarize(st.Scores)
	buckets := make([]DistributionBucket, len(raw))
	for i, b := range raw {
		buckets[i] = DistributionBucket{
			Score:      int(b.Score),
			Label:      b.Score.Label(),
			Count:      b.Count,
			Percentage: b.Percentage,
		}
	}

	return DistributionResult{
		DatasetID: id,
		Subject:   string(key),
		Scores:    scores,
		Buckets:   buckets,
	}, nil
}

// aggregate runs the shared load → classify → filter → aggregate
// pipeline for a dataset and criteria.
func (s *InsightsService) aggregate(ctx context.Context, id int64, criteria survey.Criteria) ([]survey.Row, map[survey.SubjectKey]survey.SubjectStats, error) {
	if err := criteria.Validate(); err != nil {
		return nil, nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	ds, err := s.storage.GetDataset(dbCtx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	cols := survey.ClassifyColumns(ds.Table.Headers)
	rows := survey.FilterRows(ds.Table.Rows, criteria)
	return rows, survey.Aggregate(rows, cols), nil
}
