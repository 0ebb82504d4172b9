package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuspulse/survey-server/internal/api/mocks"
	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/service"
	"github.com/campuspulse/survey-server/internal/survey"
)

func fixtureOptions() models.FilterOptions {
	return models.FilterOptions{
		YearSemesters:    []string{"3rd Year - 1st Sem"},
		Genders:          []string{"Female", "Male", survey.MissingValue},
		Branches:         []string{"CSE", "ECE"},
		SectionTypes:     []string{"Regular"},
		EarliestResponse: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		LatestResponse:   time.Date(2024, 1, 20, 17, 0, 0, 0, time.UTC),
	}
}

func newTestHandlers(svc *mocks.MockInsightsService) *Handlers {
	return NewHandlers(svc, &mocks.MockCacher{}, zap.NewNop(), time.Minute, 0)
}

func doRequest(h *Handlers, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestNewHandlers(t *testing.T) {
	t.Run("nil service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewHandlers(nil, &mocks.MockCacher{}, zap.NewNop(), time.Minute, 0)
		})
	})

	t.Run("zero TTL uses default", func(t *testing.T) {
		h := NewHandlers(&mocks.MockInsightsService{}, &mocks.MockCacher{}, zap.NewNop(), 0, 0)
		assert.Equal(t, defaultCacheTTL, h.cacheTTL)
		assert.Equal(t, int64(defaultMaxUploadBytes), h.maxUploadBytes)
	})
}

func TestOverviewHandler(t *testing.T) {
	t.Run("defaults criteria to all observed values", func(t *testing.T) {
		var got survey.Criteria
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
			OverviewFunc: func(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error) {
				got = criteria
				return service.OverviewResult{DatasetID: id, TotalResponses: 3}, nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/1/overview", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, got.Gender.Contains("Male"))
		assert.True(t, got.Gender.Contains(survey.MissingValue))
		assert.True(t, got.Branch.Contains("ECE"))
		assert.Equal(t, fixtureOptions().EarliestResponse, got.From)
		assert.Equal(t, fixtureOptions().LatestResponse, got.To)

		var body service.OverviewResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 3, body.TotalResponses)
	})

	t.Run("query parameters narrow the criteria", func(t *testing.T) {
		var got survey.Criteria
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
			OverviewFunc: func(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error) {
				got = criteria
				return service.OverviewResult{DatasetID: id}, nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet,
			"/v1/datasets/1/overview?gender=Female&from=2024-01-12&to=2024-01-15", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, got.Gender.Contains("Female"))
		assert.False(t, got.Gender.Contains("Male"))
		assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), got.From)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got.To)
		// unspecified dimensions still default to everything observed
		assert.True(t, got.Branch.Contains("CSE"))
	})

	t.Run("invalid range is a 400", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet,
			"/v1/datasets/1/overview?from=2024-02-01&to=2024-01-01", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed date is a 400", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/1/overview?from=yesterday", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown dataset is a 404", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return models.FilterOptions{}, service.ErrDatasetNotFound
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/99/overview", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric dataset id is a 400", func(t *testing.T) {
		h := newTestHandlers(&mocks.MockInsightsService{})

		rec := doRequest(h, http.MethodGet, "/v1/datasets/latest/overview", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure is a 500", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
			OverviewFunc: func(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error) {
				return service.OverviewResult{}, service.ErrStorageFailure
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/1/overview", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestOverviewHandlerCacheHit(t *testing.T) {
	cached := service.OverviewResult{DatasetID: 1, TotalResponses: 42}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	svc := &mocks.MockInsightsService{
		FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
			return fixtureOptions(), nil
		},
		// returns a zero result so a fresh computation would be
		// distinguishable from the cached value below
		OverviewFunc: func(ctx context.Context, id int64, criteria survey.Criteria) (service.OverviewResult, error) {
			return service.OverviewResult{}, nil
		},
	}
	cache := &mocks.MockCacher{
		GetFunc: func(ctx context.Context, key string, dest any) error {
			return json.Unmarshal(data, dest)
		},
	}
	h := NewHandlers(svc, cache, zap.NewNop(), time.Minute, 0)

	rec := doRequest(h, http.MethodGet, "/v1/datasets/1/overview", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body service.OverviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body.TotalResponses, "response must come from the cache")
}

func TestDistributionHandler(t *testing.T) {
	t.Run("passes the unescaped subject through", func(t *testing.T) {
		var gotSubject string
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
			DistributionFunc: func(ctx context.Context, id int64, subject string, criteria survey.Criteria) (service.DistributionResult, error) {
				gotSubject = subject
				return service.DistributionResult{
					DatasetID: id,
					Subject:   "OPERATING SYSTEMS",
					Buckets: []service.DistributionBucket{
						{Score: 5, Label: "Excellent", Count: 2, Percentage: 100.0},
					},
				}, nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet,
			"/v1/datasets/1/subjects/Operating%20Systems/distribution", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Operating Systems", gotSubject)

		var body service.DistributionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Buckets, 1)
		assert.Equal(t, 100.0, body.Buckets[0].Percentage)
	})

	t.Run("unknown subject is a 404", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
			DistributionFunc: func(ctx context.Context, id int64, subject string, criteria survey.Criteria) (service.DistributionResult, error) {
				return service.DistributionResult{}, service.ErrSubjectNotFound
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/1/subjects/NOPE/distribution", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUploadHandler(t *testing.T) {
	makeUpload := func(t *testing.T, filename, content string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("stores an export", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			UploadDatasetFunc: func(ctx context.Context, name string, r io.Reader) (int64, error) {
				assert.Equal(t, "jan.csv", name)
				return 5, nil
			},
		}
		h := newTestHandlers(svc)

		body, contentType := makeUpload(t, "jan.csv", "Timestamp\n2024-01-15 09:30:00\n")
		req := httptest.NewRequest(http.MethodPost, "/v1/datasets/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"dataset_id":5}`, rec.Body.String())
	})

	t.Run("rejects an unreadable export", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			UploadDatasetFunc: func(ctx context.Context, name string, r io.Reader) (int64, error) {
				return 0, service.ErrBadUpload
			},
		}
		h := newTestHandlers(svc)

		body, contentType := makeUpload(t, "junk.csv", "")
		req := httptest.NewRequest(http.MethodPost, "/v1/datasets/", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		h := newTestHandlers(&mocks.MockInsightsService{})

		rec := doRequest(h, http.MethodPost, "/v1/datasets/", bytes.NewReader(nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDatasetCRUDHandlers(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			DatasetsFunc: func(ctx context.Context) ([]models.DatasetInfo, error) {
				return []models.DatasetInfo{
					{ID: 1, Name: "jan.csv", ResponseCount: 12},
				}, nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"jan.csv"`)
	})

	t.Run("delete", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			DeleteDatasetFunc: func(ctx context.Context, id int64) error { return nil },
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodDelete, "/v1/datasets/3/", nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delete missing dataset", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			DeleteDatasetFunc: func(ctx context.Context, id int64) error {
				return service.ErrDatasetNotFound
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodDelete, "/v1/datasets/3/", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("filter options", func(t *testing.T) {
		svc := &mocks.MockInsightsService{
			FilterOptionsFunc: func(ctx context.Context, id int64) (models.FilterOptions, error) {
				return fixtureOptions(), nil
			},
		}
		h := newTestHandlers(svc)

		rec := doRequest(h, http.MethodGet, "/v1/datasets/1/filters", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "genders")
		assert.Contains(t, body, "earliest_response")
	})
}

func TestCriteriaKeyDeterministic(t *testing.T) {
	c1 := survey.Criteria{
		From:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Gender: survey.NewAcceptSet("Male", "Female"),
		Branch: survey.NewAcceptSet("CSE"),
	}
	c2 := survey.Criteria{
		From:   c1.From,
		To:     c1.To,
		Gender: survey.NewAcceptSet("Female", "Male"), // insertion order differs
		Branch: survey.NewAcceptSet("CSE"),
	}

	assert.Equal(t, criteriaKey(cacheKeyOverview, 1, "", c1), criteriaKey(cacheKeyOverview, 1, "", c2))
	assert.NotEqual(t, criteriaKey(cacheKeyOverview, 1, "", c1), criteriaKey(cacheKeyOverview, 2, "", c1))
	assert.NotEqual(t,
		criteriaKey(cacheKeyDistribution, 1, "DBMS", c1),
		criteriaKey(cacheKeyDistribution, 1, "OS", c1))
}
