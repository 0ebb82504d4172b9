package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/campuspulse/survey-server/internal/loader"
	"github.com/campuspulse/survey-server/internal/service"
	"github.com/campuspulse/survey-server/internal/survey"
)

const (
	defaultCacheTTL       = 10 * time.Minute
	defaultMaxUploadBytes = 32 << 20
	dateLayout            = "2006-01-02"
)

const (
	cacheKeyOverview     = "api:overview"
	cacheKeyDistribution = "api:distribution"
)

// Handlers serves the survey insights HTTP API. Overview and
// distribution responses are cached per dataset and criteria signature.
type Handlers struct {
	insights       InsightsService
	cache          Cacher
	logger         *zap.Logger
	sfGroup        singleflight.Group
	cacheTTL       time.Duration
	maxUploadBytes int64
}

// NewHandlers initializes the HTTP handlers. Zero ttl and
// maxUploadBytes fall back to the package defaults.
func NewHandlers(insights InsightsService, cache Cacher, logger *zap.Logger, ttl time.Duration, maxUploadBytes int64) *Handlers {
	if insights == nil {
		panic("nil InsightsService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handlers{
		insights:       insights,
		cache:          cache,
		logger:         logger.Named("api"),
		cacheTTL:       ttl,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes mounts the API onto a chi router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/v1/datasets", func(r chi.Router) {
		r.Post("/", h.uploadDataset)
		r.Get("/", h.listDatasets)
		r.Route("/{datasetID}", func(r chi.Router) {
			r.Delete("/", h.deleteDataset)
			r.Get("/filters", h.filterOptions)
			r.Get("/overview", h.overview)
			r.Get("/subjects/{subject}/distribution", h.distribution)
		})
	})
	return r
}

func (h *Handlers) uploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	id, err := h.insights.UploadDataset(r.Context(), header.Filename, file)
	if err != nil {
		h.handleError(r.Context(), w, "UploadDataset", err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]any{"dataset_id": id})
}

func (h *Handlers) listDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := h.insights.Datasets(r.Context())
	if err != nil {
		h.handleError(r.Context(), w, "ListDatasets", err)
		return
	}

	type item struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		UploadedAt    time.Time `json:"uploaded_at"`
		ResponseCount int       `json:"response_count"`
	}
	out := make([]item, len(list))
	for i, d := range list {
		out[i] = item{ID: d.ID, Name: d.Name, UploadedAt: d.UploadedAt, ResponseCount: d.ResponseCount}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"datasets": out})
}

func (h *Handlers) deleteDataset(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.insights.DeleteDataset(r.Context(), id); err != nil {
		h.handleError(r.Context(), w, "DeleteDataset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) filterOptions(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := h.insights.FilterOptions(r.Context(), id)
	if err != nil {
		h.handleError(r.Context(), w, "FilterOptions", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"year_semesters":    opts.YearSemesters,
		"genders":           opts.Genders,
		"branches":          opts.Branches,
		"section_types":     opts.SectionTypes,
		"earliest_response": opts.EarliestResponse,
		"latest_response":   opts.LatestResponse,
	})
}

func (h *Handlers) overview(w http.ResponseWriter, r *http.Request) {
	id, criteria, err := h.datasetAndCriteria(r)
	if err != nil {
		h.handleError(r.Context(), w, "Overview", err)
		return
	}

	key := criteriaKey(cacheKeyOverview, id, "", criteria)
	result, err := FindAndCache(r.Context(), h.cache, &h.sfGroup, key, h.cacheTTL, h.logger,
		func(ctx context.Context) (service.OverviewResult, error) {
			return h.insights.Overview(ctx, id, criteria)
		})
	if err != nil {
		h.handleError(r.Context(), w, "Overview", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) distribution(w http.ResponseWriter, r *http.Request) {
	id, criteria, err := h.datasetAndCriteria(r)
	if err != nil {
		h.handleError(r.Context(), w, "Distribution", err)
		return
	}

	subject := chi.URLParam(r, "subject")
	if unescaped, err := url.PathUnescape(subject); err == nil {
		subject = unescaped
	}

	key := criteriaKey(cacheKeyDistribution, id, subject, criteria)
	result, err := FindAndCache(r.Context(), h.cache, &h.sfGroup, key, h.cacheTTL, h.logger,
		func(ctx context.Context) (service.DistributionResult, error) {
			return h.insights.Distribution(ctx, id, subject, criteria)
		})
	if err != nil {
		h.handleError(r.Context(), w, "Distribution", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// datasetAndCriteria resolves the dataset id and builds the filter
// criteria from query parameters, defaulting every omitted dimension to
// all values observed in the dataset so that an unfiltered request
// excludes nothing.
func (h *Handlers) datasetAndCriteria(r *http.Request) (int64, survey.Criteria, error) {
	id, err := datasetID(r)
	if err != nil {
		return 0, survey.Criteria{}, errBadRequest{err.Error()}
	}

	opts, err := h.insights.FilterOptions(r.Context(), id)
	if err != nil {
		return 0, survey.Criteria{}, err
	}

	q := r.URL.Query()
	criteria := survey.Criteria{
		From:         opts.EarliestResponse,
		To:           opts.LatestResponse,
		YearSemester: acceptSetParam(q["year_semester"], opts.YearSemesters),
		Gender:       acceptSetParam(q["gender"], opts.Genders),
		Branch:       acceptSetParam(q["branch"], opts.Branches),
		SectionType:  acceptSetParam(q["section_type"], opts.SectionTypes),
	}

	if from := q.Get("from"); from != "" {
		if criteria.From, err = time.Parse(dateLayout, from); err != nil {
			return 0, survey.Criteria{}, errBadRequest{fmt.Sprintf("invalid 'from' date %q", from)}
		}
	}
	if to := q.Get("to"); to != "" {
		if criteria.To, err = time.Parse(dateLayout, to); err != nil {
			return 0, survey.Criteria{}, errBadRequest{fmt.Sprintf("invalid 'to' date %q", to)}
		}
	}

	if err := criteria.Validate(); err != nil {
		return 0, survey.Criteria{}, err
	}
	return id, criteria, nil
}

func acceptSetParam(supplied, observed []string) survey.AcceptSet {
	if len(supplied) == 0 {
		return survey.NewAcceptSet(observed...)
	}
	return survey.NewAcceptSet(supplied...)
}

func datasetID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "datasetID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid dataset id %q", raw)
	}
	return id, nil
}

// criteriaKey derives a deterministic cache key from a dataset id, an
// optional subject, and the full criteria.
func criteriaKey(prefix string, id int64, subject string, c survey.Criteria) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d", prefix, id)
	if subject != "" {
		fmt.Fprintf(&b, ":%s", subject)
	}
	fmt.Fprintf(&b, ":%s:%s", c.From.UTC().Format(dateLayout), c.To.UTC().Format(dateLayout))
	for _, set := range []survey.AcceptSet{c.YearSemester, c.Gender, c.Branch, c.SectionType} {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		fmt.Fprintf(&b, ":%s", strings.Join(values, ","))
	}
	return b.String()
}

type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func (h *Handlers) handleError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		h.errorJSON(w, http.StatusRequestTimeout, "request canceled")
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		h.errorJSON(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	var badReq errBadRequest
	switch {
	case errors.As(err, &badReq):
		h.errorJSON(w, http.StatusBadRequest, badReq.msg)
	case errors.Is(err, survey.ErrInvalidRange):
		h.errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBadUpload), errors.Is(err, loader.ErrUnsupportedFormat):
		h.logger.Info("rejected upload", zap.String("op", op), zap.Error(err))
		h.errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDatasetNotFound):
		h.logger.Info("dataset not found", zap.String("op", op))
		h.errorJSON(w, http.StatusNotFound, "dataset not found")
	case errors.Is(err, service.ErrSubjectNotFound):
		h.logger.Info("subject not found", zap.String("op", op))
		h.errorJSON(w, http.StatusNotFound, "subject not found for the given filters")
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "storage error")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", op))
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handlers) errorJSON(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}
