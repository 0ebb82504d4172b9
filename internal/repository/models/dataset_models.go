package models

import (
	"time"

	"github.com/campuspulse/survey-server/internal/survey"
)

// Dataset is a stored survey export: its identity plus the full parsed
// table, rows in upload order.
type Dataset struct {
	ID         int64
	Name       string
	UploadedAt time.Time
	Table      *survey.Table
}

// DatasetInfo is the listing view of a dataset.
type DatasetInfo struct {
	ID            int64
	Name          string
	UploadedAt    time.Time
	ResponseCount int
}

// FilterOptions holds the distinct observed values per categorical
// dimension and the response time bounds of a dataset. The filter UI
// uses these to pre-populate accept-sets so an untouched filter state
// excludes nothing.
type FilterOptions struct {
	YearSemesters    []string
	Genders          []string
	Branches         []string
	SectionTypes     []string
	EarliestResponse time.Time
	LatestResponse   time.Time
}
