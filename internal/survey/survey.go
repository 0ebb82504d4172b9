// Package survey implements the rating-aggregation core: converting
// categorical ratings to numeric scores, discovering subject columns
// from header text, filtering respondent rows, and computing per-subject
// statistics and score distributions.
//
// Every function in this package is a pure computation over its inputs.
// Nothing here performs I/O or holds state between calls, so concurrent
// use over a shared Table is safe.
package survey

import "time"

// MissingValue marks a categorical attribute the respondent did not
// supply. The loader substitutes it at parse time so that rows with
// absent metadata remain selectable as their own filter bucket.
const MissingValue = "(not specified)"

// Row is one respondent record. Cells holds the raw cell text for every
// column of the source table, indexed by column position; rating cells
// are interpreted lazily by the aggregator.
type Row struct {
	SubmittedAt  time.Time
	YearSemester string
	Gender       string
	Branch       string
	SectionType  string
	Cells        []string
}

// Table is a parsed survey export: the original column headers plus one
// Row per respondent, in file order. It is read-only once built.
type Table struct {
	Headers []string
	Rows    []Row
}
