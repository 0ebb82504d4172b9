// Package loader parses survey exports (xlsx or csv) into the core's
// table representation. It is the boundary responsible for timestamp
// normalization: a row whose timestamp cannot be parsed is rejected
// here so the core can assume every row carries a comparable time.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/campuspulse/survey-server/internal/survey"
)

// Well-known metadata headers of the survey export.
const (
	headerTimestamp    = "Timestamp"
	headerYearSemester = "Choose your Current/Last Academic Year and Semester"
	headerGender       = "Gender"
	headerBranch       = "Select Branch/Discipline"
	headerSectionType  = "Section Type"
)

var (
	ErrNoHeader          = errors.New("export has no header row")
	ErrEmptyTable        = errors.New("export has no data rows")
	ErrMissingTimestamp  = errors.New("export has no Timestamp column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// timestampLayouts are tried in order when parsing a timestamp cell.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// Load dispatches on the file extension of name. ".xlsx" goes through
// the spreadsheet parser, ".csv" through the csv parser.
func Load(r io.Reader, name string) (*survey.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return LoadXLSX(r)
	case ".csv":
		return LoadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// LoadCSV parses a csv export. The first record is the header row;
// records may have fewer fields than the header (trailing blanks).
func LoadCSV(r io.Reader) (*survey.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(records)
}

// LoadXLSX parses the first sheet of an xlsx export.
func LoadXLSX(r io.Reader) (*survey.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) (*survey.Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrNoHeader
	}
	if len(records) == 1 {
		return nil, ErrEmptyTable
	}

	headers := records[0]
	tsCol := columnOf(headers, headerTimestamp)
	if tsCol < 0 {
		return nil, ErrMissingTimestamp
	}
	yearCol := columnOf(headers, headerYearSemester)
	genderCol := columnOf(headers, headerGender)
	branchCol := columnOf(headers, headerBranch)
	sectionCol := columnOf(headers, headerSectionType)

	table := &survey.Table{
		Headers: headers,
		Rows:    make([]survey.Row, 0, len(records)-1),
	}

	for i, record := range records[1:] {
		ts, err := parseTimestamp(cellAt(record, tsCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		cells := make([]string, len(headers))
		copy(cells, record)

		table.Rows = append(table.Rows, survey.Row{
			SubmittedAt:  ts,
			YearSemester: categoryAt(record, yearCol),
			Gender:       categoryAt(record, genderCol),
			Branch:       categoryAt(record, branchCol),
			SectionType:  categoryAt(record, sectionCol),
			Cells:        cells,
		})
	}
	return table, nil
}

func columnOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cellAt(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return record[col]
}

// categoryAt reads a categorical cell, substituting the missing-value
// sentinel for absent columns and blank cells so rows with incomplete
// metadata remain filterable as their own bucket.
func categoryAt(record []string, col int) string {
	v := strings.TrimSpace(cellAt(record, col))
	if v == "" {
		return survey.MissingValue
	}
	return v
}

// parseTimestamp tries the known textual layouts, then falls back to
// interpreting the cell as a spreadsheet serial date number.
func parseTimestamp(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerialDate(serial), nil
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// fromSerialDate converts an Excel serial date (days since 1899-12-30)
// to a UTC time.
func fromSerialDate(serial float64) time.Time {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	frac := serial - days
	return epoch.AddDate(0, 0, int(days)).
		Add(time.Duration(math.Round(frac * float64(24*time.Hour))))
}
