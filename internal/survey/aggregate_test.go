package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ratingRow(cells ...string) Row {
	return Row{
		SubmittedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Cells:       cells,
	}
}

func TestAggregate(t *testing.T) {
	t.Run("mean, count, and response rate over one column", func(t *testing.T) {
		cols := ColumnIndex{"DBMS": {0}}
		rows := []Row{
			ratingRow("Excellent"),
			ratingRow("Good"),
			ratingRow(""),
			ratingRow("Poor"),
		}

		stats := Aggregate(rows, cols)

		st, ok := stats["DBMS"]
		assert.True(t, ok)
		assert.InDelta(t, 3.0, st.Mean, 1e-9) // (5+3+1)/3
		assert.Equal(t, 3, st.Count)
		assert.InDelta(t, 0.75, st.ResponseRate, 1e-9)
		assert.Equal(t, []Score{5, 3, 1}, st.Scores)
	})

	t.Run("duplicate columns for one subject are pooled", func(t *testing.T) {
		cols := ColumnIndex{"DBMS": {0, 1}}
		rows := []Row{
			ratingRow("Excellent", "Poor"),
			ratingRow("Good", ""),
		}

		stats := Aggregate(rows, cols)

		st := stats["DBMS"]
		assert.Equal(t, 3, st.Count)
		assert.Equal(t, []Score{5, 1, 3}, st.Scores) // row order, then column order
		assert.InDelta(t, 3.0, st.Mean, 1e-9)
		assert.InDelta(t, 1.0, st.ResponseRate, 1e-9) // clamped: 3 ratings over 2 rows
	})

	t.Run("subject with no valid score is omitted", func(t *testing.T) {
		cols := ColumnIndex{"DBMS": {0}, "OS": {1}}
		rows := []Row{
			ratingRow("Good", "N/A"),
			ratingRow("Fair", ""),
		}

		stats := Aggregate(rows, cols)

		assert.Contains(t, stats, SubjectKey("DBMS"))
		assert.NotContains(t, stats, SubjectKey("OS"))
	})

	t.Run("unrecognized labels never reach the denominator", func(t *testing.T) {
		cols := ColumnIndex{"DBMS": {0}}
		rows := []Row{
			ratingRow("Excellent"),
			ratingRow("outstanding"),
			ratingRow("5"),
		}

		st := Aggregate(rows, cols)["DBMS"]
		assert.Equal(t, 1, st.Count)
		assert.InDelta(t, 5.0, st.Mean, 1e-9)
		assert.InDelta(t, 1.0/3.0, st.ResponseRate, 1e-9)
	})

	t.Run("empty row set yields empty result", func(t *testing.T) {
		stats := Aggregate(nil, ColumnIndex{"DBMS": {0}})
		assert.Empty(t, stats)
	})

	t.Run("column position beyond the row is skipped", func(t *testing.T) {
		cols := ColumnIndex{"DBMS": {3}}
		stats := Aggregate([]Row{ratingRow("Good")}, cols)
		assert.Empty(t, stats)
	})

	t.Run("response rates stay within bounds", func(t *testing.T) {
		cols := ColumnIndex{"DBMS": {0}, "OS": {1}}
		rows := []Row{
			ratingRow("Good", "Fair"),
			ratingRow("Poor", ""),
			ratingRow("", "Excellent"),
		}

		stats := Aggregate(rows, cols)
		for _, st := range stats {
			assert.GreaterOrEqual(t, st.ResponseRate, 0.0)
			assert.LessOrEqual(t, st.ResponseRate, 1.0)
			assert.Equal(t, st.Count, len(st.Scores))
		}
	})
}
