package survey

// SubjectStats holds the aggregate rating statistics for one subject
// over a filtered row set. Scores retains every surviving individual
// score, in row order then column order, for distribution summaries and
// literal display.
type SubjectStats struct {
	Key          SubjectKey
	Mean         float64
	Count        int
	ResponseRate float64
	Scores       []Score
}

// Aggregate pools the rating cells of every classified column across
// the filtered rows, converts them to numeric scores, and computes
// per-subject mean, count, and response rate. Cells whose label is not
// on the rating scale are dropped; a subject with no surviving score is
// omitted from the result entirely rather than reported as zero.
//
// ResponseRate divides by the total filtered row count, not the
// subject's own sample count, so it is below 1 whenever any respondent
// skipped the subject.
func Aggregate(rows []Row, cols ColumnIndex) map[SubjectKey]SubjectStats {
	pooled := make(map[SubjectKey][]Score)

	for _, row := range rows {
		for key, positions := range cols {
			for _, pos := range positions {
				if pos < 0 || pos >= len(row.Cells) {
					continue
				}
				score, ok := ScoreOf(row.Cells[pos])
				if !ok {
					continue
				}
				pooled[key] = append(pooled[key], score)
			}
		}
	}

	stats := make(map[SubjectKey]SubjectStats, len(pooled))
	total := len(rows)
	for key, scores := range pooled {
		sum := 0
		for _, s := range scores {
			sum += int(s)
		}
		st := SubjectStats{
			Key:    key,
			Mean:   float64(sum) / float64(len(scores)),
			Count:  len(scores),
			Scores: scores,
		}
		if total > 0 {
			st.ResponseRate = float64(len(scores)) / float64(total)
			// duplicate columns for one subject can push the pooled
			// count past the row total; the rate stays a fraction
			if st.ResponseRate > 1 {
				st.ResponseRate = 1
			}
		}
		stats[key] = st
	}
	return stats
}
