package survey

import (
	"sort"
	"strings"
)

// ColumnIndex maps each discovered subject to the positions of the
// columns that rate it. Multiple columns may map to the same key when
// the export labels one subject inconsistently.
type ColumnIndex map[SubjectKey][]int

// subjectMarkers are the literal header fragments that identify a
// rating column in the export.
var subjectMarkers = []string{"Subjects [", "Subject ["}

// ClassifyColumns scans column headers and indexes the ones that encode
// a per-subject rating. A header qualifies iff it contains a bracketed
// segment introduced by "Subject [" or "Subjects [" and closed by "]";
// the subject label is the text strictly between the first "[" and the
// first "]". Headers whose label is empty or unnormalizable are
// silently excluded. Classification depends only on the header set,
// never on row values or filters.
func ClassifyColumns(headers []string) ColumnIndex {
	index := make(ColumnIndex)
	for pos, header := range headers {
		key, ok := subjectFromHeader(header)
		if !ok {
			continue
		}
		index[key] = append(index[key], pos)
	}
	return index
}

func subjectFromHeader(header string) (SubjectKey, bool) {
	marked := false
	for _, marker := range subjectMarkers {
		if strings.Contains(header, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return "", false
	}

	open := strings.Index(header, "[")
	closing := strings.Index(header, "]")
	if open < 0 || closing <= open {
		return "", false
	}
	return NormalizeSubject(header[open+1 : closing])
}

// Subjects returns the indexed subject keys in ascending order. Handy
// for deterministic iteration and display.
func (c ColumnIndex) Subjects() []SubjectKey {
	keys := make([]SubjectKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
