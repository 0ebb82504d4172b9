package survey

import (
	"errors"
	"time"
)

// ErrInvalidRange reports a criteria window whose end precedes its
// start after end-of-day normalization.
var ErrInvalidRange = errors.New("invalid date range: 'to' is before 'from'")

// AcceptSet is a set-membership predicate over one categorical
// dimension. An empty set accepts nothing; callers that mean "no
// filtering" must populate the set with every observed value.
type AcceptSet map[string]struct{}

// NewAcceptSet builds an AcceptSet from the given values.
func NewAcceptSet(values ...string) AcceptSet {
	s := make(AcceptSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports set membership.
func (s AcceptSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Criteria selects the respondent rows that participate in an
// aggregation. The window is inclusive on both ends; To is extended to
// the last instant of its calendar day before comparison, so filtering
// "to 2024-03-01" includes every response submitted on 2024-03-01.
type Criteria struct {
	From         time.Time
	To           time.Time
	YearSemester AcceptSet
	Gender       AcceptSet
	Branch       AcceptSet
	SectionType  AcceptSet
}

// endOfDay normalizes t to 23:59:59.999999999 of its calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Validate rejects a window whose normalized end precedes its start.
func (c Criteria) Validate() error {
	if endOfDay(c.To).Before(c.From) {
		return ErrInvalidRange
	}
	return nil
}

// Matches reports whether a single row satisfies every predicate.
func (c Criteria) Matches(r Row) bool {
	to := endOfDay(c.To)
	if r.SubmittedAt.Before(c.From) || r.SubmittedAt.After(to) {
		return false
	}
	return c.YearSemester.Contains(r.YearSemester) &&
		c.Gender.Contains(r.Gender) &&
		c.Branch.Contains(r.Branch) &&
		c.SectionType.Contains(r.SectionType)
}

// FilterRows returns the rows satisfying all criteria predicates, in
// their original order. The input slice is never mutated.
func FilterRows(rows []Row, c Criteria) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
