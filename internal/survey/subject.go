package survey

import "strings"

// SubjectKey is the canonical identity of a subject. Raw labels that
// differ only in case or spacing normalize to the same key.
type SubjectKey string

// NormalizeSubject canonicalizes a raw subject label: surrounding
// whitespace is trimmed, internal whitespace runs collapse to a single
// space, and the result is upper-cased. A label that is empty after
// trimming returns ok=false. Normalization is idempotent.
func NormalizeSubject(raw string) (SubjectKey, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false
	}
	return SubjectKey(strings.ToUpper(strings.Join(fields, " "))), true
}
