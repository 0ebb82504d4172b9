package survey

// Score is an integer rating on the 1..5 scale.
type Score int

const (
	ScorePoor      Score = 1
	ScoreFair      Score = 2
	ScoreGood      Score = 3
	ScoreVeryGood  Score = 4
	ScoreExcellent Score = 5
)

var labelToScore = map[string]Score{
	"Excellent": ScoreExcellent,
	"Very Good": ScoreVeryGood,
	"Good":      ScoreGood,
	"Fair":      ScoreFair,
	"Poor":      ScorePoor,
}

var scoreToLabel = map[Score]string{
	ScoreExcellent: "Excellent",
	ScoreVeryGood:  "Very Good",
	ScoreGood:      "Good",
	ScoreFair:      "Fair",
	ScorePoor:      "Poor",
}

// ScoreOf maps a categorical rating label to its numeric score. Any
// input outside the five canonical labels (blank cells included)
// returns ok=false; such cells are excluded from every aggregate and
// never counted in a denominator.
func ScoreOf(label string) (Score, bool) {
	s, ok := labelToScore[label]
	return s, ok
}

// Label returns the canonical rating label for a score, or "" if the
// score is outside the 1..5 scale.
func (s Score) Label() string {
	return scoreToLabel[s]
}
