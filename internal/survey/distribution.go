package survey

import (
	"math"
	"sort"
)

// Bucket is one entry of a score distribution: how many times a score
// occurred and its share of the total, as a numeric percentage.
type Bucket struct {
	Score      Score
	Count      int
	Percentage float64
}

// Summarize builds the score distribution for a pooled score list:
// one bucket per distinct score value, ascending, with percentage =
// 100*count/total rounded to one decimal. Rounding is half away from
// zero (math.Round), which for these non-negative inputs is plain
// round-half-up. Scores that never occur produce no bucket. An empty
// list yields nil.
func Summarize(scores []Score) []Bucket {
	if len(scores) == 0 {
		return nil
	}

	counts := make(map[Score]int)
	for _, s := range scores {
		counts[s]++
	}

	buckets := make([]Bucket, 0, len(counts))
	total := float64(len(scores))
	for score, count := range counts {
		pct := math.Round(100*float64(count)/total*10) / 10
		buckets = append(buckets, Bucket{Score: score, Count: count, Percentage: pct})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Score < buckets[j].Score })
	return buckets
}
