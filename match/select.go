package match

import "github.com/tunebridge/backend/catalog"

// Result is a candidate track annotated with the confidence score it earned
// against the original. Produced per SelectBest call, never mutated after.
type Result struct {
	catalog.Track
	MatchScore int `json:"match_score"`
}

// SelectBest scores every candidate against original and returns the
// highest-scoring one, or nil when candidates is empty or nothing clears the
// acceptance threshold. Comparison is strictly greater, so the first
// candidate in sequence order wins ties against later equal scores; callers
// rely on that ordering being deterministic.
func SelectBest(original *catalog.Track, candidates []catalog.Track) *Result {
	if len(candidates) == 0 {
		return nil
	}
	best := -1
	bestScore := 0
	for i := range candidates {
		if s := Score(original, &candidates[i]); s > bestScore {
			bestScore = s
			best = i
		}
	}
	if best < 0 || bestScore < matchThreshold {
		return nil
	}
	return &Result{Track: candidates[best], MatchScore: bestScore}
}
