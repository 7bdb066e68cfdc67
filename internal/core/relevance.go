package core

import (
	"math"
	"sort"

	"github.com/inkwell-app/inkwell/internal/store"
)

const (
	// CandidatePoolSize bounds how far back relevance scoring looks. This is
	// a recency window for cost control; the scorer never searches the full
	// history.
	CandidatePoolSize = 20

	keywordWeight   = 0.5
	sentimentWeight = 0.3
	timeWeight      = 0.2

	// Hours in one week; the scale constant of the time-decay curve.
	decayScaleHours = 24 * 7
)

// MatchResult scores one candidate entry against the current one. It lives
// only for the duration of a single ingestion call and is never persisted.
type MatchResult struct {
	Entry          store.Entry `json:"entry"`
	KeywordOverlap float64     `json:"keyword_overlap"`
	SentimentSim   float64     `json:"sentiment_similarity"`
	TimeRelevance  float64     `json:"time_relevance"`
	Combined       float64     `json:"combined"`
}

// Score computes the composite relatedness of candidate to current:
// 0.5*keywordOverlap + 0.3*sentimentSimilarity + 0.2*timeRelevance.
// An entry scored against itself yields exactly 1.0.
func Score(current, candidate *store.Entry) MatchResult {
	overlap := keywordOverlap(current.Keywords, candidate.Keywords)

	sentimentSim := clamp(1-math.Abs(current.Sentiment-candidate.Sentiment), 0, 1)

	deltaHours := math.Abs(current.CreatedAt.Sub(candidate.CreatedAt).Hours())
	timeRelevance := math.Exp(-deltaHours / decayScaleHours)

	return MatchResult{
		Entry:          *candidate,
		KeywordOverlap: overlap,
		SentimentSim:   sentimentSim,
		TimeRelevance:  timeRelevance,
		Combined:       keywordWeight*overlap + sentimentWeight*sentimentSim + timeWeight*timeRelevance,
	}
}

func keywordOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, kw := range a {
		set[kw] = struct{}{}
	}
	shared := 0
	for _, kw := range b {
		if _, ok := set[kw]; ok {
			shared++
		}
	}

	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(shared) / float64(denom)
}

// FindRelated ranks the candidate pool against the current entry and returns
// the top limit matches, best first. Ties break toward the more recent
// candidate so the ordering is deterministic.
func FindRelated(current *store.Entry, candidates []store.Entry, limit int) []MatchResult {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	results := make([]MatchResult, 0, len(candidates))
	for i := range candidates {
		results = append(results, Score(current, &candidates[i]))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Combined != results[j].Combined {
			return results[i].Combined > results[j].Combined
		}
		return results[i].Entry.CreatedAt.After(results[j].Entry.CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
