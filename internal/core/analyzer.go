package core

import (
	"strings"
)

const maxKeywords = 12

// stopwords excluded from keyword extraction. Tokens of length <= 2 are
// dropped before this set is consulted, so two-letter fillers are omitted.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "him": {}, "his": {},
	"how": {}, "its": {}, "may": {}, "who": {}, "did": {}, "yes": {},
	"get": {}, "got": {}, "let": {}, "she": {}, "too": {}, "use": {},
	"that": {}, "this": {}, "with": {}, "have": {}, "from": {}, "they": {},
	"will": {}, "what": {}, "when": {}, "your": {}, "just": {}, "like": {},
	"been": {}, "were": {}, "them": {}, "then": {}, "than": {}, "some": {},
	"into": {}, "over": {}, "very": {}, "much": {}, "about": {}, "there": {},
	"their": {}, "would": {}, "could": {}, "should": {}, "because": {},
	"really": {}, "being": {}, "going": {}, "still": {}, "also": {},
}

// ExtractKeywords derives the ordered keyword set for an entry: lowercase,
// non-alphanumeric runs become separators, short tokens and stopwords are
// dropped, duplicates keep their first-seen position, and the result is
// truncated to twelve tokens. Deterministic and total.
func ExtractKeywords(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return ' '
	}, text)

	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)
	for _, token := range strings.Fields(normalized) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// Polarity term sets for the bag-of-words sentiment heuristic. Matching is
// substring containment on the lowercased text, not whole-word, so "hopeful"
// also counts the "hope" term.
var positiveTerms = []string{
	"happy", "grateful", "joy", "calm", "excited", "love", "proud",
	"hope", "peace", "progress", "better", "good", "great", "win",
	"accomplish", "energized", "thankful", "relief",
}

var negativeTerms = []string{
	"sad", "anxious", "angry", "afraid", "lost", "tired", "stress",
	"worried", "fail", "hurt", "lonely", "overwhelm", "stuck", "fear",
	"hate", "awful", "terrible", "hopeless", "exhausted",
}

const sentimentScale = 3.0

// ScoreSentiment is a coarse polarity heuristic: positive-term occurrences
// minus negative-term occurrences, normalized and clamped to [-1, 1]. It is
// deliberately not real NLP; it only has to be deterministic, total and
// directionally right.
func ScoreSentiment(text string) float64 {
	lowered := strings.ToLower(text)

	raw := 0
	for _, term := range positiveTerms {
		raw += strings.Count(lowered, term)
	}
	for _, term := range negativeTerms {
		raw -= strings.Count(lowered, term)
	}

	return clamp(float64(raw)/sentimentScale, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
