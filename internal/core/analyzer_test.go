package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywordsProperties(t *testing.T) {
	text := "The Job! the JOB; anxious-about deadlines, deadlines & DEADLINES... " +
		"one two three four five six seven eight nine ten eleven twelve thirteen fourteen"

	keywords := ExtractKeywords(text)

	assert.LessOrEqual(t, len(keywords), 12)
	seen := map[string]bool{}
	for _, kw := range keywords {
		assert.Equal(t, strings.ToLower(kw), kw, "keywords must be lowercase")
		assert.Greater(t, len(kw), 2, "tokens of length <= 2 must be dropped")
		_, isStopword := stopwords[kw]
		assert.False(t, isStopword, "stopword %q must not appear", kw)
		assert.False(t, seen[kw], "duplicate keyword %q", kw)
		seen[kw] = true
	}
}

func TestExtractKeywordsFirstSeenOrder(t *testing.T) {
	keywords := ExtractKeywords("river stone river moss stone cloud")
	assert.Equal(t, []string{"river", "stone", "moss", "cloud"}, keywords)
}

func TestExtractKeywordsNormalization(t *testing.T) {
	keywords := ExtractKeywords("Self-doubt creeps in; can't focus!")
	// Punctuation splits tokens, so "self" and "doubt" arrive separately.
	assert.Equal(t, []string{"self", "doubt", "creeps", "focus"}, keywords)
}

func TestExtractKeywordsEmptyInput(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("  ...  !!  "))
	assert.Empty(t, ExtractKeywords("a an to of in"))
}

func TestExtractKeywordsCap(t *testing.T) {
	words := []string{
		"alpha", "bravo", "charlie", "delta", "echofox", "foxtrot", "golf",
		"hotel", "india", "juliet", "kilo", "lima", "mike", "november",
	}
	keywords := ExtractKeywords(strings.Join(words, " "))
	assert.Len(t, keywords, 12)
	assert.Equal(t, words[:12], keywords)
}

func TestScoreSentimentRange(t *testing.T) {
	inputs := []string{
		"",
		"completely neutral text without polarity",
		"happy happy happy happy happy happy happy",
		"sad sad sad sad sad sad sad sad sad",
		"happy but sad but happy but sad",
	}
	for _, input := range inputs {
		s := ScoreSentiment(input)
		assert.GreaterOrEqual(t, s, -1.0, "input %q", input)
		assert.LessOrEqual(t, s, 1.0, "input %q", input)
	}
}

func TestScoreSentimentPolarity(t *testing.T) {
	assert.Zero(t, ScoreSentiment(""))
	assert.Positive(t, ScoreSentiment("grateful and calm, real progress"))
	assert.Negative(t, ScoreSentiment("I feel lost and anxious about my job"))
}

func TestScoreSentimentSubstringPolicy(t *testing.T) {
	// Matching is substring containment by design: "stressful" counts the
	// "stress" term even though it is not a whole word.
	assert.Negative(t, ScoreSentiment("such a stressful week"))
}
