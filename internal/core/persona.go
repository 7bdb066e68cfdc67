package core

import (
	"strings"

	"github.com/inkwell-app/inkwell/internal/store"
)

// DefaultTraits seeds a fresh persona row. It is a named value, not an
// inlined literal, so user creation and tests share one source of truth.
var DefaultTraits = store.Traits{
	Curiosity:     0.5,
	Empathy:       0.5,
	Rigor:         0.5,
	Mystique:      0.4,
	ChallengeRate: 0.3,
}

// EvolveWindow is how many recent entries feed one evolution step.
const EvolveWindow = 7

// Signal category vocabularies. Occurrences are counted by substring
// containment across the recent-entry window, same policy as the sentiment
// heuristic.
var (
	wonderTerms = []string{
		"wonder", "curious", "why", "how", "imagine", "what if", "dream",
		"idea", "discover", "learn", "explore", "question",
	}
	careTerms = []string{
		"friend", "family", "love", "care", "help", "thank", "together",
		"miss", "kind", "listen", "support",
	}
	rigorTerms = []string{
		"plan", "goal", "task", "work", "finish", "organize", "decide",
		"focus", "habit", "deadline", "review", "track",
	}
	gloomTerms = []string{
		"sad", "tired", "anxious", "afraid", "lost", "alone", "stress",
		"dark", "heavy", "numb", "empty", "worried",
	}
)

// signalWeights are the normalized category fractions over the recent-entry
// window. They sum to 1 whenever any signal fired at all.
type signalWeights struct {
	wonder float64
	care   float64
	rigor  float64
	gloom  float64
}

// measureSignals tallies category-term occurrences across the entries' text.
// The gloom channel also picks up one count per negative-sentiment entry, so
// a stretch of dark entries registers even when none of the gloom vocabulary
// appears verbatim.
func measureSignals(entries []store.Entry) signalWeights {
	var wonder, care, rigor, gloom int
	for _, entry := range entries {
		lowered := strings.ToLower(entry.Text)
		wonder += countTerms(lowered, wonderTerms)
		care += countTerms(lowered, careTerms)
		rigor += countTerms(lowered, rigorTerms)
		gloom += countTerms(lowered, gloomTerms)
		if entry.Sentiment < 0 {
			gloom++
		}
	}

	total := wonder + care + rigor + gloom
	if total < 1 {
		total = 1 // avoid division by zero; all weights become 0
	}

	return signalWeights{
		wonder: float64(wonder) / float64(total),
		care:   float64(care) / float64(total),
		rigor:  float64(rigor) / float64(total),
		gloom:  float64(gloom) / float64(total),
	}
}

func countTerms(lowered string, terms []string) int {
	n := 0
	for _, term := range terms {
		n += strings.Count(lowered, term)
	}
	return n
}

// Per-trait smoothing factors. A single evolution step can move a trait by at
// most this fraction of the full [0,1] range, which bounds volatility.
const (
	curiositySmoothing = 0.25
	empathySmoothing   = 0.30
	rigorSmoothing     = 0.20
	mystiqueSmoothing  = 0.15
	challengeSmoothing = 0.20
)

// evolveTraits pulls each trait toward a target derived from the signal
// weights via exponential smoothing, then clamps to [0,1]. The targets are
// tunable policy: curiosity follows wonder, empathy follows care with a gloom
// penalty, rigor follows rigor, mystique blends wonder and gloom, and the
// challenge rate blends wonder and rigor minus gloom.
func evolveTraits(current store.Traits, w signalWeights) store.Traits {
	return store.Traits{
		Curiosity:     smooth(current.Curiosity, w.wonder, curiositySmoothing),
		Empathy:       smooth(current.Empathy, w.care-0.5*w.gloom, empathySmoothing),
		Rigor:         smooth(current.Rigor, w.rigor, rigorSmoothing),
		Mystique:      smooth(current.Mystique, 0.5*w.wonder+0.5*w.gloom, mystiqueSmoothing),
		ChallengeRate: smooth(current.ChallengeRate, 0.5*w.wonder+0.5*w.rigor-0.3*w.gloom, challengeSmoothing),
	}
}

func smooth(old, target, t float64) float64 {
	return clamp(old*(1-t)+target*t, 0, 1)
}
