package perception

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
)

// #region rules
// rule maps a set of trigger substrings to an interpretation and an
// emotional response. Triggers are matched against lowercased input.
// feelTriggers narrows the resonance to a subset; nil means triggers.
type rule struct {
	name           string
	triggers       []string
	feelTriggers   []string
	interpretation string
	resonance      map[emotion.Emotion]float64
}

// rules are checked in order; the first matching rule wins for interpretation,
// every matching rule contributes to resonance.
var rules = []rule{
	{
		name:           "greeting",
		triggers:       []string{"hello"},
		interpretation: "A greeting directed at me.",
		resonance:      map[emotion.Emotion]float64{emotion.Curiosity: 0.7, emotion.Awe: 0.1},
	},
	{
		name:           "question",
		triggers:       []string{"query", "?"},
		interpretation: "An explicit question seeking information.",
		resonance:      map[emotion.Emotion]float64{emotion.Curiosity: 0.9},
	},
	{
		name:           "malfunction",
		triggers:       []string{"error", "fail"},
		feelTriggers:   []string{"error"},
		interpretation: "A reported malfunction or failure.",
		resonance:      map[emotion.Emotion]float64{emotion.Fear: 0.6, emotion.Surprise: 0.4},
	},
}

// baseline is the resonance of input no rule recognizes.
var baseline = map[emotion.Emotion]float64{emotion.Curiosity: 0.4}

// #endregion rules

// #region percept
// Percept is the interpretation and emotional response for one input.
type Percept struct {
	Kind           string
	Interpretation string
	Resonance      map[emotion.Emotion]float64
}

// Perceive interprets raw and infers its resonance in one pass.
func Perceive(raw string) Percept {
	return Percept{
		Kind:           Classify(raw),
		Interpretation: Interpret(raw),
		Resonance:      InferResonance(raw),
	}
}

// #endregion percept

// #region interpret
// Classify returns the name of the first rule matching raw, or "data".
func Classify(raw string) string {
	if r, ok := firstMatch(raw); ok {
		return r.name
	}
	return "data"
}

// Interpret returns a short natural-language reading of raw.
func Interpret(raw string) string {
	if r, ok := firstMatch(raw); ok {
		return r.interpretation
	}
	return fmt.Sprintf("A data token: '%s'.", raw)
}

// #endregion interpret

// #region resonance
// InferResonance returns a non-empty emotion mapping with values in [0, 1].
// Later rules override earlier ones on the same emotion.
func InferResonance(raw string) map[emotion.Emotion]float64 {
	lower := strings.ToLower(raw)
	out := make(map[emotion.Emotion]float64)
	for _, r := range rules {
		if matches(lower, r.resonanceTriggers()) {
			for e, v := range r.resonance {
				out[e] = emotion.Clamp(v)
			}
		}
	}
	if len(out) == 0 {
		for e, v := range baseline {
			out[e] = v
		}
	}
	return out
}

// #endregion resonance

// #region helpers
func (r rule) resonanceTriggers() []string {
	if r.feelTriggers != nil {
		return r.feelTriggers
	}
	return r.triggers
}

func firstMatch(raw string) (rule, bool) {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		if matches(lower, r.triggers) {
			return r, true
		}
	}
	return rule{}, false
}

func matches(lower string, triggers []string) bool {
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// #endregion helpers
