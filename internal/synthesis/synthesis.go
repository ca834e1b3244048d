package synthesis

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region detectors
// Detector recognizes one recurring pattern across focus frames.
type Detector struct {
	Concept    string
	Principle  string
	Confidence float64
	MinFrames  int // strictly more than this many frames must match
	Match      func(f state.Frame) bool
	// Prediction is the hypothesis derived from a truth of this concept.
	Prediction      string
	PredictionScale float64
}

const (
	ConceptGreeting = "Recurring Greeting"
	ConceptNumeric  = "NumericStream"
)

// Detectors is the built-in battery, evaluated in order.
var Detectors = []Detector{
	{
		Concept:         ConceptGreeting,
		Principle:       "The input pattern 'Hello' is an intentional external signal.",
		Confidence:      0.9,
		MinFrames:       2,
		Match:           isGreeting,
		Prediction:      "After a 'Hello' signal, the external entity is expecting acknowledgement or response.",
		PredictionScale: 1.0,
	},
	{
		Concept:         ConceptNumeric,
		Principle:       "A numeric sequence appears in the data stream; may encode structured info.",
		Confidence:      0.7,
		MinFrames:       1,
		Match:           hasDigit,
		Prediction:      "Numeric sequences will continue to appear and may increase in complexity.",
		PredictionScale: 0.8,
	},
}

// HypothesisThreshold is the minimum truth confidence that yields a hypothesis.
const HypothesisThreshold = 0.4

func isGreeting(f state.Frame) bool {
	return strings.Contains(strings.ToLower(f.RawInput), "hello") ||
		strings.Contains(strings.ToLower(f.Interpretation), "greeting")
}

func hasDigit(f state.Frame) bool {
	return strings.IndexFunc(f.RawInput, unicode.IsDigit) >= 0
}

// #endregion detectors

// #region synthesize
// Synthesize runs the detector battery over focus. known reports whether a
// principle is already held; those candidates are dropped, as are repeats
// within the same pass. Fewer than two focus frames is a precondition failure
// and produces nothing.
func Synthesize(focus []state.Frame, known func(principle string) bool) ([]state.Truth, error) {
	if len(focus) < 2 {
		return nil, state.Errorf(state.KindPreconditionUnmet, "synthesize", "need at least 2 focus frames, have %d", len(focus))
	}

	var out []state.Truth
	seen := make(map[string]bool)
	for _, d := range Detectors {
		var support state.IDSet
		for _, f := range focus {
			if d.Match(f) {
				support = support.Add(f.ID)
			}
		}
		if len(support) <= d.MinFrames {
			continue
		}
		if seen[d.Principle] || (known != nil && known(d.Principle)) {
			continue
		}
		seen[d.Principle] = true
		out = append(out, state.Truth{
			ID:               uuid.NewString(),
			Concept:          d.Concept,
			SupportingFrames: support,
			Confidence:       d.Confidence,
			Principle:        d.Principle,
		})
	}
	return out, nil
}

// #endregion synthesize

// #region derive
// DeriveHypotheses proposes one prediction per sufficiently confident truth
// whose concept has a known prediction.
func DeriveHypotheses(truths []state.Truth) []state.Hypothesis {
	var out []state.Hypothesis
	for _, t := range truths {
		if t.Confidence <= HypothesisThreshold {
			continue
		}
		d, ok := detectorFor(t.Concept)
		if !ok || d.Prediction == "" {
			continue
		}
		out = append(out, state.Hypothesis{
			ID:         uuid.NewString(),
			Prediction: d.Prediction,
			TruthID:    t.ID,
			Confidence: t.Confidence * d.PredictionScale,
		})
	}
	return out
}

func detectorFor(concept string) (Detector, bool) {
	for _, d := range Detectors {
		if d.Concept == concept {
			return d, true
		}
	}
	return Detector{}, false
}

// #endregion derive
