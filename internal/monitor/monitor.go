package monitor

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region config
// Config holds the rule parameters for hypothesis checking.
type Config struct {
	Marker          string   // predictions containing this word are checked
	Evidence        []string // any of these as a whole word in the raw input satisfies the prediction
	ConfidenceDecay float64  // multiplier applied to a violated hypothesis
}

// DefaultConfig returns the acknowledgement-expectation rule.
func DefaultConfig() Config {
	return Config{
		Marker:          "expecting",
		Evidence:        []string{"response", "hello", "ack"},
		ConfidenceDecay: 0.5,
	}
}

// ViolationInfluence is the emotional response to one violated hypothesis,
// applied at ViolationWeight.
var ViolationInfluence = map[emotion.Emotion]float64{
	emotion.Surprise: 0.9,
	emotion.Fear:     0.2,
}

// ViolationWeight scales ViolationInfluence.
const ViolationWeight = 0.6

// #endregion config

// #region result
// Violation records one hypothesis falsified by a frame.
type Violation struct {
	HypothesisID    string
	PriorConfidence float64
	Reason          string
}

// Result is the outcome of checking one frame.
type Result struct {
	Surprise   float64
	Violations []Violation
	Updated    []state.Hypothesis // violated hypotheses with decayed confidence
}

// #endregion result

// #region monitor
// Monitor tests incoming frames against live hypotheses.
type Monitor struct {
	config Config
}

// New creates a monitor with the given configuration.
func New(config Config) *Monitor {
	return &Monitor{config: config}
}

// Check evaluates frame against every non-violated hypothesis. It never
// creates or deletes hypotheses; the caller writes back Result.Updated.
func (m *Monitor) Check(frame state.Frame, hypotheses []state.Hypothesis) Result {
	var res Result
	lower := strings.ToLower(frame.RawInput)

	for _, h := range hypotheses {
		if h.Violated {
			continue
		}
		if !strings.Contains(strings.ToLower(h.Prediction), m.config.Marker) {
			continue
		}
		if m.hasEvidence(lower) {
			continue
		}

		res.Surprise += h.Confidence
		res.Violations = append(res.Violations, Violation{
			HypothesisID:    h.ID,
			PriorConfidence: h.Confidence,
			Reason:          fmt.Sprintf("no acknowledgement evidence in %q", frame.RawInput),
		})

		h.Violated = true
		h.Confidence *= m.config.ConfidenceDecay
		res.Updated = append(res.Updated, h)
	}
	return res
}

func (m *Monitor) hasEvidence(lower string) bool {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, ev := range m.config.Evidence {
			if w == strings.ToLower(ev) {
				return true
			}
		}
	}
	return false
}

// #endregion monitor
