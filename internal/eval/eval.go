package eval

import (
	"fmt"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region eval-harness
// EvalHarness checks engine invariants on a snapshot after each cycle. It
// never blocks; the engine reports failures and carries on.
type EvalHarness struct{}

// NewEvalHarness creates an eval harness.
func NewEvalHarness() *EvalHarness {
	return &EvalHarness{}
}

type check struct {
	name string
	run  func(prev *state.Snapshot, cur state.Snapshot) []string
}

var checks = []check{
	{"unique_principles", uniquePrinciples},
	{"truth_confidence_bounds", truthBounds},
	{"hypothesis_confidence_bounds", hypothesisBounds},
	{"salience_bounds", salienceBounds},
	{"emotion_bounds", emotionBounds},
	{"hypothesis_monotonic", hypothesisMonotonic},
	{"truths_retained", truthsRetained},
}

// Run validates cur. prev is the snapshot after the previous cycle and may
// be nil; the cross-cycle checks are skipped without it.
func (h *EvalHarness) Run(prev *state.Snapshot, cur state.Snapshot) EvalResult {
	var metrics []EvalMetric
	var failures []string
	passed := true

	for _, c := range checks {
		found := c.run(prev, cur)
		metrics = append(metrics, EvalMetric{Name: c.name, Value: len(found), Pass: len(found) == 0})
		if len(found) > 0 {
			passed = false
			failures = append(failures, found...)
		}
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failures[0])
		if len(failures) > 1 {
			reason = fmt.Sprintf("eval failed: %d problems: %s", len(failures), failures[0])
		}
	}
	return EvalResult{Passed: passed, Metrics: metrics, Failures: failures, Reason: reason}
}

// #endregion eval-harness

// #region checks
func uniquePrinciples(_ *state.Snapshot, cur state.Snapshot) []string {
	var out []string
	seen := make(map[string]string)
	for _, t := range cur.Truths {
		if other, ok := seen[t.Principle]; ok {
			out = append(out, fmt.Sprintf("truths %s and %s share principle %q", other, t.ID, t.Principle))
			continue
		}
		seen[t.Principle] = t.ID
	}
	return out
}

func truthBounds(_ *state.Snapshot, cur state.Snapshot) []string {
	var out []string
	for _, t := range cur.Truths {
		if !inUnit(t.Confidence) {
			out = append(out, fmt.Sprintf("truth %s confidence %.4f out of [0,1]", t.ID, t.Confidence))
		}
	}
	return out
}

func hypothesisBounds(_ *state.Snapshot, cur state.Snapshot) []string {
	var out []string
	for _, h := range cur.Hypotheses {
		if !inUnit(h.Confidence) {
			out = append(out, fmt.Sprintf("hypothesis %s confidence %.4f out of [0,1]", h.ID, h.Confidence))
		}
	}
	return out
}

func salienceBounds(_ *state.Snapshot, cur state.Snapshot) []string {
	var out []string
	for _, f := range cur.Frames {
		if !inUnit(f.Salience) {
			out = append(out, fmt.Sprintf("frame %s salience %.4f out of [0,1]", f.ID, f.Salience))
		}
	}
	return out
}

func emotionBounds(_ *state.Snapshot, cur state.Snapshot) []string {
	var out []string
	for e, v := range cur.Emotions {
		if !inUnit(v) {
			out = append(out, fmt.Sprintf("emotion %s intensity %.4f out of [0,1]", e, v))
		}
	}
	return out
}

func hypothesisMonotonic(prev *state.Snapshot, cur state.Snapshot) []string {
	if prev == nil {
		return nil
	}
	now := make(map[string]state.Hypothesis, len(cur.Hypotheses))
	for _, h := range cur.Hypotheses {
		now[h.ID] = h
	}
	var out []string
	for _, before := range prev.Hypotheses {
		after, ok := now[before.ID]
		if !ok {
			out = append(out, fmt.Sprintf("hypothesis %s disappeared", before.ID))
			continue
		}
		if before.Violated && !after.Violated {
			out = append(out, fmt.Sprintf("hypothesis %s un-violated", before.ID))
		}
	}
	return out
}

func truthsRetained(prev *state.Snapshot, cur state.Snapshot) []string {
	if prev == nil {
		return nil
	}
	now := make(map[string]bool, len(cur.Truths))
	for _, t := range cur.Truths {
		now[t.Principle] = true
	}
	var out []string
	for _, t := range prev.Truths {
		if !now[t.Principle] {
			out = append(out, fmt.Sprintf("truth %q lost", t.Principle))
		}
	}
	return out
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// #endregion checks
