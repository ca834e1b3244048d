package replay

import (
	"context"
	"fmt"
	"slices"

	"github.com/danielpatrickdp/cosmicmind/internal/engine"
)

// #region types

// StepResult captures the outcome of one scripted step.
type StepResult struct {
	StepID      string
	Ingested    int
	Cycled      bool
	Concepts    []string // concepts of truths derived this step, in derivation order
	Intents     []string
	TotalTruths int
	Invariants  []string
}

// Mismatch is one difference between a result and its expectation.
type Mismatch struct {
	StepID string
	Field  string
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("step %s: %s: want %s, got %s", m.StepID, m.Field, m.Want, m.Got)
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSteps        int
	Cycles            int
	FramesIngested    int
	TruthsDerived     int
	Actions           int
	InvariantFailures int
}

// #endregion types

// #region replay

// Replay runs steps against a fresh in-memory agent built from cfg. Nothing
// is persisted.
func Replay(ctx context.Context, cfg engine.Config, steps []Step) []StepResult {
	mind := engine.New(cfg)
	results := make([]StepResult, 0, len(steps))

	for _, step := range steps {
		r := StepResult{StepID: step.ID}
		for _, raw := range step.Ingest {
			mind.Ingest(ctx, raw)
			r.Ingested++
		}
		if step.Cycle {
			report := mind.CycleDetailed(ctx)
			r.Cycled = true
			for _, t := range report.NewTruths {
				r.Concepts = append(r.Concepts, t.Concept)
			}
			for _, a := range report.Actions {
				r.Intents = append(r.Intents, a.Intent)
			}
			r.Invariants = report.Invariants
		}
		r.TotalTruths = len(mind.Truths())
		results = append(results, r)
	}
	return results
}

// Check compares results with expectations by step ID. An expectation for
// a step that never ran is a mismatch.
func Check(results []StepResult, expected []FixtureExpectedResult) []Mismatch {
	byID := make(map[string]StepResult, len(results))
	for _, r := range results {
		byID[r.StepID] = r
	}

	var out []Mismatch
	for _, want := range expected {
		got, ok := byID[want.StepID]
		if !ok {
			out = append(out, Mismatch{StepID: want.StepID, Field: "step", Want: "present", Got: "missing"})
			continue
		}
		if !sameStrings(want.Concepts, got.Concepts) {
			out = append(out, Mismatch{StepID: want.StepID, Field: "concepts", Want: fmt.Sprint(want.Concepts), Got: fmt.Sprint(got.Concepts)})
		}
		if !sameStrings(want.Intents, got.Intents) {
			out = append(out, Mismatch{StepID: want.StepID, Field: "intents", Want: fmt.Sprint(want.Intents), Got: fmt.Sprint(got.Intents)})
		}
		if want.Truths != nil && *want.Truths != got.TotalTruths {
			out = append(out, Mismatch{StepID: want.StepID, Field: "truths", Want: fmt.Sprint(*want.Truths), Got: fmt.Sprint(got.TotalTruths)})
		}
	}
	return out
}

// sameStrings treats nil and empty as equal.
func sameStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return slices.Equal(a, b)
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []StepResult) ReplaySummary {
	s := ReplaySummary{TotalSteps: len(results)}
	for _, r := range results {
		if r.Cycled {
			s.Cycles++
		}
		s.FramesIngested += r.Ingested
		s.TruthsDerived += len(r.Concepts)
		s.Actions += len(r.Intents)
		s.InvariantFailures += len(r.Invariants)
	}
	return s
}

// #endregion replay
