package monitor

import (
	"testing"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

func expecting(id string, conf float64) state.Hypothesis {
	return state.Hypothesis{
		ID:         id,
		Prediction: "After a 'Hello' signal, the external entity is expecting acknowledgement or response.",
		TruthID:    "t1",
		Confidence: conf,
	}
}

func TestCheckViolatesWithoutEvidence(t *testing.T) {
	m := New(DefaultConfig())
	res := m.Check(state.Frame{RawInput: "2,4,8"}, []state.Hypothesis{expecting("h1", 0.9)})

	if len(res.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(res.Violations))
	}
	if res.Surprise != 0.9 {
		t.Errorf("expected surprise 0.9, got %f", res.Surprise)
	}
	if !res.Updated[0].Violated || res.Updated[0].Confidence != 0.45 {
		t.Errorf("expected violated hypothesis at 0.45, got %+v", res.Updated[0])
	}
	if res.Violations[0].PriorConfidence != 0.9 {
		t.Errorf("prior confidence not recorded: %+v", res.Violations[0])
	}
}

func TestCheckEvidenceSatisfies(t *testing.T) {
	m := New(DefaultConfig())
	for _, raw := range []string{"HELLO again", "here is my response", "ack", "ok, ACK!"} {
		res := m.Check(state.Frame{RawInput: raw}, []state.Hypothesis{expecting("h1", 0.9)})
		if len(res.Violations) != 0 || res.Surprise != 0 {
			t.Errorf("%q should satisfy the prediction, got %+v", raw, res)
		}
	}
}

func TestCheckEvidenceIsWholeWord(t *testing.T) {
	m := New(DefaultConfig())
	for _, raw := range []string{"rolled back the stack", "track the otherwise", "hellos"} {
		res := m.Check(state.Frame{RawInput: raw}, []state.Hypothesis{expecting("h1", 0.9)})
		if len(res.Violations) != 1 {
			t.Errorf("%q must not count as acknowledgement, got %+v", raw, res)
		}
	}
}

func TestCheckSkipsViolatedAndUnmarked(t *testing.T) {
	m := New(DefaultConfig())
	done := expecting("h1", 0.45)
	done.Violated = true
	other := state.Hypothesis{ID: "h2", Prediction: "Numeric sequences will continue to appear.", Confidence: 0.56}

	res := m.Check(state.Frame{RawInput: "silence"}, []state.Hypothesis{done, other})
	if len(res.Violations) != 0 || len(res.Updated) != 0 {
		t.Errorf("expected no changes, got %+v", res)
	}
}

func TestCheckDoesNotMutateInput(t *testing.T) {
	m := New(DefaultConfig())
	hs := []state.Hypothesis{expecting("h1", 0.8)}
	m.Check(state.Frame{RawInput: "nothing"}, hs)
	if hs[0].Violated || hs[0].Confidence != 0.8 {
		t.Errorf("input slice mutated: %+v", hs[0])
	}
}

func TestCheckAccumulatesSurprise(t *testing.T) {
	m := New(DefaultConfig())
	res := m.Check(state.Frame{RawInput: "x"}, []state.Hypothesis{expecting("a", 0.5), expecting("b", 0.25)})
	if res.Surprise != 0.75 || len(res.Updated) != 2 {
		t.Errorf("expected surprise 0.75 from two violations, got %+v", res)
	}
}
