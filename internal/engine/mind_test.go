package engine

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/danielpatrickdp/cosmicmind/internal/continuity"
	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/goals"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
	"github.com/danielpatrickdp/cosmicmind/internal/synthesis"
)

// #region helpers

func newMind(t *testing.T, opts ...Option) *Mind {
	t.Helper()
	return New(DefaultConfig(), opts...)
}

func ingestAll(m *Mind, raws ...string) {
	for _, r := range raws {
		m.Ingest(context.Background(), r)
	}
}

type failingStore struct{}

func (failingStore) Save(state.Snapshot) error {
	return state.Errorf(state.KindPersistenceWriteFailed, "save", "disk full")
}

func (failingStore) Load() (*state.Snapshot, error) {
	return nil, state.Errorf(state.KindPersistenceReadFailed, "load", "unreadable")
}

// #endregion helpers

// #region scenario-tests

func TestGreetingScenario(t *testing.T) {
	m := newMind(t)
	ingestAll(m, "Hello?", "Hello?", "Hello?")

	actions := m.Cycle(context.Background())

	truths := m.Truths()
	if len(truths) != 1 {
		t.Fatalf("expected 1 truth, got %d", len(truths))
	}
	if truths[0].Concept != synthesis.ConceptGreeting || truths[0].Confidence != 0.9 {
		t.Errorf("unexpected truth %+v", truths[0])
	}
	if len(truths[0].SupportingFrames) != 3 {
		t.Errorf("expected 3 supporting frames, got %d", len(truths[0].SupportingFrames))
	}

	hyps := m.Hypotheses()
	if len(hyps) != 1 || !strings.Contains(hyps[0].Prediction, "expecting") || hyps[0].TruthID != truths[0].ID {
		t.Errorf("unexpected hypotheses %+v", hyps)
	}

	if len(actions) != 1 || actions[0].Intent != goals.IntentRespondToGreeting {
		t.Errorf("expected one RespondToGreeting action, got %+v", actions)
	}
	if !strings.Contains(m.Self().Understanding, "\n- Learned: "+truths[0].Principle) {
		t.Errorf("understanding not updated: %q", m.Self().Understanding)
	}
	if m.CycleCount() != 1 {
		t.Errorf("expected cycle 1, got %d", m.CycleCount())
	}
}

func TestSeedPhenomenaYieldNoTruths(t *testing.T) {
	m := newMind(t)
	ingestAll(m, SeedPhenomena...)

	m.Cycle(context.Background())

	if n := len(m.Truths()); n != 0 {
		t.Errorf("expected 0 truths, got %d", n)
	}
	if n := len(m.Hypotheses()); n != 0 {
		t.Errorf("expected 0 hypotheses, got %d", n)
	}
}

func TestTwoAgentShare(t *testing.T) {
	ctx := context.Background()
	a := newMind(t)
	b := newMind(t)
	ingestAll(a, "Hello", "Hello", "Hello")
	ingestAll(b, "Hello", "Hello", "Hello")
	a.Cycle(ctx)
	b.Cycle(ctx)

	before := b.Truths()[0]
	res := b.IntegrateTruths(ctx, a.AgentID(), a.Truths(), 0.6)
	if res.Reinforced != 1 || res.Added != 0 {
		t.Fatalf("expected one reinforcement, got %+v", res)
	}

	after := b.Truths()
	if len(after) != 1 {
		t.Fatalf("expected 1 truth, got %d", len(after))
	}
	want := math.Min(1, before.Confidence+0.9*0.6)
	if after[0].Confidence != want {
		t.Errorf("expected confidence %f, got %f", want, after[0].Confidence)
	}
	if after[0].ID != before.ID {
		t.Error("local truth ID must be retained")
	}
	if len(after[0].SupportingFrames) != 6 {
		t.Errorf("expected union of 6 frames, got %d", len(after[0].SupportingFrames))
	}
}

func TestIntegrateAddsNovelTruth(t *testing.T) {
	m := newMind(t)
	res := m.IntegrateTruths(context.Background(), "peer", []state.Truth{{ID: "x", Concept: "NumericStream", Principle: "numbers", Confidence: 0.7}}, 0.6)
	if res.Added != 1 {
		t.Fatalf("expected one added truth, got %+v", res)
	}
	if got, ok := m.Truth("x"); !ok || got.Confidence != 0.7 {
		t.Errorf("expected inserted truth unchanged, got %+v", got)
	}
}

// #endregion scenario-tests

// #region invariant-tests

func TestDedupAcrossCycles(t *testing.T) {
	ctx := context.Background()
	m := newMind(t)
	ingestAll(m, "Hello", "Hello", "Hello", "1,2", "3,4")

	first := m.CycleDetailed(ctx)
	if len(first.NewTruths) != 2 {
		t.Fatalf("expected 2 new truths, got %d", len(first.NewTruths))
	}
	for i := 0; i < 3; i++ {
		r := m.CycleDetailed(ctx)
		if len(r.NewTruths) != 0 || len(r.NewHypotheses) != 0 {
			t.Errorf("cycle %d re-derived known principles: %+v", r.Cycle, r.NewTruths)
		}
		if len(r.Invariants) != 0 {
			t.Errorf("cycle %d invariant failures: %v", r.Cycle, r.Invariants)
		}
	}
	if len(m.Truths()) != 2 || len(m.Hypotheses()) != 2 {
		t.Errorf("expected 2 truths and 2 hypotheses, got %d and %d", len(m.Truths()), len(m.Hypotheses()))
	}
}

func TestTooFewFramesIsNoop(t *testing.T) {
	m := newMind(t)
	ingestAll(m, "Hello")

	r := m.CycleDetailed(context.Background())
	if len(r.NewTruths) != 0 || len(r.NewHypotheses) != 0 {
		t.Errorf("expected nothing learned, got %+v", r)
	}
	if len(r.Actions) != 1 {
		t.Errorf("deliberation still runs, expected 1 action, got %d", len(r.Actions))
	}
}

func TestHypothesisViolation(t *testing.T) {
	ctx := context.Background()
	m := newMind(t)
	ingestAll(m, "Hello", "Hello", "Hello")
	m.Cycle(ctx)
	surpriseBefore := m.Emotions()[emotion.Surprise]

	f := m.Ingest(ctx, "2,4,8")
	if f.Salience != 1 {
		t.Errorf("expected surprise to push salience to 1, got %f", f.Salience)
	}
	h := m.Hypotheses()[0]
	if !h.Violated || h.Confidence != 0.45 {
		t.Errorf("expected violated hypothesis at 0.45, got %+v", h)
	}
	if m.Emotions()[emotion.Surprise] <= surpriseBefore {
		t.Error("expected surprise to rise")
	}

	m.Ingest(ctx, "Hello response")
	again := m.Hypotheses()[0]
	if !again.Violated || again.Confidence != 0.45 {
		t.Errorf("violation must be permanent, got %+v", again)
	}
}

func TestIngestLinksSimilarFrames(t *testing.T) {
	ctx := context.Background()
	m := newMind(t)
	first := m.Ingest(ctx, "Hello")
	second := m.Ingest(ctx, "Hello")

	if !second.Connections.Contains(first.ID) {
		t.Errorf("identical inputs must link, got %v", second.Connections)
	}
	if len(first.Connections) != 0 {
		t.Error("links are recorded on the new frame only")
	}
}

func TestGoalRelevanceBoost(t *testing.T) {
	m := newMind(t)
	f := m.Ingest(context.Background(), "a repeating pattern")
	if f.Salience != 1 {
		t.Errorf("expected boost by goal priority to 1, got %f", f.Salience)
	}
}

func TestShareTrustWeightZeroIsKept(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShareTrustWeight = 0
	if got := New(cfg).ShareTrustWeight(); got != 0 {
		t.Errorf("configured trust 0 replaced with %f", got)
	}

	cfg.ShareTrustWeight = -1
	if got := New(cfg).ShareTrustWeight(); got != DefaultConfig().ShareTrustWeight {
		t.Errorf("negative trust should fall back to the default, got %f", got)
	}
}

func TestIngestBeforeCycleIsVisible(t *testing.T) {
	m := newMind(t)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Ingest(context.Background(), "Hello?")
		}()
	}
	wg.Wait()

	r := m.CycleDetailed(context.Background())
	if len(r.NewTruths) != 1 || r.NewTruths[0].Concept != synthesis.ConceptGreeting {
		t.Errorf("cycle did not see completed ingests: %+v", r.NewTruths)
	}
}

func TestConcurrentOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	src := newMind(t)
	ingestAll(src, "Hello?", "Hello?", "Hello?", "1,2", "3,4")
	src.Cycle(ctx)
	shared := src.Truths()
	if len(shared) == 0 {
		t.Fatal("source agent derived no truths")
	}

	m := newMind(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			m.Ingest(ctx, "Hello?")
		}()
		go func() {
			defer wg.Done()
			m.Cycle(ctx)
		}()
		go func() {
			defer wg.Done()
			m.IntegrateTruths(ctx, src.AgentID(), shared, 0.6)
			_ = m.Summary()
		}()
	}
	wg.Wait()
	m.Cycle(ctx)

	seen := make(map[string]bool)
	for _, tr := range m.Truths() {
		if seen[tr.Principle] {
			t.Errorf("duplicate principle %q", tr.Principle)
		}
		seen[tr.Principle] = true
		if tr.Confidence < 0 || tr.Confidence > 1 {
			t.Errorf("truth %s confidence out of range: %f", tr.ID, tr.Confidence)
		}
	}
	for _, h := range m.Hypotheses() {
		if h.Confidence < 0 || h.Confidence > 1 {
			t.Errorf("hypothesis %s confidence out of range: %f", h.ID, h.Confidence)
		}
	}
	for _, tr := range shared {
		if !seen[tr.Principle] {
			t.Errorf("shared principle %q missing after integration", tr.Principle)
		}
	}
}

// #endregion invariant-tests

// #region continuity-tests

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := continuity.NewFileStore(t.TempDir(), "agent-rt")
	cfg := DefaultConfig()
	cfg.AgentID = "agent-rt"

	a := New(cfg, WithStore(store))
	ingestAll(a, "Hello", "Hello", "Hello", "7,8", "9,10")
	a.Cycle(ctx)
	a.Ingest(ctx, "silence")

	if err := a.Persist(ctx); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	b := New(cfg, WithStore(store))
	if err := b.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	ignore := cmpopts.IgnoreFields(state.Snapshot{}, "SavedAt")
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot(), ignore); diff != "" {
		t.Errorf("restored state mismatch (-want +got):\n%s", diff)
	}

	// restoring again changes nothing
	if err := b.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot(), ignore); diff != "" {
		t.Errorf("second restore drifted (-want +got):\n%s", diff)
	}
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	m := New(DefaultConfig(), WithStore(continuity.NewFileStore(t.TempDir(), "fresh")))
	if err := m.Restore(context.Background()); err != nil {
		t.Errorf("missing snapshot should not be an error: %v", err)
	}
	if m.CycleCount() != 0 || len(m.Frames()) != 0 {
		t.Error("fresh agent expected")
	}
}

func TestPersistenceFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	m := newMind(t, WithStore(failingStore{}))
	ingestAll(m, "Hello", "Hello", "Hello")

	r := m.CycleDetailed(ctx)
	if state.KindOf(r.PersistErr) != state.KindPersistenceWriteFailed {
		t.Errorf("expected write failure to be reported, got %v", r.PersistErr)
	}
	if len(r.Actions) != 1 || len(m.Truths()) != 1 {
		t.Error("cycle must complete despite persistence failure")
	}

	err := m.Restore(ctx)
	if state.KindOf(err) != state.KindPersistenceReadFailed {
		t.Errorf("expected read failure, got %v", err)
	}
	if len(m.Truths()) != 1 {
		t.Error("failed restore must leave state untouched")
	}
}

func TestPersistWithoutStore(t *testing.T) {
	err := newMind(t).Persist(context.Background())
	if state.KindOf(err) != state.KindPreconditionUnmet {
		t.Errorf("expected precondition error, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	m := newMind(t)
	ingestAll(m, "Hello", "Hello", "Hello")
	m.Cycle(ctx)
	saved := m.Snapshot()

	ingestAll(m, "1", "2")
	m.Cycle(ctx)
	if len(m.Truths()) != 2 {
		t.Fatalf("expected 2 truths before replace, got %d", len(m.Truths()))
	}

	m.Replace(saved)
	if len(m.Truths()) != 1 || len(m.Frames()) != 3 || m.CycleCount() != 1 {
		t.Errorf("replace did not restore the saved state: %d truths, %d frames, cycle %d",
			len(m.Truths()), len(m.Frames()), m.CycleCount())
	}

	// the next cycle validates against the replaced state, not the discarded one
	if r := m.CycleDetailed(ctx); len(r.Invariants) != 0 {
		t.Errorf("unexpected invariant failures after replace: %v", r.Invariants)
	}
}

func TestArchiveRecordsHistory(t *testing.T) {
	ctx := context.Background()
	archive, err := continuity.OpenArchive(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer archive.Close()

	m := newMind(t, WithArchive(archive))
	ingestAll(m, "Hello", "Hello", "Hello")
	r := m.CycleDetailed(ctx)
	if r.VersionID == "" {
		t.Fatal("expected an archive version")
	}

	refs, err := archive.Reflections(10)
	if err != nil || len(refs) != 1 || refs[0].Text != synthesis.Detectors[0].Principle {
		t.Errorf("expected one reflection, got %+v, %v", refs, err)
	}

	var logged int
	if err := archive.DB().Get(&logged, `SELECT COUNT(*) FROM cycle_log WHERE version_id = ?`, r.VersionID); err != nil {
		t.Fatalf("count cycle_log: %v", err)
	}
	if logged != 1 {
		t.Errorf("expected 1 cycle_log row, got %d", logged)
	}
}

// #endregion continuity-tests

// #region summary-tests

func TestSummary(t *testing.T) {
	m := newMind(t)
	s := m.Summary()
	for _, want := range []string{
		"--- CosmicMind Summary ---",
		"ID: " + m.AgentID(),
		"Identity: Unit-X535",
		"Telos: Comprehend the environment and reduce uncertainty",
		"Cycle Count: 0",
		"Frames count: 0",
		"Active goals: 1",
		"--- End Summary ---",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestRelated(t *testing.T) {
	ctx := context.Background()
	m := newMind(t)
	first := m.Ingest(ctx, "Hello")
	m.Ingest(ctx, "Hello")
	m.Ingest(ctx, "zzzz unrelated 42")

	related := m.Related(first.ID, 3, 10)
	if len(related) != 2 {
		t.Errorf("expected the frame and its twin, got %d", len(related))
	}
	if len(m.Related("missing", 3, 10)) != 0 {
		t.Error("unknown frame should have no relations")
	}
}

// #endregion summary-tests
