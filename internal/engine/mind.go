package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"

	"github.com/danielpatrickdp/cosmicmind/internal/continuity"
	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/eval"
	"github.com/danielpatrickdp/cosmicmind/internal/logging"
	"github.com/danielpatrickdp/cosmicmind/internal/monitor"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
	"github.com/danielpatrickdp/cosmicmind/internal/tapestry"
)

// #region interfaces
// Store persists the latest snapshot.
type Store interface {
	Save(snap state.Snapshot) error
	Load() (*state.Snapshot, error)
}

// #endregion interfaces

// #region mind
// Mind is the cognitive state engine of one agent. One mutex guards the
// whole aggregate, so Ingest, Cycle, Restore, Replace, and IntegrateTruths
// are applied in lock-acquisition order.
type Mind struct {
	mu sync.Mutex

	cfg      Config
	tapestry *tapestry.Tapestry

	truths      map[string]state.Truth
	truthOrder  []string
	byPrinciple map[string]string // principle → truth ID

	hypotheses map[string]state.Hypothesis
	hypOrder   []string

	self     state.SelfConcept
	emotions emotion.Matrix
	cycle    int
	pending  []state.Action

	monitor  *monitor.Monitor
	harness  *eval.EvalHarness
	lastSnap *state.Snapshot

	store   Store
	archive *continuity.Archive
	now     func() time.Time
}

// Option configures a Mind.
type Option func(*Mind)

// WithStore sets the snapshot store written after every cycle.
func WithStore(s Store) Option {
	return func(m *Mind) { m.store = s }
}

// WithArchive enables versioned history, reflections, and cycle provenance.
func WithArchive(a *continuity.Archive) Option {
	return func(m *Mind) { m.archive = a }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Mind) { m.now = now }
}

// New creates an agent from cfg. Zero tuning values fall back to defaults,
// except ShareTrustWeight where zero means peers are not trusted at all.
func New(cfg Config, opts ...Option) *Mind {
	def := DefaultConfig()
	if cfg.AgentID == "" {
		cfg.AgentID = uuid.NewString()
	}
	if cfg.FocusSize <= 0 {
		cfg.FocusSize = def.FocusSize
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.ShareTrustWeight < 0 {
		cfg.ShareTrustWeight = def.ShareTrustWeight
	}

	m := &Mind{
		cfg:      cfg,
		monitor:  monitor.New(monitor.DefaultConfig()),
		harness:  eval.NewEvalHarness(),
		now:      func() time.Time { return time.Now().UTC() },
		emotions: emotion.NewMatrix(),
	}
	m.reset()
	m.self = state.SelfConcept{
		Identity:      cfg.Identity,
		CoreValues:    state.NewIDSet(cfg.CoreValues...),
		Limitations:   state.NewIDSet(cfg.Limitations...),
		Understanding: cfg.Understanding,
		Goals:         make(map[string]state.Goal, len(cfg.Goals)),
	}
	for _, g := range cfg.Goals {
		id := uuid.NewString()
		m.self.Goals[id] = state.Goal{ID: id, Description: g.Description, Priority: emotion.Clamp(g.Priority), Status: state.GoalActive}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// reset clears the frame, truth, and hypothesis stores.
func (m *Mind) reset() {
	m.tapestry = tapestry.New()
	m.truths = make(map[string]state.Truth)
	m.truthOrder = nil
	m.byPrinciple = make(map[string]string)
	m.hypotheses = make(map[string]state.Hypothesis)
	m.hypOrder = nil
	m.pending = nil
	m.lastSnap = nil
}

// #endregion mind

// #region accessors
// AgentID returns the agent's identity.
func (m *Mind) AgentID() string { return m.cfg.AgentID }

// Identity returns the self-concept label.
func (m *Mind) Identity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.self.Identity
}

// Telos returns the agent's purpose statement.
func (m *Mind) Telos() string { return m.cfg.Telos }

// Ethics returns the agent's ethical framework.
func (m *Mind) Ethics() []string { return append([]string(nil), m.cfg.Ethics...) }

// ShareTrustWeight is the trust applied to truths shared by peers.
func (m *Mind) ShareTrustWeight() float64 { return m.cfg.ShareTrustWeight }

// Frames returns copies of all frames in insertion order.
func (m *Mind) Frames() []state.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tapestry.List()
}

// Frame returns one frame by ID.
func (m *Mind) Frame(id string) (state.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tapestry.Get(id)
}

// Related walks similarity links from a frame.
func (m *Mind) Related(id string, maxDepth, maxNodes int) []state.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.tapestry.Walk(id, maxDepth, maxNodes)
	out := make([]state.Frame, 0, len(res.IDs))
	for _, fid := range res.IDs {
		if f, ok := m.tapestry.Get(fid); ok {
			out = append(out, f)
		}
	}
	return out
}

// Truths returns copies of all truths in derivation order.
func (m *Mind) Truths() []state.Truth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.truthsLocked()
}

// Truth returns one truth by ID.
func (m *Mind) Truth(id string) (state.Truth, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.truths[id]
	return t.Clone(), ok
}

// Hypotheses returns all hypotheses in formation order.
func (m *Mind) Hypotheses() []state.Hypothesis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hypothesesLocked()
}

// Self returns a copy of the self-concept.
func (m *Mind) Self() state.SelfConcept {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.self.Clone()
}

// Emotions returns the current emotional intensities.
func (m *Mind) Emotions() map[emotion.Emotion]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emotions.Map()
}

// CycleCount returns the number of completed cycles.
func (m *Mind) CycleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycle
}

func (m *Mind) truthsLocked() []state.Truth {
	out := make([]state.Truth, 0, len(m.truthOrder))
	for _, id := range m.truthOrder {
		out = append(out, m.truths[id].Clone())
	}
	return out
}

func (m *Mind) hypothesesLocked() []state.Hypothesis {
	out := make([]state.Hypothesis, 0, len(m.hypOrder))
	for _, id := range m.hypOrder {
		out = append(out, m.hypotheses[id])
	}
	return out
}

// #endregion accessors

// #region summary
// Summary renders a human-readable status block.
func (m *Mind) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for _, g := range m.self.Goals {
		if g.Status == state.GoalActive {
			active++
		}
	}
	lines := []string{
		"--- CosmicMind Summary ---",
		fmt.Sprintf("ID: %s", m.cfg.AgentID),
		fmt.Sprintf("Identity: %s", m.self.Identity),
		fmt.Sprintf("Telos: %s", m.cfg.Telos),
		fmt.Sprintf("Cycle Count: %d", m.cycle),
		fmt.Sprintf("Frames count: %d", m.tapestry.Len()),
		fmt.Sprintf("Derived truths: %d", len(m.truths)),
		fmt.Sprintf("Active hypotheses: %d", len(m.hypotheses)),
		fmt.Sprintf("Active goals: %d", active),
		fmt.Sprintf("Emotional state: %s", m.emotions.Describe()),
		"--- End Summary ---",
	}
	return strings.Join(lines, "\n")
}

// #endregion summary

// #region snapshot
// Snapshot captures the full engine state.
func (m *Mind) Snapshot() state.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Mind) snapshotLocked() state.Snapshot {
	return state.Snapshot{
		Version:     state.SchemaVersion,
		AgentID:     m.cfg.AgentID,
		SavedAt:     m.now(),
		Frames:      m.tapestry.List(),
		Truths:      m.truthsLocked(),
		Hypotheses:  m.hypothesesLocked(),
		SelfConcept: m.self.Clone(),
		Emotions:    m.emotions.Map(),
		CycleCount:  m.cycle,
	}
}

// Persist writes the current snapshot to the store immediately.
func (m *Mind) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return state.Errorf(state.KindPreconditionUnmet, "persist", "no store configured")
	}
	return m.persistLocked(ctx, m.snapshotLocked())
}

func (m *Mind) persistLocked(ctx context.Context, snap state.Snapshot) error {
	if err := m.store.Save(snap); err != nil {
		capitan.Error(ctx, logging.PersistFailed,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldCycle.Field(snap.CycleCount),
			logging.FieldError.Field(err),
		)
		return err
	}
	return nil
}

// #endregion snapshot

// #region restore
// Restore loads the stored snapshot, if any, and merges it into the live
// state. A missing snapshot is not an error. On failure the live state is
// left untouched.
func (m *Mind) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	snap, err := m.store.Load()
	if err != nil {
		capitan.Error(ctx, logging.RestoreFailed,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldError.Field(err),
		)
		return err
	}
	if snap == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeLocked(*snap)
	return nil
}

// Replace discards the live state and adopts snap wholesale.
func (m *Mind) Replace(snap state.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	m.mergeLocked(snap)
}

// mergeLocked inserts frames, truths, and hypotheses by identity and takes
// the snapshot's self-concept, emotions, and cycle counter. Applying the same
// snapshot twice yields the same state.
func (m *Mind) mergeLocked(snap state.Snapshot) {
	for _, f := range snap.Frames {
		m.tapestry.Put(f)
	}
	for _, t := range snap.Truths {
		if id, ok := m.byPrinciple[t.Principle]; ok && id != t.ID {
			continue
		}
		m.putTruthLocked(t)
	}
	for _, h := range snap.Hypotheses {
		// violation is one-way
		if cur, ok := m.hypotheses[h.ID]; ok && cur.Violated && !h.Violated {
			continue
		}
		m.putHypothesisLocked(h)
	}
	m.self = snap.SelfConcept.Clone()
	if m.self.Goals == nil {
		m.self.Goals = make(map[string]state.Goal)
	}
	m.emotions = emotion.FromMap(snap.Emotions)
	m.cycle = snap.CycleCount
	m.lastSnap = nil
}

// #endregion restore

// #region store-helpers
func (m *Mind) knownPrincipleLocked(principle string) bool {
	_, ok := m.byPrinciple[principle]
	return ok
}

// putTruthLocked inserts or replaces a truth by ID.
func (m *Mind) putTruthLocked(t state.Truth) {
	if old, ok := m.truths[t.ID]; ok {
		delete(m.byPrinciple, old.Principle)
	} else {
		m.truthOrder = append(m.truthOrder, t.ID)
	}
	m.truths[t.ID] = t.Clone()
	m.byPrinciple[t.Principle] = t.ID
}

func (m *Mind) putHypothesisLocked(h state.Hypothesis) {
	if _, ok := m.hypotheses[h.ID]; !ok {
		m.hypOrder = append(m.hypOrder, h.ID)
	}
	m.hypotheses[h.ID] = h
}

func (m *Mind) sortedGoalIDsLocked() []string {
	ids := make([]string, 0, len(m.self.Goals))
	for id := range m.self.Goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion store-helpers
