package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/logging"
	"github.com/danielpatrickdp/cosmicmind/internal/monitor"
	"github.com/danielpatrickdp/cosmicmind/internal/perception"
	"github.com/danielpatrickdp/cosmicmind/internal/qualia"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region ingest
// Ingest turns raw input into a frame, checks it against live hypotheses,
// links it to similar frames, lets it move the emotional state, and stores
// it. The stored frame is returned.
func (m *Mind) Ingest(ctx context.Context, raw string) state.Frame {
	percept := perception.Perceive(raw)
	sig := qualia.Generate(raw, percept.Interpretation, percept.Resonance)

	m.mu.Lock()
	defer m.mu.Unlock()

	frame := state.Frame{
		ID:             uuid.NewString(),
		Timestamp:      m.now(),
		RawInput:       raw,
		Interpretation: percept.Interpretation,
		Resonance:      percept.Resonance,
		Signature:      sig,
		Salience:       initialSalience,
	}

	surprise := m.checkHypothesesLocked(ctx, frame)
	frame.Salience = emotion.Clamp(frame.Salience + surprise)

	m.weaveLocked(&frame)
	m.emotions.Modulate(frame.Resonance, resonanceWeight)
	m.tapestry.Put(frame)

	capitan.Emit(ctx, logging.FrameIngested,
		logging.FieldAgentID.Field(m.cfg.AgentID),
		logging.FieldFrameID.Field(frame.ID),
		logging.FieldSalience.Field(float32(frame.Salience)),
		logging.FieldLinks.Field(len(frame.Connections)),
		logging.FieldDetail.Field(frame.Interpretation),
	)
	return frame.Clone()
}

// #endregion ingest

// #region monitor
// checkHypothesesLocked writes back violated hypotheses, applies the
// emotional response per violation, and returns the accumulated surprise.
func (m *Mind) checkHypothesesLocked(ctx context.Context, frame state.Frame) float64 {
	res := m.monitor.Check(frame, m.hypothesesLocked())
	for _, h := range res.Updated {
		m.hypotheses[h.ID] = h
	}
	for _, v := range res.Violations {
		m.emotions.Modulate(monitor.ViolationInfluence, monitor.ViolationWeight)
		capitan.Emit(ctx, logging.HypothesisViolated,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldHypID.Field(v.HypothesisID),
			logging.FieldFrameID.Field(frame.ID),
			logging.FieldConfidence.Field(float32(v.PriorConfidence)),
			logging.FieldDetail.Field(v.Reason),
		)
	}
	return res.Surprise
}

// #endregion monitor

// #region weave
// weaveLocked boosts salience for frames that mention an active goal and
// records links to every existing frame within the similarity threshold.
func (m *Mind) weaveLocked(frame *state.Frame) {
	lower := strings.ToLower(frame.RawInput)
	for _, id := range m.sortedGoalIDsLocked() {
		g := m.self.Goals[id]
		if g.Status != state.GoalActive {
			continue
		}
		kw := strings.ToLower(g.TrailingKeyword())
		if kw != "" && strings.Contains(lower, kw) {
			frame.Salience = emotion.Clamp(frame.Salience + g.Priority)
		}
	}
	frame.Connections = state.NewIDSet(m.tapestry.Similar(frame.Signature, m.cfg.SimilarityThreshold)...)
}

// #endregion weave
