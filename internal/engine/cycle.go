package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/goals"
	"github.com/danielpatrickdp/cosmicmind/internal/logging"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
	"github.com/danielpatrickdp/cosmicmind/internal/synthesis"
)

// learningInfluence is the emotional response to learning anything new.
var learningInfluence = map[emotion.Emotion]float64{
	emotion.Joy:       0.05,
	emotion.Curiosity: 0.02,
}

// CycleReport describes what one cycle did.
type CycleReport struct {
	Cycle         int
	Focus         []string
	NewTruths     []state.Truth
	NewHypotheses []state.Hypothesis
	Adjustments   []goals.Adjustment
	Actions       []state.Action
	Invariants    []string // failures, empty when clean
	PersistErr    error
	VersionID     string // archive version, when an archive is configured
}

// #region cycle
// Cycle runs one cognition cycle and returns the actions it decided on.
func (m *Mind) Cycle(ctx context.Context) []state.Action {
	return m.CycleDetailed(ctx).Actions
}

// CycleDetailed runs one cognition cycle in strict stage order: attend,
// synthesize, hypothesize, evaluate goals, deliberate, metamorphose,
// validate, persist. Failures in validation or persistence are reported
// and never abort the cycle.
func (m *Mind) CycleDetailed(ctx context.Context) CycleReport {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cycle++
	report := CycleReport{Cycle: m.cycle}

	// attend
	focus := m.tapestry.Focus(m.cfg.FocusSize)
	for _, f := range focus {
		report.Focus = append(report.Focus, f.ID)
	}

	// synthesize; fewer than two frames is a documented no-op
	candidates, _ := synthesis.Synthesize(focus, m.knownPrincipleLocked)
	for _, t := range candidates {
		if m.knownPrincipleLocked(t.Principle) {
			continue
		}
		m.putTruthLocked(t)
		report.NewTruths = append(report.NewTruths, t.Clone())
		capitan.Emit(ctx, logging.TruthDerived,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldTruthID.Field(t.ID),
			logging.FieldConcept.Field(t.Concept),
			logging.FieldConfidence.Field(float32(t.Confidence)),
		)
	}

	// hypothesize
	for _, h := range synthesis.DeriveHypotheses(report.NewTruths) {
		m.putHypothesisLocked(h)
		report.NewHypotheses = append(report.NewHypotheses, h)
		capitan.Emit(ctx, logging.HypothesisFormed,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldHypID.Field(h.ID),
			logging.FieldTruthID.Field(h.TruthID),
			logging.FieldConfidence.Field(float32(h.Confidence)),
		)
	}

	// evaluate goals
	evaluated := goals.Evaluate(report.NewTruths, m.self.Goals)
	m.self.Goals = evaluated.Goals
	report.Adjustments = evaluated.Adjustments
	for _, adj := range evaluated.Adjustments {
		capitan.Emit(ctx, logging.GoalAdjusted,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldGoalID.Field(adj.GoalID),
			logging.FieldTruthID.Field(adj.TruthID),
			logging.FieldPriority.Field(float32(adj.NewPriority)),
		)
	}

	// deliberate
	if action, ok := goals.Deliberate(m.self.Goals); ok {
		m.pending = append(m.pending, action)
		capitan.Emit(ctx, logging.ActionChosen,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldIntent.Field(action.Intent),
			logging.FieldDetail.Field(action.Payload),
		)
	}

	m.metamorphoseLocked(report.NewTruths, report.NewHypotheses)

	// validate
	snap := m.snapshotLocked()
	result := m.harness.Run(m.lastSnap, snap)
	report.Invariants = result.Failures
	for _, name := range result.Failed() {
		capitan.Error(ctx, logging.InvariantFailed,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldCycle.Field(m.cycle),
			logging.FieldInvariant.Field(name),
			logging.FieldDetail.Field(result.Reason),
		)
	}
	m.lastSnap = &snap

	// persist
	if m.store != nil {
		report.PersistErr = m.persistLocked(ctx, snap)
	}
	if m.archive != nil {
		report.VersionID = m.archiveLocked(ctx, snap, report)
	}

	report.Actions = m.pending
	m.pending = nil

	capitan.Emit(ctx, logging.CycleCompleted,
		logging.FieldAgentID.Field(m.cfg.AgentID),
		logging.FieldCycle.Field(m.cycle),
		logging.FieldFocusLen.Field(len(focus)),
		logging.FieldNew.Field(len(report.NewTruths)),
		logging.FieldCount.Field(len(report.Actions)),
		logging.FieldDuration.Field(time.Since(start)),
	)
	return report
}

// #endregion cycle

// #region metamorphose
// metamorphoseLocked records the first new principle in the self-concept
// and nudges the emotional state when anything new was learned.
func (m *Mind) metamorphoseLocked(truths []state.Truth, hypotheses []state.Hypothesis) {
	if len(truths) == 0 && len(hypotheses) == 0 {
		return
	}
	if len(truths) > 0 {
		m.self.Understanding += "\n- Learned: " + truths[0].Principle
	}
	m.emotions.Modulate(learningInfluence, learningWeight)
}

// #endregion metamorphose

// #region archive
// archiveLocked commits the snapshot to history, records reflections, and
// writes the cycle's provenance row. It returns the new version ID, or ""
// when the commit failed.
func (m *Mind) archiveLocked(ctx context.Context, snap state.Snapshot, report CycleReport) string {
	v, err := m.archive.Commit(snap)
	if err != nil {
		capitan.Error(ctx, logging.PersistFailed,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldCycle.Field(snap.CycleCount),
			logging.FieldError.Field(fmt.Errorf("archive commit: %w", err)),
		)
		return ""
	}

	for _, t := range report.NewTruths {
		if err := m.archive.AddReflection(v.VersionID, report.Cycle, t.Principle); err != nil {
			capitan.Error(ctx, logging.PersistFailed,
				logging.FieldAgentID.Field(m.cfg.AgentID),
				logging.FieldError.Field(err),
			)
		}
	}

	entry := logging.CycleEntry{
		VersionID: v.VersionID,
		Cycle:     report.Cycle,
		FocusIDs:  report.Focus,
	}
	for _, t := range report.NewTruths {
		entry.NewTruths = append(entry.NewTruths, t.Principle)
	}
	for _, h := range report.NewHypotheses {
		entry.NewHypotheses = append(entry.NewHypotheses, h.Prediction)
	}
	for _, a := range report.Adjustments {
		entry.Adjustments = append(entry.Adjustments, fmt.Sprintf("%s:%.2f->%.2f", a.GoalID, a.OldPriority, a.NewPriority))
	}
	if len(m.pending) > 0 {
		last := m.pending[len(m.pending)-1]
		entry.Intent = last.Intent
		entry.Reason = last.Justification
	}
	if err := logging.LogCycle(m.archive.DB(), entry); err != nil {
		capitan.Error(ctx, logging.PersistFailed,
			logging.FieldAgentID.Field(m.cfg.AgentID),
			logging.FieldError.Field(err),
		)
	}
	return v.VersionID
}

// #endregion archive
