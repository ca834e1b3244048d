package logging

import "github.com/zoobzio/capitan"

// Signal definitions for engine events.
// Signals follow the pattern: mind.<entity>.<event>.
var (
	// Ingestion.
	FrameIngested = capitan.NewSignal(
		"mind.frame.ingested",
		"Input event turned into a frame and woven into the tapestry",
	)
	HypothesisViolated = capitan.NewSignal(
		"mind.hypothesis.violated",
		"A frame contradicted a live hypothesis",
	)

	// Cycle stages.
	TruthDerived = capitan.NewSignal(
		"mind.truth.derived",
		"Synthesis produced a new truth",
	)
	HypothesisFormed = capitan.NewSignal(
		"mind.hypothesis.formed",
		"A new hypothesis was derived from a truth",
	)
	GoalAdjusted = capitan.NewSignal(
		"mind.goal.adjusted",
		"A truth raised a goal's priority",
	)
	ActionChosen = capitan.NewSignal(
		"mind.action.chosen",
		"Deliberation produced an action",
	)
	CycleCompleted = capitan.NewSignal(
		"mind.cycle.completed",
		"Cognition cycle finished",
	)
	InvariantFailed = capitan.NewSignal(
		"mind.invariant.failed",
		"Post-cycle state check found a violation",
	)

	// Continuity.
	PersistFailed = capitan.NewSignal(
		"mind.persist.failed",
		"Snapshot could not be written",
	)
	RestoreFailed = capitan.NewSignal(
		"mind.restore.failed",
		"Snapshot could not be read",
	)

	// Peers.
	PeerReceived = capitan.NewSignal(
		"mind.peer.received",
		"Envelope received from a peer",
	)
	PeerDecodeFailed = capitan.NewSignal(
		"mind.peer.decode_failed",
		"Inbound peer bytes or payload could not be decoded",
	)
	TruthsIntegrated = capitan.NewSignal(
		"mind.truths.integrated",
		"Shared truths merged into the local set",
	)
	PeerSendFailed = capitan.NewSignal(
		"mind.peer.send_failed",
		"Outbound envelope could not be delivered",
	)
)

// Field keys for engine event data.
var (
	FieldAgentID   = capitan.NewStringKey("agent_id")
	FieldFrameID   = capitan.NewStringKey("frame_id")
	FieldTruthID   = capitan.NewStringKey("truth_id")
	FieldHypID     = capitan.NewStringKey("hypothesis_id")
	FieldGoalID    = capitan.NewStringKey("goal_id")
	FieldConcept   = capitan.NewStringKey("concept")
	FieldIntent    = capitan.NewStringKey("intent")
	FieldPeer      = capitan.NewStringKey("peer")
	FieldEnvelope  = capitan.NewStringKey("envelope_type")
	FieldInvariant = capitan.NewStringKey("invariant")
	FieldDetail    = capitan.NewStringKey("detail")

	FieldCycle    = capitan.NewIntKey("cycle")
	FieldLinks    = capitan.NewIntKey("links")
	FieldCount    = capitan.NewIntKey("count")
	FieldNew      = capitan.NewIntKey("new_truths")
	FieldMerged   = capitan.NewIntKey("merged_truths")
	FieldFocusLen = capitan.NewIntKey("focus")

	FieldSalience   = capitan.NewFloat32Key("salience")
	FieldConfidence = capitan.NewFloat32Key("confidence")
	FieldPriority   = capitan.NewFloat32Key("priority")

	FieldDuration = capitan.NewDurationKey("duration")
	FieldError    = capitan.NewErrorKey("error")
)

// catalog names every signal the bridge forwards.
var catalog = []struct {
	signal capitan.Signal
	name   string
}{
	{FrameIngested, "mind.frame.ingested"},
	{HypothesisViolated, "mind.hypothesis.violated"},
	{TruthDerived, "mind.truth.derived"},
	{HypothesisFormed, "mind.hypothesis.formed"},
	{GoalAdjusted, "mind.goal.adjusted"},
	{ActionChosen, "mind.action.chosen"},
	{CycleCompleted, "mind.cycle.completed"},
	{InvariantFailed, "mind.invariant.failed"},
	{PersistFailed, "mind.persist.failed"},
	{RestoreFailed, "mind.restore.failed"},
	{PeerReceived, "mind.peer.received"},
	{PeerDecodeFailed, "mind.peer.decode_failed"},
	{TruthsIntegrated, "mind.truths.integrated"},
	{PeerSendFailed, "mind.peer.send_failed"},
}
