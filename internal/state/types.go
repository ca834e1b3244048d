package state

import (
	"strings"
	"time"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/qualia"
)

// #region frame
// Frame records one ingested event. Everything except Salience and
// Connections is fixed at creation.
type Frame struct {
	ID             string                      `json:"id"`
	Timestamp      time.Time                   `json:"timestamp"`
	RawInput       string                      `json:"raw_input"`
	Interpretation string                      `json:"interpretation"`
	Resonance      map[emotion.Emotion]float64 `json:"emotional_resonance"`
	Signature      qualia.Signature            `json:"qualia_signature"`
	Salience       float64                     `json:"salience"`
	Connections    IDSet                       `json:"connections"`
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := f
	if f.Resonance != nil {
		out.Resonance = make(map[emotion.Emotion]float64, len(f.Resonance))
		for e, v := range f.Resonance {
			out.Resonance[e] = v
		}
	}
	out.Signature = append(qualia.Signature(nil), f.Signature...)
	out.Connections = f.Connections.Clone()
	return out
}

// #endregion frame

// #region truth
// Truth is a generalization synthesized from several frames. Two truths with
// the same Principle are the same truth.
type Truth struct {
	ID               string  `json:"id"`
	Concept          string  `json:"core_concept"`
	SupportingFrames IDSet   `json:"supporting_frames"`
	Confidence       float64 `json:"confidence"`
	Principle        string  `json:"emergent_principle"`
}

// Clone returns a deep copy of the truth.
func (t Truth) Clone() Truth {
	out := t
	out.SupportingFrames = t.SupportingFrames.Clone()
	return out
}

// #endregion truth

// #region hypothesis
// Hypothesis is a falsifiable prediction backed by a truth. Violated only
// ever moves from false to true.
type Hypothesis struct {
	ID         string  `json:"id"`
	Prediction string  `json:"prediction"`
	TruthID    string  `json:"supporting_truth_id"`
	Confidence float64 `json:"confidence"`
	Violated   bool    `json:"is_violated"`
}

// #endregion hypothesis

// #region goal
// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalAchieved GoalStatus = "achieved"
	GoalFailed   GoalStatus = "failed"
)

// Goal is keyed by ID so priority can be mutated in place.
type Goal struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Priority    float64    `json:"priority"`
	Status      GoalStatus `json:"status"`
}

// LeadingKeyword is the lowercased first word of the description.
func (g Goal) LeadingKeyword() string {
	fields := strings.Fields(strings.ToLower(g.Description))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// TrailingKeyword is the last word of the description, case preserved.
func (g Goal) TrailingKeyword() string {
	fields := strings.Fields(g.Description)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// #endregion goal

// #region self-concept
// SelfConcept is the agent's identity, values, and goals.
type SelfConcept struct {
	Identity      string          `json:"identity"`
	CoreValues    IDSet           `json:"core_values"`
	Limitations   IDSet           `json:"perceived_limitations"`
	Understanding string          `json:"understanding_of_existence"`
	Goals         map[string]Goal `json:"active_goals"`
}

// Clone returns a deep copy of the self-concept.
func (s SelfConcept) Clone() SelfConcept {
	out := s
	out.CoreValues = s.CoreValues.Clone()
	out.Limitations = s.Limitations.Clone()
	out.Goals = make(map[string]Goal, len(s.Goals))
	for id, g := range s.Goals {
		out.Goals[id] = g
	}
	return out
}

// #endregion self-concept

// #region action
// Action is the one decision a cycle may produce.
type Action struct {
	Intent        string `json:"intent"`
	Payload       string `json:"payload"`
	Justification string `json:"justification"`
}

// #endregion action

// #region snapshot
// SchemaVersion is the continuity snapshot format version.
const SchemaVersion = 3

// Snapshot is the durable form of the whole engine.
type Snapshot struct {
	Version     int                         `json:"version"`
	AgentID     string                      `json:"agent_id"`
	SavedAt     time.Time                   `json:"saved_at"`
	Frames      []Frame                     `json:"frames"`
	Truths      []Truth                     `json:"truths"`
	Hypotheses  []Hypothesis                `json:"hypotheses"`
	SelfConcept SelfConcept                 `json:"self_concept"`
	Emotions    map[emotion.Emotion]float64 `json:"emotions"`
	CycleCount  int                         `json:"cycle_count"`
}

// #endregion snapshot
