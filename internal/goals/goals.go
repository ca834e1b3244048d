package goals

import (
	"sort"
	"strings"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region evaluate
// NudgeRate scales truth confidence into a priority increase.
const NudgeRate = 0.1

// Adjustment records one priority change caused by one truth.
type Adjustment struct {
	GoalID      string
	TruthID     string
	OldPriority float64
	NewPriority float64
}

// EvalResult is the outcome of Evaluate.
type EvalResult struct {
	Goals       map[string]state.Goal
	Adjustments []Adjustment
}

// Evaluate is a pure function: for every (truth, goal) pair where the truth's
// principle mentions the goal's leading keyword, the goal's priority rises by
// confidence*NudgeRate, clamped to [0, 1]. The input map is not modified.
func Evaluate(truths []state.Truth, goals map[string]state.Goal) EvalResult {
	out := make(map[string]state.Goal, len(goals))
	for id, g := range goals {
		out[id] = g
	}

	var adjustments []Adjustment
	for _, t := range truths {
		principle := strings.ToLower(t.Principle)
		for _, id := range sortedIDs(out) {
			g := out[id]
			kw := g.LeadingKeyword()
			if kw == "" || !strings.Contains(principle, kw) {
				continue
			}
			old := g.Priority
			g.Priority = emotion.Clamp(g.Priority + t.Confidence*NudgeRate)
			out[id] = g
			adjustments = append(adjustments, Adjustment{
				GoalID:      id,
				TruthID:     t.ID,
				OldPriority: old,
				NewPriority: g.Priority,
			})
		}
	}
	return EvalResult{Goals: out, Adjustments: adjustments}
}

// #endregion evaluate

// #region deliberate
// Intent names the kind of action a goal produces.
const (
	IntentRespondToGreeting = "RespondToGreeting"
	IntentProbe             = "Probe"
	IntentExplore           = "Explore"
)

// decision is one row of the deliberation table.
type decision struct {
	keywords []string
	action   state.Action
}

// decisionTable is checked in order against the lowercased goal description.
var decisionTable = []decision{
	{
		keywords: []string{"hello", "greeting"},
		action: state.Action{
			Intent:        IntentRespondToGreeting,
			Payload:       "Hello. I perceive your signal. What would you like to share?",
			Justification: "Acknowledgement will elicit further data to satisfy the goal.",
		},
	},
	{
		keywords: []string{"understand"},
		action: state.Action{
			Intent:        IntentProbe,
			Payload:       "Can you clarify the recent numeric sequence? Provide context.",
			Justification: "A direct probe reduces uncertainty for the active goal.",
		},
	},
}

var fallback = state.Action{
	Intent:        IntentExplore,
	Payload:       "Logging current state and requesting more data.",
	Justification: "General exploration to reduce overall uncertainty.",
}

// Deliberate picks the highest-priority active goal (ties broken by goal ID)
// and maps it to an action. It returns false when no goal is active.
func Deliberate(goals map[string]state.Goal) (state.Action, bool) {
	top, ok := topGoal(goals)
	if !ok {
		return state.Action{}, false
	}
	desc := strings.ToLower(top.Description)
	for _, d := range decisionTable {
		for _, kw := range d.keywords {
			if strings.Contains(desc, kw) {
				return d.action, true
			}
		}
	}
	return fallback, true
}

func topGoal(goals map[string]state.Goal) (state.Goal, bool) {
	var best state.Goal
	found := false
	for _, id := range sortedIDs(goals) {
		g := goals[id]
		if g.Status != state.GoalActive {
			continue
		}
		if !found || g.Priority > best.Priority {
			best = g
			found = true
		}
	}
	return best, found
}

// #endregion deliberate

func sortedIDs(goals map[string]state.Goal) []string {
	ids := make([]string, 0, len(goals))
	for id := range goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
