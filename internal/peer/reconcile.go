package peer

import (
	"math"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// Merge is one change Reconcile wants applied to the local truth set.
type Merge struct {
	Truth    state.Truth
	Existing bool // true when Truth replaces a local truth with the same ID
}

// Reconcile folds inbound truths into local under trust. A principle already
// held locally keeps its ID and concept, gains the union of supporting frames,
// and moves to min(1, local + inbound*trust). A new principle is inserted as
// received. trust is the sender's policy and is taken as given. Inbound
// truths without a principle are ignored. Neither input is modified.
func Reconcile(local, inbound []state.Truth, trust float64) []Merge {
	working := make(map[string]state.Truth, len(local))
	existing := make(map[string]bool, len(local))
	for _, t := range local {
		working[t.Principle] = t.Clone()
		existing[t.Principle] = true
	}

	var order []string
	touched := make(map[string]bool)
	for _, in := range inbound {
		if in.Principle == "" {
			continue
		}
		cur, ok := working[in.Principle]
		if ok {
			cur.SupportingFrames = cur.SupportingFrames.Union(in.SupportingFrames)
			cur.Confidence = math.Min(1, cur.Confidence+in.Confidence*trust)
		} else {
			cur = in.Clone()
			cur.SupportingFrames = cur.SupportingFrames.Normalize()
			if cur.ID == "" {
				cur.ID = uuid.NewString()
			}
		}
		working[in.Principle] = cur
		if !touched[in.Principle] {
			touched[in.Principle] = true
			order = append(order, in.Principle)
		}
	}

	out := make([]Merge, 0, len(order))
	for _, p := range order {
		out = append(out, Merge{Truth: working[p], Existing: existing[p]})
	}
	return out
}
