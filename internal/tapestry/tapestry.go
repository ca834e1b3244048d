package tapestry

import (
	"sort"

	"github.com/danielpatrickdp/cosmicmind/internal/qualia"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region types
// Tapestry owns every frame, keyed by identity, in insertion order.
// It is not safe for concurrent use; the engine serializes access.
type Tapestry struct {
	frames map[string]state.Frame
	order  []string
}

// WalkResult holds an ordered path from a walk over similarity links.
type WalkResult struct {
	IDs    []string // frame IDs in visit order
	Depths []int    // hop count from the entry frame
}

// #endregion types

// #region constructor
// New returns an empty tapestry.
func New() *Tapestry {
	return &Tapestry{frames: make(map[string]state.Frame)}
}

// #endregion constructor

// #region put
// Put inserts or replaces a frame by ID. Last write wins; a replaced frame
// keeps its original position.
func (t *Tapestry) Put(f state.Frame) {
	if _, exists := t.frames[f.ID]; !exists {
		t.order = append(t.order, f.ID)
	}
	t.frames[f.ID] = f.Clone()
}

// #endregion put

// #region read
// Get returns a copy of the frame with the given ID.
func (t *Tapestry) Get(id string) (state.Frame, bool) {
	f, ok := t.frames[id]
	if !ok {
		return state.Frame{}, false
	}
	return f.Clone(), true
}

// Len returns the number of frames.
func (t *Tapestry) Len() int {
	return len(t.order)
}

// List returns copies of all frames in insertion order.
func (t *Tapestry) List() []state.Frame {
	out := make([]state.Frame, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.frames[id].Clone())
	}
	return out
}

// #endregion read

// #region focus
// Focus returns the k most salient frames, highest first. Equal salience keeps
// insertion order.
func (t *Tapestry) Focus(k int) []state.Frame {
	all := t.List()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Salience > all[j].Salience
	})
	if k >= 0 && k < len(all) {
		all = all[:k]
	}
	return all
}

// #endregion focus

// #region similar
// Similar returns the IDs of frames whose signature lies strictly within
// threshold of sig, in insertion order.
func (t *Tapestry) Similar(sig qualia.Signature, threshold float64) []string {
	var ids []string
	for _, id := range t.order {
		if qualia.Within(sig, t.frames[id].Signature, threshold) {
			ids = append(ids, id)
		}
	}
	return ids
}

// #endregion similar

// #region walk
// Walk performs a BFS from entryID over recorded connections in both
// directions, up to maxDepth hops and maxNodes total.
func (t *Tapestry) Walk(entryID string, maxDepth, maxNodes int) WalkResult {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxNodes <= 0 {
		maxNodes = 10
	}
	if _, ok := t.frames[entryID]; !ok {
		return WalkResult{}
	}

	// Links are recorded on the newer frame only, so build the reverse index.
	reverse := make(map[string][]string)
	for _, id := range t.order {
		for _, target := range t.frames[id].Connections {
			reverse[target] = append(reverse[target], id)
		}
	}

	result := WalkResult{IDs: []string{entryID}, Depths: []int{0}}
	visited := map[string]bool{entryID: true}

	type queueItem struct {
		id    string
		depth int
	}
	queue := []queueItem{{entryID, 0}}

	for len(queue) > 0 && len(result.IDs) < maxNodes {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}

		neighbors := append(append([]string(nil), t.frames[current.id].Connections...), reverse[current.id]...)
		for _, next := range neighbors {
			if len(result.IDs) >= maxNodes {
				break
			}
			if visited[next] {
				continue
			}
			if _, ok := t.frames[next]; !ok {
				continue
			}
			visited[next] = true
			result.IDs = append(result.IDs, next)
			result.Depths = append(result.Depths, current.depth+1)
			queue = append(queue, queueItem{next, current.depth + 1})
		}
	}
	return result
}

// #endregion walk
