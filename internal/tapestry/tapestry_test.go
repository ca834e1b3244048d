package tapestry

import (
	"testing"

	"github.com/danielpatrickdp/cosmicmind/internal/qualia"
	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

func frame(id string, salience float64, links ...string) state.Frame {
	return state.Frame{
		ID:          id,
		RawInput:    "raw " + id,
		Salience:    salience,
		Signature:   qualia.Signature{salience, 0},
		Connections: state.NewIDSet(links...),
	}
}

// #region test-put
func TestPutIsIdempotentLastWriteWins(t *testing.T) {
	tp := New()
	tp.Put(frame("a", 0.5))
	tp.Put(frame("b", 0.5))
	tp.Put(frame("a", 0.9))

	if tp.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", tp.Len())
	}
	got, ok := tp.Get("a")
	if !ok || got.Salience != 0.9 {
		t.Fatalf("expected updated salience 0.9, got %+v", got)
	}
	list := tp.List()
	if list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("replacement must keep insertion position, got %s,%s", list[0].ID, list[1].ID)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	tp := New()
	tp.Put(frame("a", 0.5, "x"))
	f, _ := tp.Get("a")
	f.Connections[0] = "mutated"
	again, _ := tp.Get("a")
	if again.Connections[0] != "x" {
		t.Error("Get must return an independent copy")
	}
}

// #endregion test-put

// #region test-focus
func TestFocusOrdersBySalienceStable(t *testing.T) {
	tp := New()
	tp.Put(frame("low", 0.2))
	tp.Put(frame("tie1", 0.7))
	tp.Put(frame("high", 1.0))
	tp.Put(frame("tie2", 0.7))

	focus := tp.Focus(3)
	if len(focus) != 3 {
		t.Fatalf("expected 3, got %d", len(focus))
	}
	want := []string{"high", "tie1", "tie2"}
	for i, id := range want {
		if focus[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, focus[i].ID)
		}
	}
}

func TestFocusLargerThanTapestry(t *testing.T) {
	tp := New()
	tp.Put(frame("only", 0.5))
	if got := len(tp.Focus(12)); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := len(New().Focus(12)); got != 0 {
		t.Errorf("expected empty focus, got %d", got)
	}
}

// #endregion test-focus

// #region test-similar
func TestSimilarUsesStrictThreshold(t *testing.T) {
	tp := New()
	tp.Put(state.Frame{ID: "near", Signature: qualia.Signature{0, 0}})
	tp.Put(state.Frame{ID: "edge", Signature: qualia.Signature{0.45, 0}})
	tp.Put(state.Frame{ID: "short", Signature: qualia.Signature{0}})

	ids := tp.Similar(qualia.Signature{0, 0}, 0.45)
	if len(ids) != 1 || ids[0] != "near" {
		t.Errorf("expected only 'near', got %v", ids)
	}
}

// #endregion test-similar

// #region test-walk
func TestWalkFollowsLinksBothWays(t *testing.T) {
	tp := New()
	tp.Put(frame("a", 0.5))
	tp.Put(frame("b", 0.5, "a"))
	tp.Put(frame("c", 0.5, "b"))
	tp.Put(frame("d", 0.5))

	res := tp.Walk("a", 5, 10)
	if len(res.IDs) != 3 {
		t.Fatalf("expected a,b,c, got %v", res.IDs)
	}
	if res.IDs[1] != "b" || res.Depths[1] != 1 {
		t.Errorf("expected b at depth 1, got %s@%d", res.IDs[1], res.Depths[1])
	}
	if res.IDs[2] != "c" || res.Depths[2] != 2 {
		t.Errorf("expected c at depth 2, got %s@%d", res.IDs[2], res.Depths[2])
	}
}

func TestWalkLimits(t *testing.T) {
	tp := New()
	tp.Put(frame("a", 0.5))
	tp.Put(frame("b", 0.5, "a"))
	tp.Put(frame("c", 0.5, "b"))

	if res := tp.Walk("a", 1, 10); len(res.IDs) != 2 {
		t.Errorf("maxDepth=1: expected 2 nodes, got %v", res.IDs)
	}
	if res := tp.Walk("a", 5, 2); len(res.IDs) != 2 {
		t.Errorf("maxNodes=2: expected 2 nodes, got %v", res.IDs)
	}
	if res := tp.Walk("missing", 5, 5); len(res.IDs) != 0 {
		t.Errorf("unknown entry: expected empty walk, got %v", res.IDs)
	}
}

// #endregion test-walk
