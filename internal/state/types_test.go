package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
)

func TestIDSetSortedAndUnique(t *testing.T) {
	s := NewIDSet("c", "a", "b", "a")
	if len(s) != 3 {
		t.Fatalf("expected 3 members, got %v", s)
	}
	for i, want := range []string{"a", "b", "c"} {
		if s[i] != want {
			t.Fatalf("expected sorted set, got %v", s)
		}
	}
	if !s.Contains("b") || s.Contains("z") {
		t.Errorf("contains mismatch for %v", s)
	}
}

func TestIDSetUnionDoesNotAlias(t *testing.T) {
	a := NewIDSet("f1", "f2")
	b := NewIDSet("f2", "f3")
	u := a.Union(b)
	if len(u) != 3 {
		t.Fatalf("expected 3, got %v", u)
	}
	u[0] = "mutated"
	if a[0] != "f1" {
		t.Error("union must not alias the receiver")
	}
}

func TestIDSetJSONIsArray(t *testing.T) {
	data, err := json.Marshal(NewIDSet("b", "a"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["a","b"]` {
		t.Errorf("unexpected json %s", data)
	}
}

func TestFrameCloneIsDeep(t *testing.T) {
	f := Frame{
		ID:          "f1",
		Resonance:   map[emotion.Emotion]float64{emotion.Joy: 0.3},
		Signature:   []float64{0.1, 0.2},
		Connections: NewIDSet("f0"),
	}
	c := f.Clone()
	c.Resonance[emotion.Joy] = 0.9
	c.Signature[0] = 9
	c.Connections[0] = "zz"

	if f.Resonance[emotion.Joy] != 0.3 || f.Signature[0] != 0.1 || f.Connections[0] != "f0" {
		t.Errorf("clone aliases original: %+v", f)
	}
}

func TestGoalKeywords(t *testing.T) {
	g := Goal{Description: "Understand 'Hello' greeting pattern"}
	if g.LeadingKeyword() != "understand" {
		t.Errorf("leading: got %q", g.LeadingKeyword())
	}
	if g.TrailingKeyword() != "pattern" {
		t.Errorf("trailing: got %q", g.TrailingKeyword())
	}
	if (Goal{}).LeadingKeyword() != "" {
		t.Error("empty description should have no keyword")
	}
}

func TestKindOf(t *testing.T) {
	err := Errorf(KindPersistenceReadFailed, "load", "parse: %w", io.ErrUnexpectedEOF)
	wrapped := fmt.Errorf("restore: %w", err)

	if KindOf(wrapped) != KindPersistenceReadFailed {
		t.Errorf("expected read kind, got %q", KindOf(wrapped))
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("expected cause to be reachable")
	}
	if KindOf(io.EOF) != "" {
		t.Error("plain errors have no kind")
	}
}
