package continuity

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tempArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveEmptyCurrent(t *testing.T) {
	a := tempArchive(t)
	if _, err := a.Current(); !errors.Is(err, ErrNoVersions) {
		t.Errorf("expected ErrNoVersions, got %v", err)
	}
}

func TestArchiveCommitAndCurrent(t *testing.T) {
	a := tempArchive(t)
	snap := sampleSnapshot()

	v1, err := a.Commit(snap)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v1.ParentID != "" {
		t.Errorf("first version must have no parent, got %s", v1.ParentID)
	}
	if v1.TruthCount != 1 || v1.FrameCount != 2 || v1.CycleCount != 4 {
		t.Errorf("unexpected counts %+v", v1)
	}

	snap.CycleCount = 5
	v2, err := a.Commit(snap)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if v2.ParentID != v1.VersionID {
		t.Errorf("expected parent %s, got %s", v1.VersionID, v2.ParentID)
	}

	cur, err := a.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.VersionID != v2.VersionID || cur.CycleCount != 5 {
		t.Errorf("expected v2 active, got %+v", cur)
	}

	loaded, err := a.Load(v1.VersionID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := sampleSnapshot()
	if diff := cmp.Diff(want, *loaded); diff != "" {
		t.Errorf("archived snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveListAndRollback(t *testing.T) {
	a := tempArchive(t)
	snap := sampleSnapshot()
	v1, _ := a.Commit(snap)
	snap.CycleCount = 9
	a.Commit(snap)

	versions, err := a.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(versions) != 2 || versions[0].CycleCount != 9 {
		t.Fatalf("expected newest first, got %+v", versions)
	}

	restored, err := a.Rollback(v1.VersionID)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if restored.CycleCount != 4 {
		t.Errorf("expected cycle 4 after rollback, got %d", restored.CycleCount)
	}
	cur, _ := a.Current()
	if cur.VersionID != v1.VersionID {
		t.Errorf("active pointer not moved: %s", cur.VersionID)
	}

	if _, err := a.Rollback("missing"); err == nil {
		t.Error("expected error for unknown version")
	}
}

func TestArchiveReflections(t *testing.T) {
	a := tempArchive(t)
	v, _ := a.Commit(sampleSnapshot())

	if err := a.AddReflection(v.VersionID, 1, "first"); err != nil {
		t.Fatalf("AddReflection: %v", err)
	}
	if err := a.AddReflection(v.VersionID, 2, "second"); err != nil {
		t.Fatalf("AddReflection: %v", err)
	}

	refs, err := a.Reflections(1)
	if err != nil {
		t.Fatalf("Reflections: %v", err)
	}
	if len(refs) != 1 || refs[0].Text != "second" || refs[0].Cycle != 2 {
		t.Errorf("expected latest reflection, got %+v", refs)
	}
	if refs[0].CreatedAt.IsZero() {
		t.Error("expected timestamp")
	}
}
