package continuity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region file-store
// FileStore keeps the latest snapshot of one agent as a single JSON file.
type FileStore struct {
	dir     string
	agentID string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir, agentID string) *FileStore {
	return &FileStore{dir: dir, agentID: agentID}
}

// Path is the location of the snapshot file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, fmt.Sprintf("cosmicmind.%s.v%d.json", s.agentID, state.SchemaVersion))
}

// #endregion file-store

// #region save
// Save writes snap atomically: a temp file in the same directory is written,
// synced, and renamed over the target. On failure the previous file is intact.
func (s *FileStore) Save(snap state.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "create dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".cosmicmind-*.tmp")
	if err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return state.Errorf(state.KindPersistenceWriteFailed, "save", "rename: %w", err)
	}
	committed = true
	return nil
}

// #endregion save

// #region load
// Load reads the snapshot. A missing file is not an error: it returns nil, nil.
func (s *FileStore) Load() (*state.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, state.Errorf(state.KindPersistenceReadFailed, "load", "read: %w", err)
	}
	return Decode(data)
}

// Decode parses and validates snapshot bytes.
func Decode(data []byte) (*state.Snapshot, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, state.Errorf(state.KindPersistenceReadFailed, "load", "parse: %w", err)
	}
	if head.Version != state.SchemaVersion {
		return nil, state.Errorf(state.KindPersistenceReadFailed, "load",
			"version %d, want %d: %w", head.Version, state.SchemaVersion, state.ErrIncompatibleSchema)
	}

	var snap state.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, state.Errorf(state.KindPersistenceReadFailed, "load", "parse: %w", err)
	}
	normalize(&snap)
	return &snap, nil
}

// normalize restores set invariants on data that may have been edited by hand.
func normalize(snap *state.Snapshot) {
	for i := range snap.Frames {
		snap.Frames[i].Connections = snap.Frames[i].Connections.Normalize()
	}
	for i := range snap.Truths {
		snap.Truths[i].SupportingFrames = snap.Truths[i].SupportingFrames.Normalize()
	}
	snap.SelfConcept.CoreValues = snap.SelfConcept.CoreValues.Normalize()
	snap.SelfConcept.Limitations = snap.SelfConcept.Limitations.Normalize()
	if snap.SelfConcept.Goals == nil {
		snap.SelfConcept.Goals = make(map[string]state.Goal)
	}
}

// #endregion load
