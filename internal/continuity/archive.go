package continuity

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/cosmicmind/internal/state"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS snapshot_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	agent_id      TEXT NOT NULL,
	cycle_count   INTEGER NOT NULL,
	truth_count   INTEGER NOT NULL,
	frame_count   INTEGER NOT NULL,
	snapshot_json TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES snapshot_versions(version_id)
);

CREATE TABLE IF NOT EXISTS cycle_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id     TEXT NOT NULL,
	cycle          INTEGER NOT NULL,
	focus_ids      TEXT,
	new_truths     TEXT,
	new_hypotheses TEXT,
	adjustments    TEXT,
	intent         TEXT,
	reason         TEXT,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES snapshot_versions(version_id)
);

CREATE TABLE IF NOT EXISTS reflections (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id  TEXT NOT NULL,
	cycle       INTEGER NOT NULL,
	text        TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES snapshot_versions(version_id)
);
`

// #endregion schema

// ErrNoVersions is returned by Current before the first commit.
var ErrNoVersions = errors.New("archive has no versions")

// #region types
// Version describes one archived snapshot.
type Version struct {
	VersionID  string
	ParentID   string
	AgentID    string
	CycleCount int
	TruthCount int
	FrameCount int
	CreatedAt  time.Time
}

// Reflection is one learned principle noted by a cycle.
type Reflection struct {
	VersionID string
	Cycle     int
	Text      string
	CreatedAt time.Time
}

type versionRow struct {
	VersionID  string         `db:"version_id"`
	ParentID   sql.NullString `db:"parent_id"`
	AgentID    string         `db:"agent_id"`
	CycleCount int            `db:"cycle_count"`
	TruthCount int            `db:"truth_count"`
	FrameCount int            `db:"frame_count"`
	CreatedAt  string         `db:"created_at"`
}

func (r versionRow) version() Version {
	v := Version{
		VersionID:  r.VersionID,
		AgentID:    r.AgentID,
		CycleCount: r.CycleCount,
		TruthCount: r.TruthCount,
		FrameCount: r.FrameCount,
	}
	if r.ParentID.Valid {
		v.ParentID = r.ParentID.String
	}
	v.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	return v
}

type reflectionRow struct {
	VersionID string `db:"version_id"`
	Cycle     int    `db:"cycle"`
	Text      string `db:"text"`
	CreatedAt string `db:"created_at"`
}

// #endregion types

// #region archive
// Archive keeps every committed snapshot in SQLite with an active pointer,
// so the agent can list its history and roll back.
type Archive struct {
	db *sqlx.DB
}

// OpenArchive opens a SQLite database and runs migrations.
func OpenArchive(dbPath string) (*Archive, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// DB returns the underlying handle for use by other packages (e.g. logging).
func (a *Archive) DB() *sqlx.DB {
	return a.db
}

// #endregion archive

// #region commit
// Commit stores snap as a new version whose parent is the current active
// version, and moves the active pointer to it.
func (a *Archive) Commit(snap state.Snapshot) (Version, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return Version{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := a.db.Beginx()
	if err != nil {
		return Version{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.Get(&parent, `SELECT version_id FROM active_snapshot WHERE id = 1`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("get active: %w", err)
	}

	v := Version{
		VersionID:  uuid.New().String(),
		ParentID:   parent.String,
		AgentID:    snap.AgentID,
		CycleCount: snap.CycleCount,
		TruthCount: len(snap.Truths),
		FrameCount: len(snap.Frames),
		CreatedAt:  time.Now().UTC(),
	}

	_, err = tx.Exec(
		`INSERT INTO snapshot_versions
		 (version_id, parent_id, agent_id, cycle_count, truth_count, frame_count, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VersionID, parent, v.AgentID, v.CycleCount, v.TruthCount, v.FrameCount,
		string(data), v.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_snapshot (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		v.VersionID,
	)
	if err != nil {
		return Version{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Version{}, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}

// #endregion commit

// #region read
// Current returns the active version.
func (a *Archive) Current() (Version, error) {
	var id string
	err := a.db.Get(&id, `SELECT version_id FROM active_snapshot WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, ErrNoVersions
	}
	if err != nil {
		return Version{}, fmt.Errorf("get active: %w", err)
	}
	return a.Version(id)
}

// Version retrieves a specific version's metadata.
func (a *Archive) Version(id string) (Version, error) {
	var row versionRow
	err := a.db.Get(&row,
		`SELECT version_id, parent_id, agent_id, cycle_count, truth_count, frame_count, created_at
		 FROM snapshot_versions WHERE version_id = ?`, id)
	if err != nil {
		return Version{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return row.version(), nil
}

// Load decodes the snapshot stored under a version.
func (a *Archive) Load(id string) (*state.Snapshot, error) {
	var data string
	err := a.db.Get(&data, `SELECT snapshot_json FROM snapshot_versions WHERE version_id = ?`, id)
	if err != nil {
		return nil, state.Errorf(state.KindPersistenceReadFailed, "archive load", "version %s: %w", id, err)
	}
	return Decode([]byte(data))
}

// List returns the most recent versions, newest first.
func (a *Archive) List(limit int) ([]Version, error) {
	var rows []versionRow
	err := a.db.Select(&rows,
		`SELECT version_id, parent_id, agent_id, cycle_count, truth_count, frame_count, created_at
		 FROM snapshot_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	out := make([]Version, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.version())
	}
	return out, nil
}

// #endregion read

// #region rollback
// Rollback moves the active pointer to a previous version and returns its
// snapshot.
func (a *Archive) Rollback(targetVersionID string) (*state.Snapshot, error) {
	var exists int
	err := a.db.Get(&exists, `SELECT COUNT(*) FROM snapshot_versions WHERE version_id = ?`, targetVersionID)
	if err != nil {
		return nil, fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("version %s not found", targetVersionID)
	}

	snap, err := a.Load(targetVersionID)
	if err != nil {
		return nil, err
	}
	if _, err := a.db.Exec(`UPDATE active_snapshot SET version_id = ? WHERE id = 1`, targetVersionID); err != nil {
		return nil, fmt.Errorf("rollback: %w", err)
	}
	return snap, nil
}

// #endregion rollback

// #region reflections
// AddReflection records a learned principle against a version.
func (a *Archive) AddReflection(versionID string, cycle int, text string) error {
	_, err := a.db.Exec(
		`INSERT INTO reflections (version_id, cycle, text, created_at) VALUES (?, ?, ?, ?)`,
		versionID, cycle, text, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert reflection: %w", err)
	}
	return nil
}

// Reflections returns the most recent reflections, newest first.
func (a *Archive) Reflections(limit int) ([]Reflection, error) {
	var rows []reflectionRow
	err := a.db.Select(&rows,
		`SELECT version_id, cycle, text, created_at FROM reflections ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	out := make([]Reflection, 0, len(rows))
	for _, r := range rows {
		ref := Reflection{VersionID: r.VersionID, Cycle: r.Cycle, Text: r.Text}
		ref.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
		out = append(out, ref)
	}
	return out, nil
}

// #endregion reflections
