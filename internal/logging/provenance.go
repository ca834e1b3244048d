package logging

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// #region types
// CycleEntry is one row of the cycle_log table: what a cognition cycle saw,
// learned, and decided, tied to the archived snapshot it produced.
type CycleEntry struct {
	VersionID     string
	Cycle         int
	FocusIDs      []string
	NewTruths     []string // principles
	NewHypotheses []string // predictions
	Adjustments   []string // "goal_id:old->new"
	Intent        string
	Reason        string
	CreatedAt     time.Time
}

// Execer is satisfied by *sql.DB, *sql.Tx, and *sqlx.DB.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// #endregion types

// #region log-cycle
// LogCycle writes a provenance entry to the cycle_log table.
func LogCycle(db Execer, entry CycleEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO cycle_log (version_id, cycle, focus_ids, new_truths, new_hypotheses, adjustments, intent, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.VersionID,
		entry.Cycle,
		joinOrNull(entry.FocusIDs, ","),
		joinOrNull(entry.NewTruths, "\n"),
		joinOrNull(entry.NewHypotheses, "\n"),
		joinOrNull(entry.Adjustments, ","),
		nullIfEmpty(entry.Intent),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log cycle: %w", err)
	}
	return nil
}

// #endregion log-cycle

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func joinOrNull(parts []string, sep string) any {
	return nullIfEmpty(strings.Join(parts, sep))
}

// #endregion helpers
