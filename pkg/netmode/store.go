package netmode

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sentry-hq/conduit/pkg/comm"
)

// schema holds the singleton state row (id=1 enforced by CHECK) and the
// append-only history, indexed for newest-first reads.
const schema = `
CREATE TABLE IF NOT EXISTS network_mode_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    mode TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    updated_by TEXT NOT NULL,
    metadata_json TEXT
);

CREATE TABLE IF NOT EXISTS network_mode_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    previous_mode TEXT NOT NULL,
    new_mode TEXT NOT NULL,
    changed_at INTEGER NOT NULL,
    changed_by TEXT NOT NULL,
    reason TEXT,
    metadata_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_mode_history_changed_at
    ON network_mode_history(changed_at DESC);
`

// State is the persisted current mode.
type State struct {
	Mode      Mode           `json:"mode"`
	UpdatedAt time.Time      `json:"updated_at"`
	UpdatedBy string         `json:"updated_by"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TransitionRecord is one row of the append-only mode history.
type TransitionRecord struct {
	ID           int64          `json:"id"`
	PreviousMode Mode           `json:"previous_mode"`
	NewMode      Mode           `json:"new_mode"`
	ChangedAt    time.Time      `json:"changed_at"`
	ChangedBy    string         `json:"changed_by"`
	Reason       string         `json:"reason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Store persists mode state and history in SQLite. Timestamps are stored
// as UTC epoch-milliseconds.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the mode database at path.
// Use ":memory:" for an ephemeral store in tests.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open mode store: %w", err)
	}
	// The singleton row plus history append happen in one transaction;
	// a single writer connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mode schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load reads the current state. Returns nil when no state has ever been
// written.
func (s *Store) Load(ctx context.Context) (*State, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT mode, updated_at, updated_by, metadata_json FROM network_mode_state WHERE id = 1`)

	var (
		mode      string
		updatedAt int64
		updatedBy string
		metaJSON  sql.NullString
	)
	err := row.Scan(&mode, &updatedAt, &updatedBy, &metaJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mode state: %w", err)
	}

	return &State{
		Mode:      Mode(mode),
		UpdatedAt: comm.FromMillis(updatedAt),
		UpdatedBy: updatedBy,
		Metadata:  decodeMeta(metaJSON),
	}, nil
}

// Transition atomically writes the new state row and appends the history
// row. changedAt must already be disambiguated by the caller.
func (s *Store) Transition(ctx context.Context, rec TransitionRecord) (*TransitionRecord, error) {
	metaJSON, err := encodeMeta(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode transition metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mode transition: %w", err)
	}
	defer tx.Rollback()

	changedAtMs := comm.ToMillis(rec.ChangedAt)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO network_mode_state (id, mode, updated_at, updated_by, metadata_json)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by,
			metadata_json = excluded.metadata_json`,
		string(rec.NewMode), changedAtMs, rec.ChangedBy, metaJSON)
	if err != nil {
		return nil, fmt.Errorf("write mode state: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO network_mode_history
			(previous_mode, new_mode, changed_at, changed_by, reason, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(rec.PreviousMode), string(rec.NewMode), changedAtMs,
		rec.ChangedBy, rec.Reason, metaJSON)
	if err != nil {
		return nil, fmt.Errorf("append mode history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mode transition: %w", err)
	}

	rec.ID, _ = res.LastInsertId()
	return &rec, nil
}

// History returns transition records newest-first. Zero start/end disable
// the bound; a non-positive limit defaults to 100.
func (s *Store) History(ctx context.Context, limit int, start, end time.Time) ([]TransitionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, previous_mode, new_mode, changed_at, changed_by, reason, metadata_json
		FROM network_mode_history`
	var conds []string
	var args []any
	if !start.IsZero() {
		conds = append(conds, "changed_at >= ?")
		args = append(args, comm.ToMillis(start))
	}
	if !end.IsZero() {
		conds = append(conds, "changed_at <= ?")
		args = append(args, comm.ToMillis(end))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY changed_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mode history: %w", err)
	}
	defer rows.Close()

	var records []TransitionRecord
	for rows.Next() {
		var (
			rec       TransitionRecord
			prev, nw  string
			changedAt int64
			reason    sql.NullString
			metaJSON  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &prev, &nw, &changedAt, &rec.ChangedBy, &reason, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan mode history: %w", err)
		}
		rec.PreviousMode = Mode(prev)
		rec.NewMode = Mode(nw)
		rec.ChangedAt = comm.FromMillis(changedAt)
		rec.Reason = reason.String
		rec.Metadata = decodeMeta(metaJSON)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeMeta(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeMeta(ns sql.NullString) map[string]any {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil
	}
	return m
}
