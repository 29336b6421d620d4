package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/evidence"
)

// DefaultSearchLimit applies when Search is called with limit <= 0.
const DefaultSearchLimit = 100

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements evidence.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Save upserts by request_id. Insert fixes id, connector_kind, operation,
// request_summary, and created_at; a conflicting request_id updates only
// response_summary, status, metadata, and updated_at.
func (s *SQLiteStorage) Save(ctx context.Context, record *evidence.EvidenceRecord) error {
	requestSummary, err := json.Marshal(record.RequestSummary)
	if err != nil {
		return evidence.NewStorageError("sqlite", "save", fmt.Errorf("marshal request_summary: %w", err))
	}
	responseSummary, err := json.Marshal(record.ResponseSummary)
	if err != nil {
		return evidence.NewStorageError("sqlite", "save", fmt.Errorf("marshal response_summary: %w", err))
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return evidence.NewStorageError("sqlite", "save", fmt.Errorf("marshal metadata: %w", err))
	}

	_, err = s.db.ExecContext(ctx, UpsertRecord,
		record.ID,
		record.RequestID,
		string(record.ConnectorKind),
		record.Operation,
		string(requestSummary),
		string(responseSummary),
		string(record.Status),
		string(metadata),
		comm.ToMillis(record.CreatedAt),
		comm.ToMillis(record.UpdatedAt),
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "save", err)
	}
	return nil
}

const selectColumns = `id, request_id, connector_kind, operation,
request_summary, response_summary, status, metadata, created_at, updated_at`

// Get returns the record with the given record ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*evidence.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM evidence WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, evidence.NewNotFoundError("id", id)
	}
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "get", err)
	}
	return rec, nil
}

// GetByRequest returns the record for a request ID.
func (s *SQLiteStorage) GetByRequest(ctx context.Context, requestID string) (*evidence.EvidenceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM evidence WHERE request_id = ?", requestID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, evidence.NewNotFoundError("request_id", requestID)
	}
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "get_by_request", err)
	}
	return rec, nil
}

// Search returns matching records, newest first.
func (s *SQLiteStorage) Search(ctx context.Context, filters evidence.Filters, limit int) ([]*evidence.EvidenceRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	where, args := buildWhere(filters)
	query := "SELECT " + selectColumns + " FROM evidence" + where +
		" ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "search", err)
	}
	defer rows.Close()

	var out []*evidence.EvidenceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "search", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "search", err)
	}
	return out, nil
}

// Count returns the total number of records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence").Scan(&n)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// CountByStatus returns the number of records in one status.
func (s *SQLiteStorage) CountByStatus(ctx context.Context, status comm.RequestStatus) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM evidence WHERE status = ?", string(status)).Scan(&n)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "count_by_status", err)
	}
	return n, nil
}

// StatsByConnector returns record counts keyed by connector kind.
func (s *SQLiteStorage) StatsByConnector(ctx context.Context) (map[comm.ConnectorKind]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT connector_kind, COUNT(*) FROM evidence GROUP BY connector_kind")
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "stats_by_connector", err)
	}
	defer rows.Close()

	stats := make(map[comm.ConnectorKind]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, evidence.NewStorageError("sqlite", "stats_by_connector", err)
		}
		stats[comm.ConnectorKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "stats_by_connector", err)
	}
	return stats, nil
}

// PurgeOlderThan deletes records created before the cutoff.
func (s *SQLiteStorage) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM evidence WHERE created_at < ?", comm.ToMillis(cutoff))
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "purge", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "purge", err)
	}
	if deleted > 0 {
		s.logger.Info("purged evidence records", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	return nil
}

// buildWhere assembles the filter clause shared by Search.
func buildWhere(filters evidence.Filters) (string, []any) {
	var clauses []string
	var args []any

	if filters.ConnectorKind != "" {
		clauses = append(clauses, "connector_kind = ?")
		args = append(args, string(filters.ConnectorKind))
	}
	if filters.Operation != "" {
		clauses = append(clauses, "operation = ?")
		args = append(args, filters.Operation)
	}
	if filters.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filters.Status))
	}
	if filters.Start != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, comm.ToMillis(*filters.Start))
	}
	if filters.End != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, comm.ToMillis(*filters.End))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*evidence.EvidenceRecord, error) {
	var (
		rec             evidence.EvidenceRecord
		kind            string
		status          string
		requestSummary  string
		responseSummary sql.NullString
		metadata        sql.NullString
		createdAt       int64
		updatedAt       int64
	)
	err := sc.Scan(&rec.ID, &rec.RequestID, &kind, &rec.Operation,
		&requestSummary, &responseSummary, &status, &metadata,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.ConnectorKind = comm.ConnectorKind(kind)
	rec.Status = comm.RequestStatus(status)
	rec.CreatedAt = comm.FromMillis(createdAt)
	rec.UpdatedAt = comm.FromMillis(updatedAt)

	if err := json.Unmarshal([]byte(requestSummary), &rec.RequestSummary); err != nil {
		return nil, fmt.Errorf("unmarshal request_summary: %w", err)
	}
	if responseSummary.Valid && responseSummary.String != "" && responseSummary.String != "null" {
		if err := json.Unmarshal([]byte(responseSummary.String), &rec.ResponseSummary); err != nil {
			return nil, fmt.Errorf("unmarshal response_summary: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}
