package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the evidence database schema.
// Timestamps are stored as UTC epoch-milliseconds.
const Schema = `
-- Evidence records table
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL UNIQUE,

    connector_kind TEXT NOT NULL,
    operation TEXT NOT NULL,

    -- JSON-encoded whitelisted summaries; full payloads are never stored
    request_summary TEXT NOT NULL,
    response_summary TEXT,

    status TEXT NOT NULL,
    metadata TEXT,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for the search and stats paths
CREATE INDEX IF NOT EXISTS idx_evidence_created_at ON evidence(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_evidence_connector_kind ON evidence(connector_kind);
CREATE INDEX IF NOT EXISTS idx_evidence_status ON evidence(status);
CREATE INDEX IF NOT EXISTS idx_evidence_operation ON evidence(operation);
`

// UpsertRecord inserts a record or, when the request_id already exists,
// updates only the mutable columns.
const UpsertRecord = `
INSERT INTO evidence (
    id, request_id, connector_kind, operation,
    request_summary, response_summary, status, metadata,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(request_id) DO UPDATE SET
    response_summary = excluded.response_summary,
    status = excluded.status,
    metadata = excluded.metadata,
    updated_at = excluded.updated_at;
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
