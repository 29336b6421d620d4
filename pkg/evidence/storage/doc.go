// Package storage provides storage backends for evidence records.
//
// # Storage Backends
//
// Two implementations of evidence.Storage:
//
//   - SQLite: durable embedded database for single-node deployments
//   - Memory: in-memory storage for tests and ephemeral runs
//
// # SQLite Backend
//
// The SQLite backend provides durable storage with:
//
//   - WAL mode for concurrent reads/writes
//   - A UNIQUE constraint on request_id backing the upsert contract
//   - Indexes on created_at, connector_kind, status, and operation
//   - Busy timeout for handling locks
//
// Timestamps are stored as UTC epoch-milliseconds and converted back to
// time.Time on read.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path: "data/evidence.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Save(ctx, record)
//
//	records, err := store.Search(ctx, evidence.Filters{
//	    ConnectorKind: comm.KindWebFetch,
//	    Status:        comm.StatusSuccess,
//	}, 100)
//
// # Thread Safety
//
// Both backends are safe for concurrent use. Save for an existing
// request_id updates only the mutable columns, so concurrent progress
// updates for the same request cannot clobber the immutable ones.
package storage
