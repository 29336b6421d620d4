package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/evidence"
)

// MemoryStorage implements evidence.Storage with an in-memory map. It is
// intended for tests and ephemeral deployments; records do not survive a
// restart.
type MemoryStorage struct {
	mu        sync.RWMutex
	byRequest map[string]*evidence.EvidenceRecord
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byRequest: make(map[string]*evidence.EvidenceRecord),
	}
}

// Save upserts by request_id with the same immutability contract as the
// SQLite backend.
func (s *MemoryStorage) Save(_ context.Context, record *evidence.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byRequest[record.RequestID]; ok {
		existing.ResponseSummary = cloneMap(record.ResponseSummary)
		existing.Status = record.Status
		existing.Metadata = cloneMap(record.Metadata)
		existing.UpdatedAt = record.UpdatedAt
		return nil
	}

	clone := cloneRecord(record)
	s.byRequest[record.RequestID] = clone
	return nil
}

// Get returns the record with the given record ID.
func (s *MemoryStorage) Get(_ context.Context, id string) (*evidence.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.byRequest {
		if rec.ID == id {
			return cloneRecord(rec), nil
		}
	}
	return nil, evidence.NewNotFoundError("id", id)
}

// GetByRequest returns the record for a request ID.
func (s *MemoryStorage) GetByRequest(_ context.Context, requestID string) (*evidence.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byRequest[requestID]
	if !ok {
		return nil, evidence.NewNotFoundError("request_id", requestID)
	}
	return cloneRecord(rec), nil
}

// Search returns matching records, newest first.
func (s *MemoryStorage) Search(_ context.Context, filters evidence.Filters, limit int) ([]*evidence.EvidenceRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	var matched []*evidence.EvidenceRecord
	for _, rec := range s.byRequest {
		if matches(rec, filters) {
			matched = append(matched, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the total number of records.
func (s *MemoryStorage) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byRequest)), nil
}

// CountByStatus returns the number of records in one status.
func (s *MemoryStorage) CountByStatus(_ context.Context, status comm.RequestStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, rec := range s.byRequest {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

// StatsByConnector returns record counts keyed by connector kind.
func (s *MemoryStorage) StatsByConnector(_ context.Context) (map[comm.ConnectorKind]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(map[comm.ConnectorKind]int64)
	for _, rec := range s.byRequest {
		stats[rec.ConnectorKind]++
	}
	return stats, nil
}

// PurgeOlderThan deletes records created before the cutoff.
func (s *MemoryStorage) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for requestID, rec := range s.byRequest {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.byRequest, requestID)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStorage) Close() error { return nil }

func matches(rec *evidence.EvidenceRecord, f evidence.Filters) bool {
	if f.ConnectorKind != "" && rec.ConnectorKind != f.ConnectorKind {
		return false
	}
	if f.Operation != "" && rec.Operation != f.Operation {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Start != nil && rec.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && rec.CreatedAt.After(*f.End) {
		return false
	}
	return true
}

func cloneRecord(rec *evidence.EvidenceRecord) *evidence.EvidenceRecord {
	clone := *rec
	clone.RequestSummary = cloneMap(rec.RequestSummary)
	clone.ResponseSummary = cloneMap(rec.ResponseSummary)
	clone.Metadata = cloneMap(rec.Metadata)
	return &clone
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
