package history

import (
	"context"
	"sync"
)

// MemoryRepository is the in-memory implementation used in tests and local
// runs without Postgres.
type MemoryRepository struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.CallID == rec.CallID {
			return nil
		}
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepository) UpdateRecording(ctx context.Context, callID, recordingURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].CallID == callID {
			if r.records[i].RecordingURL == "" {
				r.records[i].RecordingURL = recordingURL
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) ListByVisitor(ctx context.Context, visitorID string, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].VisitorID != visitorID {
			continue
		}
		out = append(out, r.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetByCallID(ctx context.Context, callID string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.CallID == callID {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}
