package calls

import (
	"context"
	"sync"
)

// MemoryRepo is a bounded in-memory repository.
// Once MaxRecords is reached, inserting evicts the oldest record.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]*CallRecord
	order   []string
	max     int
}

func NewMemoryRepo(maxRecords int) *MemoryRepo {
	return &MemoryRepo{
		records: map[string]*CallRecord{},
		max:     maxRecords,
	}
}

func (r *MemoryRepo) Insert(ctx context.Context, rec CallRecord) error {
	if rec.CallID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.CallID]; ok {
		return ErrDuplicate
	}
	c := rec.clone()
	r.records[rec.CallID] = &c
	r.order = append(r.order, rec.CallID)

	for r.max > 0 && len(r.order) > r.max {
		delete(r.records, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, callID string) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[callID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return rec.clone(), nil
}

func (r *MemoryRepo) Update(ctx context.Context, callID string, fn func(r *CallRecord) error) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[callID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	next := rec.clone()
	if err := fn(&next); err != nil {
		return rec.clone(), err
	}
	// Identity fields are immutable.
	next.CallID, next.PhoneNumber, next.Purpose, next.CreatedAt = rec.CallID, rec.PhoneNumber, rec.Purpose, rec.CreatedAt
	*rec = next
	return next.clone(), nil
}

func (r *MemoryRepo) List(ctx context.Context, limit int) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.order
	if limit > 0 && limit < len(ids) {
		ids = ids[len(ids)-limit:]
	}
	out := make([]CallRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id].clone())
	}
	return out, nil
}

func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
