// Package leads archives completed lead records. The archive is a
// best-effort supplement to fan-out delivery: a save failure is logged and
// never blocks the conversation.
package leads

import (
	"context"
	"sync"
)

// Repository stores completed leads.
type Repository interface {
	Save(ctx context.Context, lead *Lead) error
}

// InMemoryRepository keeps leads in memory; used in tests and when no
// database is configured but an archive is still wanted.
type InMemoryRepository struct {
	mu    sync.RWMutex
	next  int64
	leads map[int64]*Lead
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{leads: make(map[int64]*Lead)}
}

// Save assigns an id and stores a copy of the lead.
func (r *InMemoryRepository) Save(ctx context.Context, lead *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	stored := *lead
	stored.ID = r.next
	r.leads[stored.ID] = &stored
	lead.ID = stored.ID
	return nil
}

// Len returns the number of archived leads.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

// Get returns an archived lead by id.
func (r *InMemoryRepository) Get(id int64) (*Lead, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[id]
	return lead, ok
}
