package creds

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/remotehelp/internal/common"
)

// InMemoryRepository keeps records in a map. Used by tests and available as
// a throwaway backend; it provides no durability.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*Record)}
}

func (r *InMemoryRepository) Get(ctx context.Context, username string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *InMemoryRepository) Put(ctx context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *record
	r.records[record.Username] = &cp
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[username]; !ok {
		return common.ErrorNotFound
	}
	delete(r.records, username)
	return nil
}
