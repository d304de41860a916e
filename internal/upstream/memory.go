package upstream

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// MemoryRepository keeps accounts in process memory with numeric ids, the
// way the complaint service's relational store hands them out.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]*Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]*Account)}
}

func (r *MemoryRepository) Create(_ context.Context, acc *Account) (*Account, error) {
	key := strings.ToLower(acc.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[key]; exists {
		return nil, ErrAccountExists
	}
	r.nextID++
	stored := cloneAccount(acc)
	stored.ID = strconv.FormatInt(r.nextID, 10)
	r.byEmail[key] = stored
	return cloneAccount(stored), nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(acc), nil
}
