package lockdown

import (
	"context"
	"sync"
)

// StatusCache memoizes IsFinalized answers. It is never the source of truth:
// the store evicts an entry before each durable write and refills it after,
// and drops whole courses on bulk cancel. Entries never expire.
type StatusCache interface {
	Get(ctx context.Context, courseID, username string) (finalized bool, ok bool, err error)
	Set(ctx context.Context, courseID, username string, finalized bool) error
	Delete(ctx context.Context, courseID, username string) error
	InvalidateCourse(ctx context.Context, courseID string) error
}

// MemoryCache is a process-local StatusCache. Only safe for single-process
// deployments; use RedisCache or NoCache otherwise.
type MemoryCache struct {
	mu      sync.RWMutex
	courses map[string]map[string]bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{courses: map[string]map[string]bool{}}
}

func (m *MemoryCache) Get(ctx context.Context, courseID, username string) (bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users, ok := m.courses[courseID]
	if !ok {
		return false, false, nil
	}
	finalized, ok := users[username]
	return finalized, ok, nil
}

func (m *MemoryCache) Set(ctx context.Context, courseID, username string, finalized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	users, ok := m.courses[courseID]
	if !ok {
		users = map[string]bool{}
		m.courses[courseID] = users
	}
	users[username] = finalized
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, courseID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.courses[courseID], username)
	return nil
}

func (m *MemoryCache) InvalidateCourse(ctx context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.courses, courseID)
	return nil
}

// NoCache disables caching; every lookup goes to durable storage.
type NoCache struct{}

func (NoCache) Get(ctx context.Context, courseID, username string) (bool, bool, error) {
	return false, false, nil
}

func (NoCache) Set(ctx context.Context, courseID, username string, finalized bool) error {
	return nil
}

func (NoCache) Delete(ctx context.Context, courseID, username string) error { return nil }

func (NoCache) InvalidateCourse(ctx context.Context, courseID string) error { return nil }
