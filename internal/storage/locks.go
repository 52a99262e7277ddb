package storage

import "sync"

// accountLocks is a registry of per-account mutexes. Locks are never removed;
// the set of accounts in one process is small and bounded.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for accountID and returns its unlock function.
func (a *accountLocks) lock(accountID int64) func() {
	a.mu.Lock()
	m, ok := a.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		a.locks[accountID] = m
	}
	a.mu.Unlock()

	m.Lock()
	return m.Unlock
}
