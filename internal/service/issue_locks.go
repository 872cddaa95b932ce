package service

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// issueLocks hands out one weighted semaphore per issue id so that
// operations on the same issue run one at a time inside this process while
// different issues proceed in parallel. Entries are refcounted and dropped
// once the last holder or waiter releases.
type issueLocks struct {
	mu    sync.Mutex
	locks map[string]*issueLock
}

type issueLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newIssueLocks() *issueLocks {
	return &issueLocks{locks: make(map[string]*issueLock)}
}

// acquire blocks until the issue lock is held or ctx is done. The returned
// release func must be called exactly once on success.
func (l *issueLocks) acquire(ctx context.Context, issueID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[issueID]
	if !ok {
		entry = &issueLock{sem: semaphore.NewWeighted(1)}
		l.locks[issueID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.unref(issueID, entry)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			l.unref(issueID, entry)
		})
	}, nil
}

func (l *issueLocks) unref(issueID string, entry *issueLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, issueID)
	}
}

// size reports the number of live entries.
func (l *issueLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
