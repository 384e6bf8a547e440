package enginepool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// writerWeight exceeds any realistic number of concurrent readers.
const writerWeight = 1 << 30

// rwLock is a context-aware reader/writer lock. Waiters are served in
// arrival order, so a queued writer holds back readers that come after it.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *rwLock {
	return &rwLock{sem: semaphore.NewWeighted(writerWeight)}
}

func (l *rwLock) RLock(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *rwLock) RUnlock() {
	l.sem.Release(1)
}

func (l *rwLock) Lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, writerWeight)
}

func (l *rwLock) Unlock() {
	l.sem.Release(writerWeight)
}
