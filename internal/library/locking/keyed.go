// Package locking provides the per-book exclusive locks that serialize all
// stock mutations for a given book.
package locking

import (
	"context"
	"sync"
	"time"

	"github.com/tair/library-ledger/internal/library/domain"
)

// KeyedLock hands out one exclusive lock per key with a bounded acquisition
// wait. A caller that cannot take the lock within the configured wait gets
// domain.ErrBusy instead of blocking indefinitely. Locks are never removed
// from the table; the set of live books is small and stable.
type KeyedLock struct {
	mu      sync.Mutex
	locks   map[uint]chan struct{}
	maxWait time.Duration
}

// New creates a KeyedLock whose Acquire waits at most maxWait.
func New(maxWait time.Duration) *KeyedLock {
	return &KeyedLock{
		locks:   make(map[uint]chan struct{}),
		maxWait: maxWait,
	}
}

func (k *KeyedLock) lockFor(key uint) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	return ch
}

// Acquire takes the exclusive lock for key. It returns a release function on
// success. Cancellation is honored only while waiting: once the lock is held
// the critical section runs to completion. Timeout yields domain.ErrBusy,
// context cancellation yields the context error.
func (k *KeyedLock) Acquire(ctx context.Context, key uint) (release func(), err error) {
	ch := k.lockFor(key)

	timer := time.NewTimer(k.maxWait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-ch })
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrBusy
	}
}
