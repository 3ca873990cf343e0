// Package lock serialises access to per-player state. Blackjack sessions
// are not safe for concurrent use, so the table takes the player's lock
// around every session call.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a lock cannot be acquired in time.
var ErrLockTimeout = errors.New("lock acquisition timeout")

// PlayerLock holds one mutex per player id.
type PlayerLock struct {
	locks sync.Map // map[int64]*sync.Mutex
}

// NewPlayerLock creates an empty PlayerLock.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{}
}

func (pl *PlayerLock) get(playerID int64) *sync.Mutex {
	if v, ok := pl.locks.Load(playerID); ok {
		return v.(*sync.Mutex)
	}
	v, _ := pl.locks.LoadOrStore(playerID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Lock blocks until the player's lock is held.
func (pl *PlayerLock) Lock(playerID int64) {
	pl.get(playerID).Lock()
}

// Unlock releases the player's lock. Unlocking a player that was never
// locked is a no-op.
func (pl *PlayerLock) Unlock(playerID int64) {
	if v, ok := pl.locks.Load(playerID); ok {
		v.(*sync.Mutex).Unlock()
	}
}

// TryLock acquires the player's lock without blocking.
func (pl *PlayerLock) TryLock(playerID int64) bool {
	return pl.get(playerID).TryLock()
}

// LockWithTimeout waits up to timeout, or until ctx is done, for the lock.
func (pl *PlayerLock) LockWithTimeout(ctx context.Context, playerID int64, timeout time.Duration) bool {
	mu := pl.get(playerID)
	if mu.TryLock() {
		return true
	}

	done := make(chan struct{})
	go func() {
		mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return true
	case <-timeoutCtx.Done():
		// The waiter still gets the lock eventually; hand it straight back.
		go func() {
			<-done
			mu.Unlock()
		}()
		return false
	}
}

// WithLock runs fn while holding the player's lock.
func (pl *PlayerLock) WithLock(playerID int64, fn func() error) error {
	pl.Lock(playerID)
	defer pl.Unlock(playerID)
	return fn()
}

// WithLockContext runs fn while holding the player's lock, giving up with
// ErrLockTimeout after timeout.
func (pl *PlayerLock) WithLockContext(ctx context.Context, playerID int64, timeout time.Duration, fn func() error) error {
	if !pl.LockWithTimeout(ctx, playerID, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer pl.Unlock(playerID)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// IsLocked reports whether the player's lock is currently held. The answer
// may be stale as soon as it returns.
func (pl *PlayerLock) IsLocked(playerID int64) bool {
	v, ok := pl.locks.Load(playerID)
	if !ok {
		return false
	}
	mu := v.(*sync.Mutex)
	if mu.TryLock() {
		mu.Unlock()
		return false
	}
	return true
}
