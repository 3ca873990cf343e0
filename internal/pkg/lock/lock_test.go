package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Concurrent stake changes on one player must match their sequential sum.
func TestConcurrentStakeSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Float64Range(0, 10000).Draw(t, "start")
		deltas := rapid.SliceOfN(rapid.IntRange(-500, 500), 2, 20).Draw(t, "deltas")

		pl := NewPlayerLock()
		const playerID int64 = 7
		total := start
		want := start
		for _, d := range deltas {
			want += float64(d)
		}

		var wg sync.WaitGroup
		wg.Add(len(deltas))
		for _, d := range deltas {
			go func(d int) {
				defer wg.Done()
				_ = pl.WithLock(playerID, func() error {
					total += float64(d)
					return nil
				})
			}(d)
		}
		wg.Wait()

		if total != want {
			t.Fatalf("total mismatch: want %v, got %v", want, total)
		}
	})
}

// Players never contend with one another.
func TestPlayersAreIndependentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(1, 1_000_000).Draw(t, "a")
		b := rapid.Int64Range(1, 1_000_000).Filter(func(v int64) bool { return v != a }).Draw(t, "b")

		pl := NewPlayerLock()
		pl.Lock(a)
		defer pl.Unlock(a)

		if !pl.TryLock(b) {
			t.Fatalf("player %d blocked by player %d", b, a)
		}
		pl.Unlock(b)
	})
}

func TestTryLockSingleWinnerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		playerID := rapid.Int64Range(1, 1_000_000).Draw(t, "playerID")
		attempts := rapid.IntRange(5, 20).Draw(t, "attempts")

		pl := NewPlayerLock()
		pl.Lock(playerID)

		var won atomic.Int32
		var wg sync.WaitGroup
		wg.Add(attempts)
		for range attempts {
			go func() {
				defer wg.Done()
				if pl.TryLock(playerID) {
					won.Add(1)
				}
			}()
		}
		wg.Wait()
		pl.Unlock(playerID)

		if won.Load() != 0 {
			t.Fatalf("TryLock succeeded %d times on a held lock", won.Load())
		}
		if !pl.TryLock(playerID) {
			t.Fatal("lock should be free after release")
		}
		pl.Unlock(playerID)
	})
}

func TestLockUnlockCyclesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		playerID := rapid.Int64Range(1, 1_000_000).Draw(t, "playerID")
		cycles := rapid.IntRange(1, 50).Draw(t, "cycles")

		pl := NewPlayerLock()
		for range cycles {
			pl.Lock(playerID)
			pl.Unlock(playerID)
		}
		if pl.IsLocked(playerID) {
			t.Fatal("lock should be free after symmetric cycles")
		}
	})
}

func TestIsLocked(t *testing.T) {
	pl := NewPlayerLock()
	assert.False(t, pl.IsLocked(1))

	pl.Lock(1)
	assert.True(t, pl.IsLocked(1))
	pl.Unlock(1)
	assert.False(t, pl.IsLocked(1))
}

func TestUnlockUnknownPlayerIsNoop(t *testing.T) {
	pl := NewPlayerLock()
	assert.NotPanics(t, func() { pl.Unlock(99) })
}

func TestWithLockReturnsError(t *testing.T) {
	pl := NewPlayerLock()
	boom := errors.New("boom")

	err := pl.WithLock(1, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, pl.IsLocked(1))
}

func TestLockWithTimeout(t *testing.T) {
	pl := NewPlayerLock()
	pl.Lock(1)

	ok := pl.LockWithTimeout(context.Background(), 1, 20*time.Millisecond)
	assert.False(t, ok)

	pl.Unlock(1)
	require.Eventually(t, func() bool { return !pl.IsLocked(1) }, time.Second, 5*time.Millisecond)

	ok = pl.LockWithTimeout(context.Background(), 1, 20*time.Millisecond)
	assert.True(t, ok)
	pl.Unlock(1)
}

func TestWithLockContext(t *testing.T) {
	pl := NewPlayerLock()

	called := false
	err := pl.WithLockContext(context.Background(), 1, time.Second, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	pl.Lock(1)
	err = pl.WithLockContext(context.Background(), 1, 10*time.Millisecond, func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	pl.Unlock(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pl.Lock(2)
	err = pl.WithLockContext(ctx, 2, time.Second, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	pl.Unlock(2)
}
