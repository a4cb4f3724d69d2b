package memory_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func pending(state string, created time.Time) domain.PendingAuthorization {
	return domain.PendingAuthorization{
		State:     state,
		UserID:    "u1",
		Provider:  "github",
		CreatedAt: created,
		ExpiresAt: created.Add(10 * time.Minute),
	}
}

func TestPutTake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewStates()

	require.NoError(t, s.PutState(ctx, pending("abc", t0), t0))

	got, err := s.TakeState(ctx, "abc", t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "github", got.Provider)

	_, err = s.TakeState(ctx, "abc", t0.Add(time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.TakeState(ctx, "never-issued", t0)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewStates()

	require.NoError(t, s.PutState(ctx, pending("abc", t0), t0))
	require.ErrorIs(t, s.PutState(ctx, pending("abc", t0), t0), store.ErrAlreadyExists)

	later := t0.Add(10 * time.Minute)
	require.NoError(t, s.PutState(ctx, pending("abc", later), later), "expired entries may be replaced")
}

func TestExpiredTakeConsumes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewStates()
	require.NoError(t, s.PutState(ctx, pending("abc", t0), t0))

	_, err := s.TakeState(ctx, "abc", t0.Add(11*time.Minute))
	require.ErrorIs(t, err, store.ErrExpired)
	require.Zero(t, s.Len())
}

func TestSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewStates()

	require.NoError(t, s.PutState(ctx, pending("a", t0), t0))
	require.NoError(t, s.PutState(ctx, pending("b", t0.Add(5*time.Minute)), t0.Add(5*time.Minute)))

	n, err := s.DeleteExpiredStates(ctx, t0.Add(12*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, s.Len())
}

func TestLazySweepOnInsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewStates()

	require.NoError(t, s.PutState(ctx, pending("stale", t0), t0))

	later := t0.Add(time.Hour)
	for i := range 63 {
		require.NoError(t, s.PutState(ctx, pending(fmt.Sprintf("s%d", i), later), later))
	}

	require.Equal(t, 63, s.Len(), "the 64th insert sweeps the stale entry")
}

func TestConcurrentTakeExactlyOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.NewStates()
	require.NoError(t, s.PutState(ctx, pending("race", t0), t0))

	var (
		wg       sync.WaitGroup
		wins     atomic.Int32
		notFound atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TakeState(ctx, "race", t0)
			switch err {
			case nil:
				wins.Add(1)
			case store.ErrNotFound:
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, int32(31), notFound.Load())
}
