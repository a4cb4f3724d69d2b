package sqlite_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

var base = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func record(userID, provider string, expiresIn time.Duration) domain.TokenRecord {
	rec := domain.TokenRecord{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  "v1.sealed-access",
		RefreshToken: "v1.sealed-refresh",
		Scopes:       []string{"read", "write"},
		Metadata:     map[string]string{"team_id": "T1"},
		UpdatedAt:    base,
	}
	if expiresIn > 0 {
		exp := base.Add(expiresIn)
		rec.ExpiresAt = &exp
	}
	return rec
}

func TestTokensRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tokens := newStore(t).Tokens()

	require.NoError(t, tokens.UpsertToken(ctx, record("u1", "google", time.Hour)))

	got, err := tokens.GetToken(ctx, "u1", "google")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	require.Equal(t, "v1.sealed-access", got.AccessToken)
	require.Equal(t, "v1.sealed-refresh", got.RefreshToken)
	require.Equal(t, []string{"read", "write"}, got.Scopes)
	require.Equal(t, "T1", got.Metadata["team_id"])
	require.NotNil(t, got.ExpiresAt)
	require.True(t, base.Add(time.Hour).Equal(*got.ExpiresAt))
	require.True(t, base.Equal(got.CreatedAt))
}

func TestTokensNonExpiringAndEmptyRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tokens := newStore(t).Tokens()

	rec := record("u1", "slack", 0)
	rec.RefreshToken = ""
	rec.Metadata = nil
	rec.Scopes = nil
	require.NoError(t, tokens.UpsertToken(ctx, rec))

	got, err := tokens.GetToken(ctx, "u1", "slack")
	require.NoError(t, err)
	require.Nil(t, got.ExpiresAt)
	require.Empty(t, got.RefreshToken)
	require.Empty(t, got.Scopes)
	require.Empty(t, got.Metadata)
}

func TestTokensUpsertOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tokens := newStore(t).Tokens()

	require.NoError(t, tokens.UpsertToken(ctx, record("u1", "jira", time.Hour)))
	first, err := tokens.GetToken(ctx, "u1", "jira")
	require.NoError(t, err)

	next := record("u1", "jira", 2*time.Hour)
	next.AccessToken = "v1.rotated"
	next.UpdatedAt = base.Add(time.Minute)
	require.NoError(t, tokens.UpsertToken(ctx, next))

	got, err := tokens.GetToken(ctx, "u1", "jira")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID, "overwrite keeps the original id")
	require.True(t, first.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, "v1.rotated", got.AccessToken)
	require.True(t, base.Add(time.Minute).Equal(got.UpdatedAt))

	list, err := tokens.ListUserTokens(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestTokensGetMissing(t *testing.T) {
	t.Parallel()
	_, err := newStore(t).Tokens().GetToken(context.Background(), "nobody", "github")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokensDeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tokens := newStore(t).Tokens()
	require.NoError(t, tokens.UpsertToken(ctx, record("u1", "asana", time.Hour)))

	existed, err := tokens.DeleteToken(ctx, "u1", "asana")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = tokens.DeleteToken(ctx, "u1", "asana")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestTokensListIsPerUserAndOrdered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tokens := newStore(t).Tokens()

	for _, p := range []string{"slack", "github", "microsoft"} {
		require.NoError(t, tokens.UpsertToken(ctx, record("u1", p, time.Hour)))
	}
	require.NoError(t, tokens.UpsertToken(ctx, record("u2", "google", time.Hour)))

	list, err := tokens.ListUserTokens(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "github", list[0].Provider)
	require.Equal(t, "microsoft", list[1].Provider)
	require.Equal(t, "slack", list[2].Provider)

	none, err := tokens.ListUserTokens(ctx, "u3")
	require.NoError(t, err)
	require.Empty(t, none)
}

func pending(state string, created time.Time) domain.PendingAuthorization {
	return domain.PendingAuthorization{
		State:     state,
		UserID:    "u1",
		Provider:  "slack",
		CreatedAt: created,
		ExpiresAt: created.Add(10 * time.Minute),
	}
}

func TestStatesTakeOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	states := newStore(t).States()

	require.NoError(t, states.PutState(ctx, pending("s1", base), base))

	got, err := states.TakeState(ctx, "s1", base.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "slack", got.Provider)

	_, err = states.TakeState(ctx, "s1", base.Add(time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatesCollisionAndExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	states := newStore(t).States()

	require.NoError(t, states.PutState(ctx, pending("s1", base), base))
	require.ErrorIs(t, states.PutState(ctx, pending("s1", base), base.Add(time.Minute)), store.ErrAlreadyExists)

	// Once expired, the same value may be reused.
	later := base.Add(11 * time.Minute)
	require.NoError(t, states.PutState(ctx, pending("s1", later), later))

	_, err := states.TakeState(ctx, "s1", later.Add(20*time.Minute))
	require.ErrorIs(t, err, store.ErrExpired)

	// Expired takes still consume the entry.
	_, err = states.TakeState(ctx, "s1", later)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatesSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	states := newStore(t).States()

	require.NoError(t, states.PutState(ctx, pending("old", base), base))
	require.NoError(t, states.PutState(ctx, pending("new", base.Add(5*time.Minute)), base.Add(5*time.Minute)))

	n, err := states.DeleteExpiredStates(ctx, base.Add(12*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = states.TakeState(ctx, "new", base.Add(12*time.Minute))
	require.NoError(t, err)
}

func TestStatesConcurrentTake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	states := newStore(t).States()
	require.NoError(t, states.PutState(ctx, pending("race", base), base))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := states.TakeState(ctx, "race", base); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
}
