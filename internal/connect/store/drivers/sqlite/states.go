package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
)

// statesRepo keeps pending authorizations in oauth_states, for single-node
// deployments that want them to survive a restart.
type statesRepo struct {
	db *sql.DB
}

func (r *statesRepo) PutState(ctx context.Context, p domain.PendingAuthorization, now time.Time) error {
	// The conflict branch only fires over an expired row; a live one leaves
	// zero rows affected.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO oauth_states (state, user_id, provider, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (state) DO UPDATE SET
			user_id    = excluded.user_id,
			provider   = excluded.provider,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
		WHERE oauth_states.expires_at <= ?`,
		p.State, p.UserID, p.Provider, toMillis(p.CreatedAt), toMillis(p.ExpiresAt),
		toMillis(now),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *statesRepo) TakeState(ctx context.Context, state string, now time.Time) (domain.PendingAuthorization, error) {
	var (
		p       = domain.PendingAuthorization{State: state}
		created int64
		expires int64
	)

	// DELETE ... RETURNING is a single statement, so two racing takes cannot
	// both see the row.
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM oauth_states WHERE state = ? RETURNING user_id, provider, created_at, expires_at`,
		state,
	).Scan(&p.UserID, &p.Provider, &created, &expires)
	if err != nil {
		return domain.PendingAuthorization{}, mapNotFound(err)
	}

	p.CreatedAt = fromMillis(created)
	p.ExpiresAt = fromMillis(expires)
	if p.ExpiredAt(now) {
		return domain.PendingAuthorization{}, store.ErrExpired
	}
	return p, nil
}

func (r *statesRepo) DeleteExpiredStates(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *statesRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// Close is a no-op; the owning Store closes the database.
func (r *statesRepo) Close() error { return nil }

var _ store.States = (*statesRepo)(nil)
