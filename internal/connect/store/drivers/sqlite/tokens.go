package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/pkg/idx"
)

type tokensRepo struct {
	db dbtx
}

const tokenColumns = `id, user_id, provider, access_token, refresh_token, expires_at, scopes, metadata, created_at, updated_at`

func (r *tokensRepo) GetToken(ctx context.Context, userID, provider string) (domain.TokenRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM provider_tokens WHERE user_id = ? AND provider = ?`,
		userID, provider,
	)
	rec, err := scanToken(row)
	if err != nil {
		return domain.TokenRecord{}, mapNotFound(err)
	}
	return rec, nil
}

func (r *tokensRepo) UpsertToken(ctx context.Context, rec domain.TokenRecord) error {
	if rec.ID == "" {
		rec.ID = idx.NewAt(rec.UpdatedAt).String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	meta, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO provider_tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at    = excluded.expires_at,
			scopes        = excluded.scopes,
			metadata      = excluded.metadata,
			updated_at    = excluded.updated_at`,
		rec.ID,
		rec.UserID,
		rec.Provider,
		rec.AccessToken,
		rec.RefreshToken,
		mapOptionalTime(rec.ExpiresAt),
		joinScopes(rec.Scopes),
		meta,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
	)
	return err
}

func (r *tokensRepo) DeleteToken(ctx context.Context, userID, provider string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM provider_tokens WHERE user_id = ? AND provider = ?`,
		userID, provider,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *tokensRepo) ListUserTokens(ctx context.Context, userID string) ([]domain.TokenRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM provider_tokens WHERE user_id = ? ORDER BY provider`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TokenRecord
	for rows.Next() {
		rec, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (domain.TokenRecord, error) {
	var (
		rec       domain.TokenRecord
		expiresAt sql.NullInt64
		scopes    string
		meta      string
		created   int64
		updated   int64
	)
	if err := s.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Provider,
		&rec.AccessToken,
		&rec.RefreshToken,
		&expiresAt,
		&scopes,
		&meta,
		&created,
		&updated,
	); err != nil {
		return domain.TokenRecord{}, err
	}

	m, err := decodeMetadata(meta)
	if err != nil {
		return domain.TokenRecord{}, err
	}

	rec.ExpiresAt = mapNullTimePtr(expiresAt)
	rec.Scopes = splitScopes(scopes)
	rec.Metadata = m
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return rec, nil
}
