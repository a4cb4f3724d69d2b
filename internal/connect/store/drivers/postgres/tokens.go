package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/pkg/idx"
)

type tokensRepo struct {
	db dbtx
}

const (
	tokenColumns = `id, user_id, provider, access_token, refresh_token, expires_at, scopes, metadata, created_at, updated_at`

	getTokenQuery = `SELECT ` + tokenColumns + ` FROM provider_tokens WHERE user_id = $1 AND provider = $2`

	upsertTokenQuery = `INSERT INTO provider_tokens (` + tokenColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (user_id, provider) DO UPDATE SET
    access_token  = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at    = EXCLUDED.expires_at,
    scopes        = EXCLUDED.scopes,
    metadata      = EXCLUDED.metadata,
    updated_at    = EXCLUDED.updated_at`

	deleteTokenQuery = `DELETE FROM provider_tokens WHERE user_id = $1 AND provider = $2`

	listUserTokensQuery = `SELECT ` + tokenColumns + ` FROM provider_tokens WHERE user_id = $1 ORDER BY provider`
)

func (r *tokensRepo) GetToken(ctx context.Context, userID, provider string) (domain.TokenRecord, error) {
	rec, err := scanToken(r.db.QueryRowContext(ctx, getTokenQuery, userID, provider))
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

	meta := []byte("{}")
	if len(rec.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(rec.Metadata); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}

	var expiresAt sql.NullTime
	if rec.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: rec.ExpiresAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, upsertTokenQuery,
		rec.ID,
		rec.UserID,
		rec.Provider,
		rec.AccessToken,
		rec.RefreshToken,
		expiresAt,
		strings.Join(rec.Scopes, " "),
		string(meta),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (r *tokensRepo) DeleteToken(ctx context.Context, userID, provider string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteTokenQuery, userID, provider)
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *tokensRepo) ListUserTokens(ctx context.Context, userID string) ([]domain.TokenRecord, error) {
	rows, err := r.db.QueryContext(ctx, listUserTokensQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
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
		expiresAt sql.NullTime
		scopes    string
		meta      []byte
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
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return domain.TokenRecord{}, err
	}

	rec.Metadata = map[string]string{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
			return domain.TokenRecord{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		rec.ExpiresAt = &t
	}
	rec.Scopes = strings.Fields(scopes)
	if rec.Scopes == nil {
		rec.Scopes = []string{}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
