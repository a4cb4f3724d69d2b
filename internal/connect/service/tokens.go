package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
	"github.com/aussiebroadwan/bartab-connect/pkg/cryptox"
	"github.com/aussiebroadwan/bartab-connect/pkg/slogx"
)

// GetValidToken returns a usable access token for (userID, provider),
// refreshing it first when it is inside the skew margin of its expiry.
//
// Failures:
//   - ErrNotConnected: no record
//   - ErrReauthorizationRequired: expired and either not refreshable or the
//     provider rejected the refresh (wraps ErrNoRefreshToken or the
//     *oauth.ExchangeError)
//   - oauth.ErrProviderTimeout, transient *oauth.ExchangeError: the refresh
//     could not reach the provider; the stored refresh token is still good
//   - cryptox.ErrDecryption: stored ciphertext is unreadable
func (m *Manager) GetValidToken(ctx context.Context, userID, provider string) (string, error) {
	creds, err := m.GetCredentials(ctx, userID, provider)
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// GetCredentials is GetValidToken plus the connection's non-secret metadata,
// for callers that need e.g. the Jira cloud id to build API URLs.
func (m *Manager) GetCredentials(ctx context.Context, userID, provider string) (creds *domain.Credentials, err error) {
	ctx, span := startSpan(ctx, "GetValidToken", attribute.String("connect.provider", provider))
	defer func() { endSpan(span, err) }()

	ctx = slogx.WithConnection(ctx, userID, provider)
	log := slogx.FromContext(ctx)

	p, err := m.Providers.Lookup(provider)
	if err != nil {
		return nil, err
	}

	rec, err := m.Store.Tokens().GetToken(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("load token: %w", err)
	}

	if rec.ExpiredAt(m.now(), m.skew()) {
		span.SetAttributes(attribute.Bool("connect.refresh", true))

		switch {
		case rec.RefreshToken == "":
			return nil, fmt.Errorf("%w: %w", ErrReauthorizationRequired, ErrNoRefreshToken)
		case !p.Capabilities().SupportsRefresh:
			return nil, ErrReauthorizationRequired
		}

		rec, err = m.refresh(ctx, p, userID, false)
		if err != nil {
			var xerr *oauth.ExchangeError
			if errors.As(err, &xerr) && !xerr.Transient {
				log.Warn("refresh rejected, reauthorization required")
				return nil, fmt.Errorf("%w: %w", ErrReauthorizationRequired, err)
			}
			if errors.Is(err, ErrNoRefreshToken) {
				return nil, fmt.Errorf("%w: %w", ErrReauthorizationRequired, err)
			}
			return nil, err
		}
	}

	access, err := m.decrypt(rec.AccessToken, "access token")
	if err != nil {
		log.Error("stored token unreadable", "error", err)
		return nil, err
	}

	return &domain.Credentials{
		Provider:    provider,
		AccessToken: access,
		ExpiresAt:   rec.ExpiresAt,
		Metadata:    rec.Metadata,
	}, nil
}

// RefreshToken forces a refresh grant for (userID, provider) and returns the
// updated connection.
//
// Providers without a refresh grant fail with oauth.ErrUnsupportedOperation
// before any stored state is read. A record without a refresh token fails
// with ErrNoRefreshToken and no provider call.
func (m *Manager) RefreshToken(ctx context.Context, userID, provider string) (conn *domain.Connection, err error) {
	ctx, span := startSpan(ctx, "RefreshToken", attribute.String("connect.provider", provider))
	defer func() { endSpan(span, err) }()

	ctx = slogx.WithConnection(ctx, userID, provider)

	p, err := m.Providers.Lookup(provider)
	if err != nil {
		return nil, err
	}
	if !p.Capabilities().SupportsRefresh {
		return nil, fmt.Errorf("%w: %s does not support token refresh", oauth.ErrUnsupportedOperation, provider)
	}

	rec, err := m.refresh(ctx, p, userID, true)
	if err != nil {
		return nil, err
	}
	return domain.ConnectionOf(rec), nil
}

// refresh runs the refresh grant for one connection. Concurrent calls for the
// same connection and mode share a single provider call, and the per-key lock
// orders them against completions and disconnects. Unless force is set, a
// record that is no longer expired once the lock is held is returned as is.
//
// The flight is detached from the caller's cancellation so one impatient
// caller cannot fail the others; CallTimeout still bounds it.
func (m *Manager) refresh(ctx context.Context, p oauth.Provider, userID string, force bool) (domain.TokenRecord, error) {
	key := connectionKey(userID, p.Name())
	flightKey := key
	if force {
		flightKey += "\x00force"
	}

	ch := m.flights.DoChan(flightKey, func() (any, error) {
		return m.refreshLocked(context.WithoutCancel(ctx), p, userID, key, force)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.TokenRecord{}, res.Err
		}
		return res.Val.(domain.TokenRecord), nil
	case <-ctx.Done():
		return domain.TokenRecord{}, ctx.Err()
	}
}

func (m *Manager) refreshLocked(ctx context.Context, p oauth.Provider, userID, key string, force bool) (domain.TokenRecord, error) {
	log := slogx.FromContext(ctx)

	unlock := m.locks.lock(key)
	defer unlock()

	tokens := m.Store.Tokens()
	rec, err := tokens.GetToken(ctx, userID, p.Name())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenRecord{}, ErrNotConnected
		}
		return domain.TokenRecord{}, fmt.Errorf("load token: %w", err)
	}

	if !force && !rec.ExpiredAt(m.now(), m.skew()) {
		return rec, nil
	}
	if rec.RefreshToken == "" {
		return domain.TokenRecord{}, ErrNoRefreshToken
	}

	refreshToken, err := m.decrypt(rec.RefreshToken, "refresh token")
	if err != nil {
		log.Error("stored token unreadable", "error", err)
		return domain.TokenRecord{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout())
	defer cancel()

	ex, err := p.Refresh(callCtx, refreshToken)
	if err != nil {
		logProviderError(log, "token refresh failed", err)
		return domain.TokenRecord{}, err
	}

	now := m.now()
	if rec.AccessToken, err = m.encrypt(ex.AccessToken, "access token"); err != nil {
		return domain.TokenRecord{}, err
	}
	if ex.RefreshToken != "" {
		if rec.RefreshToken, err = m.encrypt(ex.RefreshToken, "refresh token"); err != nil {
			return domain.TokenRecord{}, err
		}
	}
	rec.ExpiresAt = m.expiry(p.Capabilities(), ex.ExpiresIn, now)
	if len(ex.Scopes) > 0 {
		rec.Scopes = ex.Scopes
	}
	if len(ex.Metadata) > 0 {
		merged := maps.Clone(rec.Metadata)
		if merged == nil {
			merged = map[string]string{}
		}
		maps.Copy(merged, ex.Metadata)
		rec.Metadata = merged
	}
	rec.UpdatedAt = now

	if err := tokens.UpsertToken(ctx, rec); err != nil {
		return domain.TokenRecord{}, fmt.Errorf("store token: %w", err)
	}

	log.Info("token refreshed", "expires_at", rec.ExpiresAt, "rotated", ex.RefreshToken != "")
	return rec, nil
}

// Disconnect removes the stored connection. It reports whether one existed
// and is safe to repeat.
func (m *Manager) Disconnect(ctx context.Context, userID, provider string) (existed bool, err error) {
	ctx, span := startSpan(ctx, "Disconnect", attribute.String("connect.provider", provider))
	defer func() { endSpan(span, err) }()

	ctx = slogx.WithConnection(ctx, userID, provider)

	unlock := m.locks.lock(connectionKey(userID, provider))
	defer unlock()

	existed, err = m.Store.Tokens().DeleteToken(ctx, userID, provider)
	if err != nil {
		return false, fmt.Errorf("delete token: %w", err)
	}
	if existed {
		slogx.FromContext(ctx).Info("provider disconnected")
	}
	return existed, nil
}

// Status reports every stored connection for userID keyed by provider. It
// never refreshes or mutates anything.
func (m *Manager) Status(ctx context.Context, userID string) (status map[string]domain.ConnectionStatus, err error) {
	ctx, span := startSpan(ctx, "Status")
	defer func() { endSpan(span, err) }()

	recs, err := m.Store.Tokens().ListUserTokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	now, skew := m.now(), m.skew()
	status = make(map[string]domain.ConnectionStatus, len(recs))
	for _, rec := range recs {
		scopes := rec.Scopes
		if scopes == nil {
			scopes = []string{}
		}
		status[rec.Provider] = domain.ConnectionStatus{
			Connected:   true,
			Expired:     rec.ExpiredAt(now, skew),
			ExpiresAt:   rec.ExpiresAt,
			Scopes:      scopes,
			Refreshable: rec.Refreshable(),
			UpdatedAt:   rec.UpdatedAt,
		}
	}
	return status, nil
}

// logProviderError logs a failed provider call along with the provider's
// error payload.
func logProviderError(log *slog.Logger, msg string, err error) {
	var xerr *oauth.ExchangeError
	switch {
	case errors.As(err, &xerr):
		log.Warn(msg,
			"op", xerr.Op,
			"status", xerr.StatusCode,
			"code", xerr.Code,
			"transient", xerr.Transient,
			"payload", xerr.Payload,
			"error", xerr.Err,
		)
	case errors.Is(err, oauth.ErrProviderTimeout):
		log.Warn(msg, "error", err, "timeout", true)
	case errors.Is(err, cryptox.ErrDecryption):
		log.Error(msg, "error", err)
	default:
		log.Warn(msg, "error", err)
	}
}
