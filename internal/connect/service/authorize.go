package service

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
	"github.com/aussiebroadwan/bartab-connect/pkg/cryptox"
	"github.com/aussiebroadwan/bartab-connect/pkg/slogx"
)

// BeginAuthorization issues a fresh state for (userID, provider) and returns
// the provider URL the user agent should be sent to.
//
// Returns oauth.ErrUnknownProvider for unconfigured providers and
// ErrStateCollision if the generated state is already pending.
func (m *Manager) BeginAuthorization(ctx context.Context, userID, provider string) (authURL string, err error) {
	ctx, span := startSpan(ctx, "BeginAuthorization", attribute.String("connect.provider", provider))
	defer func() { endSpan(span, err) }()

	ctx = slogx.WithConnection(ctx, userID, provider)
	log := slogx.FromContext(ctx)

	p, err := m.Providers.Lookup(provider)
	if err != nil {
		return "", err
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := m.now()
	pending := domain.PendingAuthorization{
		State:     state,
		UserID:    userID,
		Provider:  provider,
		CreatedAt: now,
		ExpiresAt: now.Add(m.stateTTL()),
	}
	if err := m.States.PutState(ctx, pending, now); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Error("state collision", "state_fp", cryptox.FingerprintToken(state))
			return "", ErrStateCollision
		}
		return "", fmt.Errorf("save state: %w", err)
	}

	log.Info("authorization started", "state_fp", cryptox.FingerprintToken(state), "expires_at", pending.ExpiresAt)
	return p.AuthorizationURL(state), nil
}

// takeState consumes state and translates store errors.
func (m *Manager) takeState(ctx context.Context, state string) (domain.PendingAuthorization, error) {
	if state == "" {
		return domain.PendingAuthorization{}, ErrInvalidState
	}

	pending, err := m.States.TakeState(ctx, state, m.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.PendingAuthorization{}, ErrInvalidState
	case errors.Is(err, store.ErrExpired):
		return domain.PendingAuthorization{}, ErrExpiredState
	case err != nil:
		return domain.PendingAuthorization{}, fmt.Errorf("take state: %w", err)
	}
	return pending, nil
}

// CompleteAuthorization handles the provider callback. The state is consumed
// first, so whatever happens afterwards the same callback cannot be
// replayed.
//
// On success the stored connection is returned without secrets. Failures:
//   - ErrInvalidState, ErrExpiredState: unknown, replayed or stale state
//   - *oauth.ExchangeError, oauth.ErrProviderTimeout: the code exchange or
//     resource discovery failed
//   - ErrNoAccessibleResource: discovery returned no site
//
// Nothing is stored unless every step succeeds.
func (m *Manager) CompleteAuthorization(ctx context.Context, code, state string) (conn *domain.Connection, err error) {
	ctx, span := startSpan(ctx, "CompleteAuthorization")
	defer func() { endSpan(span, err) }()

	log := slogx.FromContext(ctx)

	pending, err := m.takeState(ctx, state)
	if err != nil {
		log.Warn("callback rejected", "state_fp", cryptox.FingerprintToken(state), "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("connect.provider", pending.Provider))
	ctx = slogx.WithConnection(ctx, pending.UserID, pending.Provider)
	log = slogx.FromContext(ctx)

	p, err := m.Providers.Lookup(pending.Provider)
	if err != nil {
		return nil, err
	}

	ex, err := m.exchangeCode(ctx, p, code)
	if err != nil {
		logProviderError(log, "code exchange failed", err)
		return nil, err
	}

	metadata := maps.Clone(ex.Metadata)
	if metadata == nil {
		metadata = map[string]string{}
	}

	if p.Capabilities().RequiresResourceDiscovery {
		d, ok := p.(oauth.Discoverer)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not implement resource discovery", oauth.ErrUnsupportedOperation, p.Name())
		}
		resources, err := m.discoverResources(ctx, d, ex.AccessToken)
		if err != nil {
			logProviderError(log, "resource discovery failed", err)
			return nil, err
		}
		if len(resources) == 0 {
			log.Warn("no accessible resources")
			return nil, ErrNoAccessibleResource
		}
		site := resources[0]
		metadata["cloud_id"] = site.ID
		metadata["cloud_url"] = site.URL
		metadata["site_name"] = site.Name
	}

	now := m.now()
	rec := domain.TokenRecord{
		UserID:    pending.UserID,
		Provider:  pending.Provider,
		ExpiresAt: m.expiry(p.Capabilities(), ex.ExpiresIn, now),
		Scopes:    ex.Scopes,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if rec.Scopes == nil {
		rec.Scopes = []string{}
	}
	if rec.AccessToken, err = m.encrypt(ex.AccessToken, "access token"); err != nil {
		return nil, err
	}
	if rec.RefreshToken, err = m.encrypt(ex.RefreshToken, "refresh token"); err != nil {
		return nil, err
	}

	unlock := m.locks.lock(connectionKey(rec.UserID, rec.Provider))
	defer unlock()

	if err := m.Store.Tokens().UpsertToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	log.Info("provider connected", "scopes", rec.Scopes, "expires_at", rec.ExpiresAt, "refreshable", rec.Refreshable())
	return domain.ConnectionOf(rec), nil
}

// FailAuthorization handles a callback that carries a provider error
// (typically access_denied) instead of a code. The state is still consumed.
// The returned error is ErrAuthorizationDenied unless the state itself was
// invalid or expired.
func (m *Manager) FailAuthorization(ctx context.Context, state, reason string) error {
	log := slogx.FromContext(ctx)

	pending, err := m.takeState(ctx, state)
	if err != nil {
		log.Warn("callback rejected", "state_fp", cryptox.FingerprintToken(state), "error", err)
		return err
	}

	slogx.FromContext(slogx.WithConnection(ctx, pending.UserID, pending.Provider)).
		Info("authorization denied by provider", "reason", reason)

	if reason == "" {
		reason = "authorization was not granted"
	}
	return fmt.Errorf("%w: %s: %s", ErrAuthorizationDenied, pending.Provider, reason)
}

// exchangeCode and discoverResources each get the full call timeout.
func (m *Manager) exchangeCode(ctx context.Context, p oauth.Provider, code string) (*domain.Exchange, error) {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout())
	defer cancel()
	return p.ExchangeCode(ctx, code)
}

func (m *Manager) discoverResources(ctx context.Context, d oauth.Discoverer, accessToken string) ([]domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout())
	defer cancel()
	return d.DiscoverResources(ctx, accessToken)
}
