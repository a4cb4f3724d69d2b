package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
)

const (
	DefaultStateTTL         = 10 * time.Minute
	DefaultSkewMargin       = 30 * time.Second
	DefaultCallTimeout      = 30 * time.Second
	DefaultDefaultExpiresIn = time.Hour
)

var tracer = otel.Tracer("github.com/aussiebroadwan/bartab-connect/internal/connect/service")

// TokenCipher seals provider secrets before they reach the token store.
// Encrypt("") must return "" and Decrypt("") must return "".
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Manager runs the authorization-code lifecycle for every configured
// provider: issuing and consuming state, exchanging codes, keeping access
// tokens fresh and disconnecting.
//
// Zero durations fall back to the Default* constants. A Manager must not be
// copied after first use.
type Manager struct {
	Providers *oauth.Registry
	Store     store.Store
	States    store.States
	Cipher    TokenCipher

	StateTTL         time.Duration
	SkewMargin       time.Duration
	CallTimeout      time.Duration
	DefaultExpiresIn time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	flights singleflight.Group
	locks   keyLocks
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (m *Manager) stateTTL() time.Duration    { return orDefault(m.StateTTL, DefaultStateTTL) }
func (m *Manager) skew() time.Duration        { return orDefault(m.SkewMargin, DefaultSkewMargin) }
func (m *Manager) callTimeout() time.Duration { return orDefault(m.CallTimeout, DefaultCallTimeout) }
func (m *Manager) defaultExpiresIn() time.Duration {
	return orDefault(m.DefaultExpiresIn, DefaultDefaultExpiresIn)
}

// ProviderInfos lists configured providers and their capabilities.
func (m *Manager) ProviderInfos() []domain.ProviderInfo {
	return m.Providers.Infos()
}

func connectionKey(userID, provider string) string {
	return userID + "\x00" + provider
}

// expiry turns a provider's expires_in into an absolute time. Providers that
// are known to expire tokens but omit expires_in get the default lifetime.
func (m *Manager) expiry(caps domain.Capabilities, expiresIn int64, now time.Time) *time.Time {
	var at time.Time
	switch {
	case expiresIn > 0:
		at = now.Add(time.Duration(expiresIn) * time.Second)
	case caps.TokensExpire:
		at = now.Add(m.defaultExpiresIn())
	default:
		return nil
	}
	return &at
}

func (m *Manager) decrypt(ciphertext, field string) (string, error) {
	pt, err := m.Cipher.Decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", field, err)
	}
	return pt, nil
}

func (m *Manager) encrypt(plaintext, field string) (string, error) {
	ct, err := m.Cipher.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt %s: %w", field, err)
	}
	return ct, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "connect."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
