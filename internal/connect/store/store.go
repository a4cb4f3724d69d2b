package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrExpired       = errors.New("store: expired")
)

// Store is the root data access interface for durable connection data.
// Concrete drivers (sqlite, postgres) implement this and expose
// sub-repositories. Every repository write is a single statement.
type Store interface {
	Tokens() Tokens

	ApplyMigrations(ctx context.Context) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tokens persists one encrypted TokenRecord per (user, provider).
type Tokens interface {
	// GetToken returns ErrNotFound when the pair has no record.
	GetToken(ctx context.Context, userID, provider string) (domain.TokenRecord, error)

	// UpsertToken inserts or fully overwrites the record for the pair in a
	// single statement. The stored ID and CreatedAt survive an overwrite.
	UpsertToken(ctx context.Context, rec domain.TokenRecord) error

	// DeleteToken reports whether a record existed.
	DeleteToken(ctx context.Context, userID, provider string) (bool, error)

	// ListUserTokens returns every record for a user ordered by provider.
	ListUserTokens(ctx context.Context, userID string) ([]domain.TokenRecord, error)
}

// States holds pending authorizations between the redirect to a provider and
// its callback. Implementations must make TakeState atomic: of any number of
// concurrent takes for one state, exactly one gets the entry.
type States interface {
	// PutState returns ErrAlreadyExists when an unexpired entry already uses
	// the same state value. An expired entry is overwritten.
	PutState(ctx context.Context, p domain.PendingAuthorization, now time.Time) error

	// TakeState removes and returns the entry. Missing entries give
	// ErrNotFound; expired ones are removed too and give ErrExpired.
	TakeState(ctx context.Context, state string, now time.Time) (domain.PendingAuthorization, error)

	// DeleteExpiredStates purges entries past their TTL and returns how many
	// were removed.
	DeleteExpiredStates(ctx context.Context, now time.Time) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
