package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
)

// DefaultKeyPrefix namespaces pending authorization keys.
const DefaultKeyPrefix = "connect:oauth_state:"

// States implements store.States on Redis. Keys carry a server-side TTL of
// twice the remaining lifetime so an expired take can still be told apart
// from an unknown state; logical expiry is always judged against the caller's
// clock.
type States struct {
	client goredis.UniversalClient
	prefix string
}

var _ store.States = (*States)(nil)

// NewStates wraps client. An empty prefix selects DefaultKeyPrefix.
func NewStates(client goredis.UniversalClient, prefix string) *States {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &States{client: client, prefix: prefix}
}

// Connect parses a redis:// URL, dials and pings it.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *States) key(state string) string { return s.prefix + state }

func retention(p domain.PendingAuthorization, now time.Time) time.Duration {
	ttl := 2 * p.ExpiresAt.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (s *States) PutState(ctx context.Context, p domain.PendingAuthorization, now time.Time) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	key := s.key(p.State)
	ttl := retention(p, now)

	ok, err := s.client.SetNX(ctx, key, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	if ok {
		return nil
	}

	existing, err := s.load(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Taken or evicted between the two calls.
	case err != nil:
		return err
	case !existing.ExpiredAt(now):
		return store.ErrAlreadyExists
	}

	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

func (s *States) TakeState(ctx context.Context, state string, now time.Time) (domain.PendingAuthorization, error) {
	raw, err := s.client.GetDel(ctx, s.key(state)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.PendingAuthorization{}, store.ErrNotFound
		}
		return domain.PendingAuthorization{}, fmt.Errorf("take state: %w", err)
	}

	var p domain.PendingAuthorization
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.PendingAuthorization{}, fmt.Errorf("decode state: %w", err)
	}
	if p.ExpiredAt(now) {
		return domain.PendingAuthorization{}, store.ErrExpired
	}
	return p, nil
}

// DeleteExpiredStates removes entries that are logically expired but still
// inside their retention window.
func (s *States) DeleteExpiredStates(ctx context.Context, now time.Time) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		p, err := s.load(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return n, err
		}
		if !p.ExpiredAt(now) {
			continue
		}
		deleted, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return n, fmt.Errorf("delete state: %w", err)
		}
		n += int(deleted)
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("scan states: %w", err)
	}
	return n, nil
}

func (s *States) load(ctx context.Context, key string) (domain.PendingAuthorization, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.PendingAuthorization{}, store.ErrNotFound
		}
		return domain.PendingAuthorization{}, fmt.Errorf("load state: %w", err)
	}
	var p domain.PendingAuthorization
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.PendingAuthorization{}, fmt.Errorf("decode state: %w", err)
	}
	return p, nil
}

func (s *States) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *States) Close() error {
	return s.client.Close()
}
