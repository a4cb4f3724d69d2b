package service

import (
	"bytes"
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/memory"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/sqlite"
	"github.com/aussiebroadwan/bartab-connect/pkg/cryptox"
)

type fakeProvider struct {
	name string
	caps domain.Capabilities

	exchange func(ctx context.Context, code string) (*domain.Exchange, error)
	refresh  func(ctx context.Context, refreshToken string) (*domain.Exchange, error)

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
}

func (f *fakeProvider) Name() string                      { return f.name }
func (f *fakeProvider) Capabilities() domain.Capabilities { return f.caps }

func (f *fakeProvider) AuthorizationURL(state string) string {
	return "https://" + f.name + ".example/authorize?" + url.Values{"state": {state}}.Encode()
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (*domain.Exchange, error) {
	f.exchangeCalls.Add(1)
	return f.exchange(ctx, code)
}

func (f *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*domain.Exchange, error) {
	if !f.caps.SupportsRefresh {
		return nil, oauth.ErrUnsupportedOperation
	}
	f.refreshCalls.Add(1)
	return f.refresh(ctx, refreshToken)
}

type fakeDiscoverer struct {
	*fakeProvider
	resources []domain.Resource

	// discover, when set, runs before resources are returned.
	discover func(ctx context.Context) error
}

func (f *fakeDiscoverer) DiscoverResources(ctx context.Context, _ string) ([]domain.Resource, error) {
	if f.discover != nil {
		if err := f.discover(ctx); err != nil {
			return nil, err
		}
	}
	return f.resources, nil
}

func exchangeReturning(ex domain.Exchange) func(context.Context, string) (*domain.Exchange, error) {
	return func(context.Context, string) (*domain.Exchange, error) {
		out := ex
		return &out, nil
	}
}

func newSlack() *fakeProvider {
	return &fakeProvider{
		name:     "slack",
		exchange: exchangeReturning(domain.Exchange{AccessToken: "tok", Scopes: []string{"a", "b"}}),
	}
}

func newGoogle() *fakeProvider {
	return &fakeProvider{
		name: "google",
		caps: domain.Capabilities{SupportsRefresh: true, TokensExpire: true},
		exchange: exchangeReturning(domain.Exchange{
			AccessToken:  "a1",
			RefreshToken: "r1",
			ExpiresIn:    3600,
			Scopes:       []string{"openid", "email"},
		}),
		refresh: exchangeReturning(domain.Exchange{AccessToken: "a2", ExpiresIn: 3600}),
	}
}

func newJira(resources ...domain.Resource) *fakeDiscoverer {
	return &fakeDiscoverer{
		fakeProvider: &fakeProvider{
			name:     "jira",
			caps:     domain.Capabilities{SupportsRefresh: true, TokensExpire: true, RequiresResourceDiscovery: true},
			exchange: exchangeReturning(domain.Exchange{AccessToken: "j1", RefreshToken: "jr1", ExpiresIn: 3600}),
		},
		resources: resources,
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	m      *Manager
	store  *sqlite.Store
	states *memory.States
	clock  *clock
}

func newHarness(t *testing.T, providers ...oauth.Provider) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	cipher, err := cryptox.NewCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	reg, err := oauth.NewRegistry(providers...)
	require.NoError(t, err)

	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	states := memory.NewStates()

	return &harness{
		m: &Manager{
			Providers: reg,
			Store:     st,
			States:    states,
			Cipher:    cipher,
			Now:       clk.Now,
		},
		store:  st,
		states: states,
		clock:  clk,
	}
}

func stateOf(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

// connect runs a full begin/complete round for userID.
func (h *harness) connect(t *testing.T, userID, provider string) *domain.Connection {
	t.Helper()
	ctx := context.Background()

	authURL, err := h.m.BeginAuthorization(ctx, userID, provider)
	require.NoError(t, err)

	conn, err := h.m.CompleteAuthorization(ctx, "code-"+provider, stateOf(t, authURL))
	require.NoError(t, err)
	return conn
}
