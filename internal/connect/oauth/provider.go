package oauth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/domain"
)

// Provider is one external identity provider's authorization-code flow.
// Implementations are immutable after construction and shared between
// requests.
type Provider interface {
	Name() string
	Capabilities() domain.Capabilities

	// AuthorizationURL is deterministic for a given state.
	AuthorizationURL(state string) string

	ExchangeCode(ctx context.Context, code string) (*domain.Exchange, error)

	// Refresh returns ErrUnsupportedOperation for providers without a
	// refresh grant.
	Refresh(ctx context.Context, refreshToken string) (*domain.Exchange, error)
}

// Discoverer is implemented by providers whose tokens are scoped to one of
// several sites that have to be looked up after the exchange.
type Discoverer interface {
	DiscoverResources(ctx context.Context, accessToken string) ([]domain.Resource, error)
}

// Config is the client registration for one provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// AuthURL, TokenURL and ResourcesURL replace the provider's well-known
	// endpoints when set.
	AuthURL      string
	TokenURL     string
	ResourcesURL string

	// Tenant selects the Microsoft directory. Defaults to "common".
	Tenant string

	HTTPClient *http.Client
}

// NewHTTPClient returns a client whose requests are traced.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// strategy is the shared authorization-code implementation. Providers differ
// in endpoints, extra parameters, scope encoding and response extras.
type strategy struct {
	name       string
	caps       domain.Capabilities
	oauth      *oauth2.Config
	authParams []oauth2.AuthCodeOption
	scopeSep   string
	client     *http.Client

	// fallbackScopes reports the configured scopes when the provider
	// response has none.
	fallbackScopes bool

	// extras copies provider specific response fields into metadata.
	extras func(tok *oauth2.Token, md map[string]string)
}

type endpoints struct {
	auth  string
	token string
}

func newStrategy(name string, caps domain.Capabilities, cfg Config, ep endpoints, defaultScopes []string) *strategy {
	if cfg.AuthURL != "" {
		ep.auth = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		ep.token = cfg.TokenURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	client := cfg.HTTPClient
	if client == nil {
		client = NewHTTPClient()
	}

	return &strategy{
		name: name,
		caps: caps,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   ep.auth,
				TokenURL:  ep.token,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		scopeSep: " ",
		client:   client,
	}
}

func (s *strategy) Name() string                      { return s.name }
func (s *strategy) Capabilities() domain.Capabilities { return s.caps }

func (s *strategy) AuthorizationURL(state string) string {
	return s.oauth.AuthCodeURL(state, s.authParams...)
}

func (s *strategy) ExchangeCode(ctx context.Context, code string) (*domain.Exchange, error) {
	tok, err := s.oauth.Exchange(s.withClient(ctx), code)
	if err != nil {
		return nil, classify(s.name, "exchange", err)
	}
	return s.normalize(tok), nil
}

func (s *strategy) Refresh(ctx context.Context, refreshToken string) (*domain.Exchange, error) {
	if !s.caps.SupportsRefresh {
		return nil, ErrUnsupportedOperation
	}

	tok, err := s.oauth.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classify(s.name, "refresh", err)
	}

	ex := s.normalize(tok)
	// The refresher copies the old refresh token forward when the provider
	// omits one; report that as "none issued".
	if ex.RefreshToken == refreshToken {
		ex.RefreshToken = ""
	}
	return ex, nil
}

func (s *strategy) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func (s *strategy) normalize(tok *oauth2.Token) *domain.Exchange {
	ex := &domain.Exchange{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
		Scopes:       splitScopes(extraString(tok, "scope"), s.scopeSep),
		Metadata:     map[string]string{},
	}
	if len(ex.Scopes) == 0 && s.fallbackScopes {
		ex.Scopes = append([]string{}, s.oauth.Scopes...)
	}
	if tok.TokenType != "" {
		ex.Metadata["token_type"] = tok.TokenType
	}
	if s.extras != nil {
		s.extras(tok, ex.Metadata)
	}
	return ex
}

func expiresIn(tok *oauth2.Token) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func extraString(tok *oauth2.Token, key string) string {
	if v, ok := tok.Extra(key).(string); ok {
		return v
	}
	return ""
}

// extraObject reads a nested JSON object from the raw token response.
func extraObject(tok *oauth2.Token, key string) map[string]any {
	m, _ := tok.Extra(key).(map[string]any)
	return m
}

func splitScopes(raw, sep string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, sep) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
