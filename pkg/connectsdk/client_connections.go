package connectsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// Providers lists the providers the service is configured for.
func (c *Client) Providers(ctx context.Context) (*ProvidersResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/providers", nil, nil)
	if err != nil {
		return nil, err
	}

	var out ProvidersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizationURL starts an authorization for provider and returns the URL
// the user's browser must visit.
func (c *Client) AuthorizationURL(ctx context.Context, provider string) (string, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, connectionPath(provider, "authorize"), nil,
		map[string]string{"Accept": "application/json"})
	if err != nil {
		return "", err
	}

	var out AuthorizeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.AuthorizationURL, nil
}

// Status returns the caller's connections.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/connections", nil, nil)
	if err != nil {
		return nil, err
	}

	var out StatusResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh forces a refresh of the caller's connection to provider.
func (c *Client) Refresh(ctx context.Context, provider string) (*RefreshResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodPost, connectionPath(provider, "refresh"), nil, nil)
	if err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Disconnect removes the caller's connection to provider. It reports whether
// a connection existed.
func (c *Client) Disconnect(ctx context.Context, provider string) (bool, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodDelete, "/v1/connections/"+url.PathEscape(provider), nil, nil)
	if err != nil {
		return false, err
	}

	err = checkStatusNoContent(resp)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotConnected):
		return false, nil
	default:
		return false, err
	}
}

// Token returns a currently valid provider access token for the caller. The
// bearer must carry the connections:token scope.
func (c *Client) Token(ctx context.Context, provider string) (*TokenResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, connectionPath(provider, "token"), nil, nil)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProviderTokenSource returns an oauth2.TokenSource that fetches provider
// tokens through Token and reuses each one until shortly before it expires.
func (c *Client) ProviderTokenSource(ctx context.Context, provider string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &providerTokenSource{ctx: ctx, client: c, provider: provider})
}

type providerTokenSource struct {
	ctx      context.Context
	client   *Client
	provider string
}

func (s *providerTokenSource) Token() (*oauth2.Token, error) {
	resp, err := s.client.Token(s.ctx, s.provider)
	if err != nil {
		return nil, fmt.Errorf("fetch %s token: %w", s.provider, err)
	}

	tok := &oauth2.Token{AccessToken: resp.AccessToken, TokenType: "Bearer"}
	if resp.ExpiresAt != nil {
		tok.Expiry = *resp.ExpiresAt
	}
	if len(resp.Metadata) > 0 {
		extra := make(map[string]any, len(resp.Metadata))
		for k, v := range resp.Metadata {
			extra[k] = v
		}
		tok = tok.WithExtra(extra)
	}
	return tok, nil
}

func connectionPath(provider, action string) string {
	return "/v1/connections/" + url.PathEscape(provider) + "/" + action
}

// ExpiresWithin reports whether the token expires less than d from now.
func (r *TokenResponse) ExpiresWithin(d time.Duration) bool {
	return r.ExpiresAt != nil && time.Until(*r.ExpiresAt) < d
}
