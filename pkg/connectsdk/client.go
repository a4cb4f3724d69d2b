package connectsdk

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Client is a client for the BarTab connect service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// TokenSource supplies the caller's bearer token for /v1/connections
	// endpoints. A nil TokenSource limits the client to public endpoints.
	TokenSource oauth2.TokenSource
}

// NewClient creates a client for the service at baseURL. ts may be nil.
func NewClient(baseURL string, ts oauth2.TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		TokenSource: ts,
	}
}

// StaticToken wraps an access token issued by the auth service.
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}
