package connectsdk

import "time"

// ErrorResponse is the error envelope every endpoint uses.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Provider Types
// ============================================================================

// Capabilities are the static properties of a provider integration.
type Capabilities struct {
	SupportsRefresh           bool `json:"supports_refresh"`
	TokensExpire              bool `json:"tokens_expire"`
	RequiresResourceDiscovery bool `json:"requires_resource_discovery"`
}

// ProviderInfo describes one configured provider.
type ProviderInfo struct {
	Name         string       `json:"name" example:"slack"`
	Capabilities Capabilities `json:"capabilities"`
}

// ProvidersResponse is returned from GET /v1/providers.
type ProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
}

// ============================================================================
// Connection Types
// ============================================================================

// AuthorizeResponse is returned from the authorize endpoint when the caller
// asks for JSON instead of a redirect.
type AuthorizeResponse struct {
	Provider         string `json:"provider" example:"jira"`
	AuthorizationURL string `json:"authorization_url" example:"https://auth.atlassian.com/authorize?client_id=...&state=..."`
}

// ConnectionStatus is one provider's entry in a StatusResponse.
type ConnectionStatus struct {
	Connected   bool       `json:"connected"`
	Expired     bool       `json:"expired"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Scopes      []string   `json:"scopes"`
	Refreshable bool       `json:"refreshable"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatusResponse is returned from GET /v1/connections. Providers the user
// never connected are absent from the map.
type StatusResponse struct {
	UserID    string                      `json:"user_id"`
	Providers map[string]ConnectionStatus `json:"providers"`
	Timestamp time.Time                   `json:"timestamp"`
}

// RefreshResponse is returned from POST /v1/connections/{provider}/refresh.
type RefreshResponse struct {
	Status    string     `json:"status" example:"refreshed"`
	Provider  string     `json:"provider" example:"google"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// TokenResponse is returned from GET /v1/connections/{provider}/token. A nil
// ExpiresAt means the token does not expire.
type TokenResponse struct {
	Provider    string            `json:"provider" example:"jira"`
	AccessToken string            `json:"access_token"`
	ExpiresAt   *time.Time        `json:"expires_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned from /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the stores the service cannot run without.
type HealthChecks struct {
	TokenStore string `json:"token_store"`
	StateStore string `json:"state_store"`
}
