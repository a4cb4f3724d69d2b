package domain

// Capabilities are the static properties of a provider integration.
type Capabilities struct {
	SupportsRefresh           bool `json:"supports_refresh"`
	TokensExpire              bool `json:"tokens_expire"`
	RequiresResourceDiscovery bool `json:"requires_resource_discovery"`
}

// Exchange is a provider token response normalized across providers.
// ExpiresIn is seconds; zero means the provider did not say.
type Exchange struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Scopes       []string
	Metadata     map[string]string
}

// Resource is an accessible site returned by resource discovery.
type Resource struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ProviderInfo describes a configured provider to API clients.
type ProviderInfo struct {
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"capabilities"`
}
