package domain

import "time"

// TokenRecord is the durable credential for one (user, provider) pair.
// AccessToken and RefreshToken hold ciphertext; an empty RefreshToken means
// the provider never issued one.
type TokenRecord struct {
	ID           string
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time // nil: the token does not expire
	Scopes       []string
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Refreshable reports whether a refresh grant can be attempted.
func (r TokenRecord) Refreshable() bool {
	return r.RefreshToken != "" && r.ExpiresAt != nil
}

// ExpiredAt reports whether the access token should be treated as expired at
// now, given a safety margin for clock skew and in-flight latency.
func (r TokenRecord) ExpiredAt(now time.Time, skew time.Duration) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return !now.Before(r.ExpiresAt.Add(-skew))
}

// Connection is the secret-free view of a TokenRecord returned to callers.
type Connection struct {
	UserID      string            `json:"user_id"`
	Provider    string            `json:"provider"`
	Scopes      []string          `json:"scopes"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at"`
	Refreshable bool              `json:"refreshable"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ConnectionOf strips secrets from a record.
func ConnectionOf(r TokenRecord) *Connection {
	return &Connection{
		UserID:      r.UserID,
		Provider:    r.Provider,
		Scopes:      r.Scopes,
		Metadata:    r.Metadata,
		ExpiresAt:   r.ExpiresAt,
		Refreshable: r.Refreshable(),
		UpdatedAt:   r.UpdatedAt,
	}
}

// ConnectionStatus is one entry of a user's status report.
type ConnectionStatus struct {
	Connected   bool       `json:"connected"`
	Expired     bool       `json:"expired"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Scopes      []string   `json:"scopes"`
	Refreshable bool       `json:"refreshable"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Credentials is what collaborators receive when they need to call a
// provider API: a usable access token and the non-secret metadata needed to
// address it (e.g. the Jira cloud id).
type Credentials struct {
	Provider    string            `json:"provider"`
	AccessToken string            `json:"access_token"`
	ExpiresAt   *time.Time        `json:"expires_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
