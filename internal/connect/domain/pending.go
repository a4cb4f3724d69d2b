package domain

import "time"

// PendingAuthorization binds an outstanding state value to the user and
// provider that started the flow. It lives until consumed or expired.
type PendingAuthorization struct {
	State     string    `json:"state"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the entry is past its TTL at now.
func (p PendingAuthorization) ExpiredAt(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
