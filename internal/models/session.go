// internal/models/session.go
package models

import "time"

// Session binds a browser cookie to an identity and role.
type Session struct {
	ID             string    `json:"id"`
	UserIdentifier string    `json:"userIdentifier"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// IsExpired checks if session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
