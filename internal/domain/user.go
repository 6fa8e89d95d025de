package domain

import "time"

// User is an authenticated principal as reported by the identity provider.
type User struct {
	ID           ID                     `json:"id"`
	Email        string                 `json:"email"`
	Role         string                 `json:"role,omitempty"`
	Aud          string                 `json:"aud,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
}

// Session carries the tokens issued at sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// AuthResult is returned by register and login. Session is nil when the provider
// requires email confirmation first.
type AuthResult struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}
