// Package supabase provides a Supabase client covering the PostgREST database API,
// GoTrue auth, and object storage.
package supabase

import (
	"net/http"
	"time"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds Supabase client configuration.
type Config struct {
	// ProjectURL is the Supabase project URL (e.g., https://xxx.supabase.co)
	ProjectURL string

	// AnonKey is the public anon key. Requests made with it are subject to RLS.
	AnonKey string

	// ServiceRoleKey bypasses RLS. When set it is used for every request.
	ServiceRoleKey string

	// AllowedHosts restricts outbound requests (derived from ProjectURL if empty)
	AllowedHosts []string

	// DefaultHeaders are added to every request
	DefaultHeaders map[string]string

	// Timeout for HTTP requests
	Timeout time.Duration

	// HTTPClient overrides the default transport, mostly for tests.
	HTTPClient *http.Client

	// Retry configures retries of idempotent reads.
	Retry RetryConfig

	// Breaker configures the circuit breaker guarding all requests.
	Breaker BreakerConfig

	// OnRequest, when set, is called after every upstream round trip.
	OnRequest func(method string, status int, err error, duration time.Duration)
}

// =============================================================================
// Auth Types
// =============================================================================

// User represents a Supabase user.
type User struct {
	ID               string                 `json:"id"`
	Aud              string                 `json:"aud"`
	Role             string                 `json:"role"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	Phone            string                 `json:"phone,omitempty"`
	ConfirmedAt      *time.Time             `json:"confirmed_at,omitempty"`
	LastSignInAt     *time.Time             `json:"last_sign_in_at,omitempty"`
	AppMetadata      map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Session represents an auth session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// AuthResponse is the normalized result of signup and sign-in. Session is nil when the
// project requires email confirmation before issuing tokens.
type AuthResponse struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// SignUpRequest for user registration.
type SignUpRequest struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// =============================================================================
// Database Types
// =============================================================================

// FilterOperator for query filters.
type FilterOperator string

const (
	OpEq    FilterOperator = "eq"
	OpILike FilterOperator = "ilike"
)

// OrderDirection for sorting.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// =============================================================================
// Storage Types
// =============================================================================

// FileObject represents a file in storage.
type FileObject struct {
	Name     string `json:"name"`
	Key      string `json:"key,omitempty"`
	BucketID string `json:"bucket_id,omitempty"`
}

// UploadOptions for file uploads.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// =============================================================================
// Error Types
// =============================================================================

// Error represents a Supabase API error.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"status_code"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
