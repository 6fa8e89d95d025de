package supabase

import (
	"context"
	"errors"
	"net/http"

	"github.com/tonybigdeals/dog-project/infra/supabase"
	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

// SignUp registers through GoTrue. Session is nil when the project requires email
// confirmation.
func (s *Store) SignUp(ctx context.Context, email, password string) (domain.AuthResult, error) {
	resp, err := s.client.Auth().SignUp(ctx, supabase.SignUpRequest{Email: email, Password: password})
	if err != nil {
		return domain.AuthResult{}, authError(err)
	}
	return toAuthResult(resp), nil
}

// SignIn uses the password grant.
func (s *Store) SignIn(ctx context.Context, email, password string) (domain.AuthResult, error) {
	resp, err := s.client.Auth().SignInWithPassword(ctx, email, password)
	if err != nil {
		return domain.AuthResult{}, authError(err)
	}
	return toAuthResult(resp), nil
}

// authError surfaces GoTrue rejections as user-facing messages. Transport failures and
// server errors pass through unchanged.
func authError(err error) error {
	var e *supabase.Error
	if errors.As(err, &e) && e.StatusCode < http.StatusInternalServerError {
		return &storage.AuthError{Message: e.Message}
	}
	return err
}

func toAuthResult(resp *supabase.AuthResponse) domain.AuthResult {
	var out domain.AuthResult
	if resp == nil {
		return out
	}
	out.User = toUser(resp.User)
	if resp.Session != nil {
		out.Session = &domain.Session{
			AccessToken:  resp.Session.AccessToken,
			TokenType:    resp.Session.TokenType,
			ExpiresIn:    resp.Session.ExpiresIn,
			ExpiresAt:    resp.Session.ExpiresAt,
			RefreshToken: resp.Session.RefreshToken,
			User:         toUser(resp.Session.User),
		}
		if out.User == nil {
			out.User = out.Session.User
		}
	}
	return out
}

func toUser(u *supabase.User) *domain.User {
	if u == nil {
		return nil
	}
	out := &domain.User{
		ID:           domain.ID(u.ID),
		Email:        u.Email,
		Role:         u.Role,
		Aud:          u.Aud,
		UserMetadata: u.UserMetadata,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		out.CreatedAt = &created
	}
	return out
}
