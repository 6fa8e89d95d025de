package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage/localauth"
)

type user struct {
	id           domain.ID
	email        string
	passwordHash []byte
	createdAt    time.Time
}

// SignUp registers an account and creates its profile. Like a hosted provider with
// auto-confirm enabled, it also returns a session.
func (s *Store) SignUp(_ context.Context, email, password string) (domain.AuthResult, error) {
	email, err := localauth.NormalizeCredentials(email, password)
	if err != nil {
		return domain.AuthResult{}, err
	}
	hash, err := localauth.HashPassword(password)
	if err != nil {
		return domain.AuthResult{}, err
	}

	s.mu.Lock()
	if _, exists := s.users[email]; exists {
		s.mu.Unlock()
		return domain.AuthResult{}, localauth.ErrUserExists
	}
	u := user{
		id:           domain.ID(uuid.NewString()),
		email:        email,
		passwordHash: hash,
		createdAt:    s.now(),
	}
	s.users[email] = u
	s.profiles[u.id] = domain.Profile{ID: u.id, Email: email}
	s.mu.Unlock()

	return s.issuer.Issue(u.id, u.email, u.createdAt)
}

// SignIn verifies the password and issues a signed access token.
func (s *Store) SignIn(_ context.Context, email, password string) (domain.AuthResult, error) {
	s.mu.RLock()
	u, ok := s.users[localauth.NormalizeEmail(email)]
	s.mu.RUnlock()

	if !ok || !localauth.CheckPassword(u.passwordHash, password) {
		return domain.AuthResult{}, localauth.ErrInvalidCredentials
	}
	return s.issuer.Issue(u.id, u.email, u.createdAt)
}

// ParseToken verifies an access token issued by SignIn or SignUp.
func (s *Store) ParseToken(token string) (*localauth.Claims, error) {
	return s.issuer.Parse(token)
}
