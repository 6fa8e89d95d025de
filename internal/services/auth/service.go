// Package auth delegates registration and login to the configured identity provider.
package auth

import (
	"context"
	"errors"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

// Service wraps an identity provider. Passwords never pass through anything else.
type Service struct {
	identity storage.Identity
	log      *logging.Logger
}

func New(identity storage.Identity, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("auth")
	}
	return &Service{identity: identity, log: log}
}

// Register creates an account. Provider rejections become 400s carrying the provider's text.
func (s *Service) Register(ctx context.Context, email, password string) (domain.AuthResult, error) {
	res, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return domain.AuthResult{}, s.translate(ctx, "register", err)
	}
	return res, nil
}

// Login verifies credentials with the password grant.
func (s *Service) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	res, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return domain.AuthResult{}, s.translate(ctx, "login", err)
	}
	return res, nil
}

func (s *Service) translate(ctx context.Context, op string, err error) error {
	var authErr *storage.AuthError
	if errors.As(err, &authErr) {
		return services.Validation(authErr.Message)
	}
	s.log.WithContext(ctx).WithError(err).WithField("op", op).Error("identity provider failed")
	return services.Upstream(err)
}
