package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tonybigdeals/dog-project/infra/supabase"
	"github.com/tonybigdeals/dog-project/internal/middleware"
	"github.com/tonybigdeals/dog-project/internal/storage/localauth"
)

const (
	verifiedTokenTTL = 5 * time.Minute
	maxCachedTokens  = 10000
)

// tokenParser is implemented by backends that issue their own access tokens.
type tokenParser interface {
	ParseToken(token string) (*localauth.Claims, error)
}

func localVerifier(p tokenParser) middleware.TokenVerifier {
	return middleware.VerifierFunc(func(_ context.Context, token string) (*middleware.Claims, error) {
		c, err := p.ParseToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{Email: c.Email, Role: c.Role, RegisteredClaims: c.RegisteredClaims}, nil
	})
}

// supabaseVerifier asks GoTrue who owns the token. Answers are cached so a signed-in user
// costs one upstream call per verifiedTokenTTL.
func supabaseVerifier(auth *supabase.AuthClient) middleware.TokenVerifier {
	return middleware.NewCachedVerifier(middleware.VerifierFunc(func(ctx context.Context, token string) (*middleware.Claims, error) {
		u, err := auth.GetUser(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		claims := &middleware.Claims{Email: u.Email, Role: u.Role}
		claims.Subject = u.ID
		return claims, nil
	}), verifiedTokenTTL, maxCachedTokens)
}
