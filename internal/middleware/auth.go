package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tonybigdeals/dog-project/internal/logging"
)

// Claims is the subset of a Supabase access token the API reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks a token with whoever issued it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// VerifierFunc adapts a function to TokenVerifier.
type VerifierFunc func(ctx context.Context, token string) (*Claims, error)

func (f VerifierFunc) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	return f(ctx, token)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// BearerAuth attaches the caller's bearer token and, once verified, its subject to the
// request context. It never rejects: routes stay public and the upstream enforces row-level
// policies with the forwarded token.
//
// A non-empty secret verifies HS256 signatures locally. Otherwise verifier is asked. With
// neither, the subject is never set, so rate limiting falls back to the client IP.
func BearerAuth(secret []byte, verifier TokenVerifier, logger *logging.Logger) func(http.Handler) http.Handler {
	if len(secret) > 0 {
		verifier = hmacVerifier(secret)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := logging.WithAccessToken(r.Context(), token)
			if verifier != nil {
				claims, err := verifier.VerifyToken(ctx, token)
				switch {
				case err != nil:
					if logger != nil {
						logger.LogSecurityEvent(ctx, "bearer_token_rejected", map[string]interface{}{
							"path":  r.URL.Path,
							"error": err.Error(),
						})
					}
				case claims.Subject != "":
					ctx = logging.WithUserID(ctx, claims.Subject)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hmacVerifier(secret []byte) VerifierFunc {
	return func(_ context.Context, token string) (*Claims, error) {
		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil, fmt.Errorf("verify token: %w", err)
		}
		if !parsed.Valid {
			return nil, fmt.Errorf("verify token: invalid")
		}
		return claims, nil
	}
}

// CachedVerifier remembers successful verifications until the token expires or ttl passes,
// whichever comes first. Failures are not cached.
type CachedVerifier struct {
	next       TokenVerifier
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]cachedClaims
}

type cachedClaims struct {
	claims  *Claims
	expires time.Time
}

func NewCachedVerifier(next TokenVerifier, ttl time.Duration, maxEntries int) *CachedVerifier {
	return &CachedVerifier{
		next:       next,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]cachedClaims),
	}
}

func (c *CachedVerifier) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	now := c.now()
	c.mu.Lock()
	entry, ok := c.entries[token]
	c.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.claims, nil
	}

	// Expired or malformed tokens never reach the issuer.
	unverified := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, unverified); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if unverified.ExpiresAt != nil && !now.Before(unverified.ExpiresAt.Time) {
		return nil, fmt.Errorf("verify token: expired")
	}

	claims, err := c.next.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	// The issuer accepted the token, so its exp claim can be trusted.
	expires := now.Add(c.ttl)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = unverified.ExpiresAt
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(expires) {
		expires = claims.ExpiresAt.Time
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		for k, e := range c.entries {
			if !now.Before(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	if len(c.entries) < c.maxEntries {
		c.entries[token] = cachedClaims{claims: claims, expires: expires}
	}
	return claims, nil
}

// Len reports the number of cached tokens.
func (c *CachedVerifier) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetUserID returns the verified subject, if any.
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}
