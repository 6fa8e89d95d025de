// Package localauth provides password hashing and token issuance for backends that manage
// their own accounts instead of delegating to GoTrue.
package localauth

import (
	"crypto/rand"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

const (
	// MinPasswordLength matches the GoTrue default.
	MinPasswordLength = 6
	// DefaultTTL is the access token lifetime.
	DefaultTTL = time.Hour

	roleAuthenticated = "authenticated"
)

var (
	ErrInvalidCredentials = &storage.AuthError{Message: "Invalid login credentials"}
	ErrUserExists         = &storage.AuthError{Message: "User already registered"}
)

// Claims mirrors the claims GoTrue puts in its access tokens so the bearer middleware
// treats both providers alike.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. An empty secret is replaced by a random one, which means
// tokens do not survive a restart.
func NewIssuer(secret []byte, now func() time.Time) *Issuer {
	if len(secret) == 0 {
		secret = randomSecret()
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, ttl: DefaultTTL, now: now}
}

// Issue builds the register/login result for an account.
func (i *Issuer) Issue(id domain.ID, email string, createdAt time.Time) (domain.AuthResult, error) {
	now := i.now()
	claims := Claims{
		Email: email,
		Role:  roleAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(id),
			Audience:  jwt.ClaimStrings{roleAuthenticated},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("sign token: %w", err)
	}

	created := createdAt.UTC()
	u := &domain.User{
		ID:        id,
		Email:     email,
		Role:      roleAuthenticated,
		Aud:       roleAuthenticated,
		CreatedAt: &created,
	}
	return domain.AuthResult{
		User: u,
		Session: &domain.Session{
			AccessToken:  signed,
			TokenType:    "bearer",
			ExpiresIn:    int(i.ttl.Seconds()),
			ExpiresAt:    now.Add(i.ttl).Unix(),
			RefreshToken: uuid.NewString(),
			User:         u,
		},
	}, nil
}

// Parse verifies a token issued by i.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCredentials normalizes the email and checks the password length.
func NormalizeCredentials(email, password string) (string, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", &storage.AuthError{Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < MinPasswordLength {
		return "", &storage.AuthError{Message: fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength)}
	}
	return email, nil
}

func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("localauth: generate secret: %v", err))
	}
	return b
}
