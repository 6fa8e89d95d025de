package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/storage/localauth"
)

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// SignUp stores the account and its profile in one transaction.
func (s *Store) SignUp(ctx context.Context, email, password string) (domain.AuthResult, error) {
	email, err := localauth.NormalizeCredentials(email, password)
	if err != nil {
		return domain.AuthResult{}, err
	}
	hash, err := localauth.HashPassword(password)
	if err != nil {
		return domain.AuthResult{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.AuthResult{}, mapError(err, "begin sign up")
	}
	defer tx.Rollback() //nolint:errcheck

	var row userRow
	err = tx.GetContext(ctx, &row, `
		INSERT INTO app_users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, created_at`,
		uuid.NewString(), email, string(hash))
	if err != nil {
		err = mapError(err, "create user")
		if errors.Is(err, storage.ErrConflict) {
			return domain.AuthResult{}, localauth.ErrUserExists
		}
		return domain.AuthResult{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, email) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		row.ID, row.Email); err != nil {
		return domain.AuthResult{}, mapError(err, "create profile")
	}
	if err := tx.Commit(); err != nil {
		return domain.AuthResult{}, mapError(err, "commit sign up")
	}
	return s.issuer.Issue(domain.ID(row.ID), row.Email, row.CreatedAt)
}

func (s *Store) SignIn(ctx context.Context, email, password string) (domain.AuthResult, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, email, password_hash, created_at FROM app_users WHERE email = $1`,
		localauth.NormalizeEmail(email))
	if err != nil {
		if errors.Is(mapError(err, "find user"), storage.ErrNotFound) {
			return domain.AuthResult{}, localauth.ErrInvalidCredentials
		}
		return domain.AuthResult{}, mapError(err, "find user")
	}
	if !localauth.CheckPassword([]byte(row.PasswordHash), password) {
		return domain.AuthResult{}, localauth.ErrInvalidCredentials
	}
	return s.issuer.Issue(domain.ID(row.ID), row.Email, row.CreatedAt)
}

// ParseToken verifies an access token issued by SignIn or SignUp.
func (s *Store) ParseToken(token string) (*localauth.Claims, error) {
	return s.issuer.Parse(token)
}
