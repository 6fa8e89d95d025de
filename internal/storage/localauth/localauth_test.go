package localauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/storage"
)

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewIssuer([]byte("secret"), func() time.Time { return now })

	res, err := issuer.Issue("user-1", "a@b.co", now.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, 3600, res.Session.ExpiresIn)
	assert.Equal(t, "bearer", res.Session.TokenType)
	assert.Same(t, res.User, res.Session.User)

	claims, err := NewIssuer([]byte("secret"), nil).Parse(res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.co", claims.Email)

	_, err = NewIssuer([]byte("other"), nil).Parse(res.Session.AccessToken)
	assert.Error(t, err)
}

func TestNormalizeCredentials(t *testing.T) {
	email, err := NormalizeCredentials("  Bob@Example.COM ", "123456")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)

	var authErr *storage.AuthError
	_, err = NormalizeCredentials("not-an-email", "123456")
	require.ErrorAs(t, err, &authErr)

	_, err = NormalizeCredentials("bob@example.com", "12345")
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "at least 6")
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
