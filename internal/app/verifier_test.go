package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/infra/supabase"
	"github.com/tonybigdeals/dog-project/internal/storage/memory"
)

func gotrueToken(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("gotrue-secret"))
	require.NoError(t, err)
	return s
}

func TestSupabaseVerifierCachesGetUser(t *testing.T) {
	good := gotrueToken(t, "user-1")
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("Authorization") != "Bearer "+good {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"user-1","email":"a@b.co","role":"authenticated"}`))
	}))
	defer srv.Close()

	client, err := supabase.New(supabase.Config{ProjectURL: srv.URL, AnonKey: "anon"})
	require.NoError(t, err)
	v := supabaseVerifier(client.Auth())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		claims, err := v.VerifyToken(ctx, good)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err = v.VerifyToken(ctx, gotrueToken(t, "user-2"))
	require.Error(t, err)
}

func TestLocalVerifierAcceptsIssuedTokens(t *testing.T) {
	store := memory.New(memory.WithJWTSecret([]byte("local")))
	ctx := context.Background()
	res, err := store.SignUp(ctx, "a@b.co", "secret1")
	require.NoError(t, err)
	require.NotNil(t, res.Session)

	v := localVerifier(store)
	claims, err := v.VerifyToken(ctx, res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(res.User.ID), claims.Subject)

	_, err = v.VerifyToken(ctx, gotrueToken(t, string(res.User.ID)))
	require.Error(t, err)
}
