package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func quietLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logging.New("test", "debug", "json")
	l.SetOutput(&buf)
	return l, &buf
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://dogs.example.com"}
	cases := map[string]bool{
		"":                               true,
		"http://localhost:5173":          true,
		"http://127.0.0.1:3000":          true,
		"https://dog-project.vercel.app": true,
		"https://dogs.example.com":       true,
		"https://evil.example.com":       false,
		"http://localhost":               false,
	}
	for origin, want := range cases {
		assert.Equal(t, want, OriginAllowed(origin, allowed), origin)
	}
}

func TestCORSPreflight(t *testing.T) {
	logger, _ := quietLogger()
	h := CORS(nil, logger)(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/dogs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSRejectedOrigin(t *testing.T) {
	logger, buf := quietLogger()
	h := CORS([]string{"https://dogs.example.com"}, logger)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/dogs", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, buf.String(), "cors_origin_rejected")
}

func TestCORSExposesRangeHeaders(t *testing.T) {
	h := CORS([]string{"https://dogs.example.com"}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/dogs", nil)
	req.Header.Set("Origin", "https://dogs.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://dogs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Range")
}

func signToken(t *testing.T, secret []byte, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "a@b.co",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)
	return s
}

type captured struct {
	token, userID string
}

func capture(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.token = logging.GetAccessToken(r.Context())
		c.userID = GetUserID(r.Context())
	})
}

func TestBearerAuthVerified(t *testing.T) {
	secret := []byte("super-secret")
	token := signToken(t, secret, "user-1")

	var got captured
	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	BearerAuth(secret, nil, nil)(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, token, got.token)
	assert.Equal(t, "user-1", got.userID)
}

func TestBearerAuthBadSignatureStillForwardsToken(t *testing.T) {
	logger, buf := quietLogger()
	token := signToken(t, []byte("other-secret"), "user-1")

	var got captured
	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	BearerAuth([]byte("super-secret"), nil, logger)(capture(&got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, got.token)
	assert.Empty(t, got.userID)
	assert.Contains(t, buf.String(), "bearer_token_rejected")
}

func TestBearerAuthWithoutVerifierIgnoresSubject(t *testing.T) {
	token := signToken(t, []byte("whatever"), "user-2")

	var got captured
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	BearerAuth(nil, nil, nil)(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, token, got.token)
	assert.Empty(t, got.userID)
}

func TestBearerAuthAsksVerifier(t *testing.T) {
	token := signToken(t, []byte("issuer-key"), "user-3")
	calls := 0
	verifier := VerifierFunc(func(_ context.Context, tok string) (*Claims, error) {
		calls++
		if tok != token {
			return nil, errors.New("unknown token")
		}
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-3"}}, nil
	})

	var got captured
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	BearerAuth(nil, verifier, nil)(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "user-3", got.userID)

	forged := signToken(t, []byte("attacker"), "user-3")
	got = captured{}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	BearerAuth(nil, verifier, nil)(capture(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, got.userID)
	assert.Equal(t, 2, calls)
}

func TestCachedVerifier(t *testing.T) {
	calls := 0
	inner := VerifierFunc(func(context.Context, string) (*Claims, error) {
		calls++
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}, nil
	})
	cv := NewCachedVerifier(inner, time.Minute, 1)
	now := time.Now()
	cv.now = func() time.Time { return now }
	ctx := context.Background()

	token := signToken(t, []byte("k"), "user-1")
	for i := 0; i < 3; i++ {
		claims, err := cv.VerifyToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	}
	assert.Equal(t, 1, calls)

	// Cache is full; a second token is verified but not stored.
	other := signToken(t, []byte("k"), "user-2")
	_, err := cv.VerifyToken(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 1, cv.Len())

	now = now.Add(2 * time.Minute)
	_, err = cv.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	_, err = cv.VerifyToken(ctx, "not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestForgedSubjectsShareTheIPBucket(t *testing.T) {
	logger, _ := quietLogger()
	h := BearerAuth(nil, nil, logger)(RateLimit(NewRateLimiter(0.001, 1), logger)(okHandler()))

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/dogs", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("forged"), fmt.Sprintf("user-%d", i)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	assert.Equal(t, 1, passed)
}

func TestBearerAuthNoHeader(t *testing.T) {
	var got captured
	BearerAuth(nil, nil, nil)(capture(&got)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, captured{}, got)
}

func TestRateLimiterBurstAndCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, rl.Cleanup(5*time.Minute))
	assert.Equal(t, 0, rl.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	logger, buf := quietLogger()
	h := RateLimit(NewRateLimiter(0.001, 1), logger)(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/dogs", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "rate_limit_exceeded")
	assert.Contains(t, buf.String(), "10.0.0.1")
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestRateLimitFailsOpen(t *testing.T) {
	logger, _ := quietLogger()
	rec := httptest.NewRecorder()
	RateLimit(brokenLimiter{}, logger)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoggingMiddlewareTraceID(t *testing.T) {
	logger, buf := quietLogger()
	var seen string
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/dogs", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", seen)
	assert.Equal(t, "trace-123", rec.Header().Get("X-Trace-ID"))
	assert.Contains(t, buf.String(), "trace-123")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dogs", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := mux.NewRouter()
	r.Use(MetricsMiddleware("api", m))
	r.HandleFunc("/dogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dogs/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dogs/43", nil))

	n, err := testutil.GatherAndCount(m.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
