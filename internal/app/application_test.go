package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/config"
	"github.com/tonybigdeals/dog-project/internal/logging"
)

func testLogger() *logging.Logger {
	l := logging.New("app-test", "error", "json")
	l.SetOutput(&bytes.Buffer{})
	return l
}

func newApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	mutate(cfg)
	a, err := New(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})
	return a
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMemoryBackendServes(t *testing.T) {
	a := newApp(t, func(c *config.Config) { c.Storage.Backend = config.BackendMemory })
	h := a.Handler()

	rec := get(h, "/dogs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = get(h, "/health/details")
	assert.Contains(t, rec.Body.String(), `"backend":"memory"`)
}

func TestUnconfiguredSupabaseGuardsRoutes(t *testing.T) {
	a := newApp(t, func(c *config.Config) { c.Storage.Backend = config.BackendSupabase })
	h := a.Handler()

	rec := get(h, "/forum")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Supabase client not initialized")

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
}

func TestRateLimitApplied(t *testing.T) {
	a := newApp(t, func(c *config.Config) {
		c.Storage.Backend = config.BackendMemory
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 1
	})
	h := a.Handler()

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/health").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	a := newApp(t, func(c *config.Config) {
		c.Storage.Backend = config.BackendMemory
		c.RateLimit.RPS = 0
	})
	assert.Nil(t, a.limiter)
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(testLogger())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add("@every 1s", "tick", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	require.Error(t, s.Add("not a spec", "bad", func() {}))

	require.NoError(t, s.Start(context.Background()))
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	require.NoError(t, s.Stop(context.Background()))
}
