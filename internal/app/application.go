// Package app wires configuration, storage, services and background jobs into a runnable
// application.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tonybigdeals/dog-project/internal/config"
	"github.com/tonybigdeals/dog-project/internal/httpapi"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/metrics"
	"github.com/tonybigdeals/dog-project/internal/middleware"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/services/applications"
	"github.com/tonybigdeals/dog-project/internal/services/auth"
	"github.com/tonybigdeals/dog-project/internal/services/dogs"
	"github.com/tonybigdeals/dog-project/internal/services/favorites"
	"github.com/tonybigdeals/dog-project/internal/services/forum"
	"github.com/tonybigdeals/dog-project/internal/services/messages"
	"github.com/tonybigdeals/dog-project/internal/services/submissions"
	"github.com/tonybigdeals/dog-project/internal/services/upload"
)

const limiterIdle = 10 * time.Minute

// Application ties the backend, domain services and background jobs together and manages
// their lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	backend *Backend

	limiter   middleware.Limiter
	redis     *redis.Client
	lifecycle []Service

	Services httpapi.Services
}

// New builds the application from cfg. It opens the backend but starts nothing.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.New("dog-project", cfg.Log.Level, cfg.Log.Format)
	}
	m := metrics.New()

	backend, err := OpenBackend(ctx, cfg, m, log)
	if err != nil {
		return nil, err
	}

	a := &Application{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		backend:  backend,
		Services: NewServices(backend.Stores, cfg, log),
	}

	scheduler := NewScheduler(log)
	if err := a.setupLimiter(ctx, scheduler); err != nil {
		_ = backend.Close()
		return nil, err
	}
	if backend.Ready && backend.Pinger != nil {
		if err := scheduler.Add("@every 1m", "backend-ping", pingBackendJob(backend.Pinger, backend.Name, log)); err != nil {
			_ = backend.Close()
			return nil, err
		}
	}
	a.lifecycle = append(a.lifecycle, scheduler)
	return a, nil
}

// NewServices constructs the domain services over stores.
func NewServices(stores Stores, cfg *config.Config, log *logging.Logger) httpapi.Services {
	notifier := services.NewNotifier(stores.Messages, log)
	return httpapi.Services{
		Auth:         auth.New(stores.Identity, log),
		Dogs:         dogs.New(stores.Dogs, log),
		Favorites:    favorites.New(stores.Favorites, log),
		Applications: applications.New(stores.Applications, notifier, log),
		Submissions:  submissions.New(stores.Submissions, stores.Dogs, stores.Profiles, notifier, log),
		Messages:     messages.New(stores.Messages),
		Upload: upload.New(stores.Objects, upload.Config{
			Bucket:   cfg.Upload.Bucket,
			MaxBytes: cfg.Upload.MaxBytes,
		}, log),
		Forum: forum.New(stores.Forum, stores.Profiles, log),
	}
}

// setupLimiter prefers a Redis-backed limiter shared across replicas and falls back to
// in-process buckets. A zero RPS disables rate limiting.
func (a *Application) setupLimiter(ctx context.Context, scheduler *Scheduler) error {
	rl := a.cfg.RateLimit
	if rl.RPS <= 0 {
		return nil
	}

	if a.cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(a.cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			a.log.WithError(err).Warn("redis unreachable; using in-process rate limiting")
			_ = client.Close()
		} else {
			a.redis = client
			a.limiter = middleware.NewRedisLimiter(client, int(rl.RPS*60)+rl.Burst, time.Minute)
			a.log.Info("rate limiting through redis")
			return nil
		}
	}

	local := middleware.NewRateLimiter(rl.RPS, rl.Burst)
	a.limiter = local
	return scheduler.Add("@every 1m", "limiter-cleanup", cleanupLimiterJob(local, limiterIdle, a.log))
}

// Handler returns the HTTP API.
func (a *Application) Handler() http.Handler {
	opts := httpapi.Options{
		Logger:         a.log,
		Metrics:        a.metrics,
		Backend:        a.backend.Name,
		Pinger:         a.backend.Pinger,
		Objects:        a.backend.ObjectReader,
		AllowedOrigins: a.cfg.Origins(),
		JWTSecret:      []byte(a.cfg.Supabase.JWTSecret),
		Verifier:       a.backend.Verifier,
		Limiter:        a.limiter,
	}
	ready := a.backend.Ready
	opts.Ready = func() bool { return ready }
	return httpapi.NewHandler(a.Services, opts)
}

// Start begins all background services.
func (a *Application) Start(ctx context.Context) error {
	for _, svc := range a.lifecycle {
		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// Stop stops background services in reverse order and closes connections.
func (a *Application) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(a.lifecycle) - 1; i >= 0; i-- {
		if err := a.lifecycle[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", a.lifecycle[i].Name(), err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
