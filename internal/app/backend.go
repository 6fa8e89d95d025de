package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tonybigdeals/dog-project/infra/supabase"
	"github.com/tonybigdeals/dog-project/internal/config"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/metrics"
	"github.com/tonybigdeals/dog-project/internal/middleware"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/storage/memory"
	"github.com/tonybigdeals/dog-project/internal/storage/postgres"
	sbstore "github.com/tonybigdeals/dog-project/internal/storage/supabase"
)

// Stores is the persistence surface handed to the services.
type Stores struct {
	Identity     storage.Identity
	Dogs         storage.DogStore
	Favorites    storage.FavoriteStore
	Applications storage.ApplicationStore
	Submissions  storage.SubmissionStore
	Messages     storage.MessageStore
	Profiles     storage.ProfileStore
	Forum        storage.ForumStore
	Objects      storage.ObjectStore
}

// localStore is what the memory backend provides in one value.
type localStore interface {
	storage.Identity
	storage.DogStore
	storage.FavoriteStore
	storage.ApplicationStore
	storage.SubmissionStore
	storage.MessageStore
	storage.ProfileStore
	storage.ForumStore
	storage.ObjectStore
}

func storesFrom(s localStore) Stores {
	return Stores{
		Identity:     s,
		Dogs:         s,
		Favorites:    s,
		Applications: s,
		Submissions:  s,
		Messages:     s,
		Profiles:     s,
		Forum:        s,
		Objects:      s,
	}
}

// Backend is the selected storage backend.
type Backend struct {
	Name   string
	Stores Stores
	// Ready is false when the backend was selected but could not be configured.
	Ready  bool
	Pinger storage.Pinger
	// ObjectReader is set when uploads are kept locally and served by the API.
	ObjectReader storage.ObjectReader
	// Verifier checks bearer tokens issued by this backend.
	Verifier middleware.TokenVerifier

	closers []func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	var errs []string
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close backend: %s", strings.Join(errs, "; "))
	}
	return nil
}

// OpenBackend builds the backend named in cfg.Storage.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logging.Logger) (*Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendSupabase:
		return openSupabase(cfg, m, log)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, m, log)
	case config.BackendMemory:
		mem := newMemory(cfg)
		return &Backend{
			Name:         config.BackendMemory,
			Stores:       storesFrom(mem),
			Ready:        true,
			Pinger:       mem,
			ObjectReader: mem,
			Verifier:     localVerifier(mem),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newMemory(cfg *config.Config) *memory.Store {
	return memory.New(
		memory.WithJWTSecret([]byte(cfg.Supabase.JWTSecret)),
		memory.WithPublicBaseURL("/uploads"),
	)
}

// NewSupabaseClient builds the shared client and reports upstream calls to m.
func NewSupabaseClient(cfg *config.Config, m *metrics.Metrics) (*supabase.Client, error) {
	sc := supabase.Config{
		ProjectURL:     cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		Timeout:        cfg.Supabase.Timeout,
	}
	if m != nil {
		sc.OnRequest = func(method string, status int, _ error, _ time.Duration) {
			m.RecordSupabaseRequest(method, status)
		}
	}
	return supabase.New(sc)
}

func openSupabase(cfg *config.Config, m *metrics.Metrics, log *logging.Logger) (*Backend, error) {
	if !cfg.SupabaseConfigured() {
		log.Warn("Supabase URL or key missing; persistence routes will answer 500 until configured")
		// The stores are never reached while Ready is false.
		return &Backend{Name: config.BackendSupabase, Stores: storesFrom(newMemory(cfg))}, nil
	}
	if cfg.Supabase.ServiceRoleKey == "" {
		log.Warn("SUPABASE_SERVICE_ROLE_KEY not set; requests run with the caller's token or the anon key")
	}

	client, err := NewSupabaseClient(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	store := sbstore.New(client)
	return &Backend{
		Name: config.BackendSupabase,
		Stores: Stores{
			Identity:     store,
			Dogs:         store,
			Favorites:    store,
			Applications: store,
			Submissions:  store,
			Messages:     store,
			Profiles:     store,
			Forum:        store,
			Objects:      store,
		},
		Ready:    true,
		Pinger:   store,
		Verifier: supabaseVerifier(client.Auth()),
	}, nil
}

// openPostgres talks to the database directly. Uploads go to Supabase Storage when it is
// configured and are kept in process otherwise.
func openPostgres(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logging.Logger) (*Backend, error) {
	db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := postgres.New(db, []byte(cfg.Supabase.JWTSecret))

	b := &Backend{
		Name: config.BackendPostgres,
		Stores: Stores{
			Identity:     store,
			Dogs:         store,
			Favorites:    store,
			Applications: store,
			Submissions:  store,
			Messages:     store,
			Profiles:     store,
			Forum:        store,
		},
		Ready:    true,
		Pinger:   store,
		Verifier: localVerifier(store),
		closers:  []func() error{closeDB(db)},
	}

	if cfg.SupabaseConfigured() {
		client, err := NewSupabaseClient(cfg, m)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("supabase client: %w", err)
		}
		b.Stores.Objects = sbstore.New(client)
	} else {
		log.Warn("Supabase Storage not configured; uploads are kept in memory")
		mem := newMemory(cfg)
		b.Stores.Objects = mem
		b.ObjectReader = mem
	}
	return b, nil
}

func closeDB(db *sqlx.DB) func() error {
	return db.Close
}
