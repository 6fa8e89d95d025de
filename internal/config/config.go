// Package config loads server settings from an optional YAML file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when CONFIG_FILE is unset and the file exists.
const DefaultConfigPath = "config/server.yaml"

// Storage backends.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Upload    UploadConfig    `yaml:"upload"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	AllowedOrigins  string        `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type SupabaseConfig struct {
	URL            string        `yaml:"url" env:"SUPABASE_URL"`
	ServiceRoleKey string        `yaml:"service_role_key" env:"SUPABASE_SERVICE_ROLE_KEY"`
	AnonKey        string        `yaml:"anon_key" env:"SUPABASE_ANON_KEY"`
	LegacyKey      string        `yaml:"-" env:"SUPABASE_KEY"`
	JWTSecret      string        `yaml:"jwt_secret" env:"SUPABASE_JWT_SECRET"`
	Timeout        time.Duration `yaml:"timeout" env:"SUPABASE_TIMEOUT"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend" env:"STORAGE_BACKEND"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type UploadConfig struct {
	Bucket   string `yaml:"bucket" env:"UPLOAD_BUCKET"`
	MaxBytes int64  `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5001,
			ShutdownTimeout: 15 * time.Second,
		},
		Supabase: SupabaseConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendSupabase,
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Upload: UploadConfig{
			Bucket:   "dog-images",
			MaxBytes: 5 << 20,
		},
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE or DefaultConfigPath
// (if present), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load without the .env step. An empty path skips the YAML layer.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Supabase.AnonKey == "" {
		c.Supabase.AnonKey = c.Supabase.LegacyKey
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSupabase
	}
	c.Supabase.URL = strings.TrimRight(c.Supabase.URL, "/")
}

// Validate rejects settings the server cannot start with. Missing Supabase credentials are
// not an error: the API starts and answers 500 until they are provided.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSupabase, BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("config: rate limit must not be negative")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("config: upload max bytes must be positive")
	}
	return nil
}

// SupabaseConfigured reports whether a Supabase URL and at least one key are set.
func (c *Config) SupabaseConfigured() bool {
	return c.Supabase.URL != "" && (c.Supabase.ServiceRoleKey != "" || c.Supabase.AnonKey != "")
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
