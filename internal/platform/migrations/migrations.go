// Package migrations embeds the marketplace schema and applies it with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed sql/*.sql
var files embed.FS

// TableName records applied versions. It is kept apart from Supabase's own migration table.
const TableName = "marketplace_schema_migrations"

// Source returns the embedded migration files as a golang-migrate source.
func Source() (source.Driver, error) {
	return iofs.New(files, "sql")
}

// New builds a migrator on its own connection to dsn. Closing the migrator closes the
// connection.
func New(dsn string) (*migrate.Migrate, error) {
	src, err := Source()
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: TableName})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

// Apply migrates db to the latest version. It is a no-op when the schema is current.
func Apply(ctx context.Context, dsn string) error {
	m, err := New(dsn)
	if err != nil {
		return err
	}
	return run(ctx, m, m.Up)
}

// Rollback reverts every applied migration.
func Rollback(ctx context.Context, dsn string) error {
	m, err := New(dsn)
	if err != nil {
		return err
	}
	return run(ctx, m, m.Down)
}

// Version reports the applied version and whether the last migration failed halfway.
func Version(dsn string) (uint, bool, error) {
	m, err := New(dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func run(ctx context.Context, m *migrate.Migrate, step func() error) error {
	defer m.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := step(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
