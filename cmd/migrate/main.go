// Command migrate applies the embedded schema migrations to DATABASE_URL.
//
//	migrate up | down | version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tonybigdeals/dog-project/internal/config"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/platform/migrations"
)

func main() {
	dsnFlag := flag.String("dsn", "", "Postgres connection string (defaults to DATABASE_URL)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-dsn url] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logging.NewDefault("migrate")
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	dsn := *dsnFlag
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.WithError(err).Fatal("load configuration")
		}
		dsn = cfg.Storage.DatabaseURL
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL or -dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := migrations.Apply(ctx, dsn); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
		log.Info("schema up to date")
	case "down":
		if err := migrations.Rollback(ctx, dsn); err != nil {
			log.WithError(err).Fatal("roll back migrations")
		}
		log.Info("schema rolled back")
	case "version":
		v, dirty, err := migrations.Version(dsn)
		if err != nil {
			log.WithError(err).Fatal("read schema version")
		}
		log.WithField("version", v).WithField("dirty", dirty).Info("schema version")
	default:
		log.WithField("command", cmd).Error("unknown command")
		flag.Usage()
		os.Exit(2)
	}
}
