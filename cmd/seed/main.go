// Command seed loads dog listings from a YAML or JSON file into the configured backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tonybigdeals/dog-project/internal/app"
	"github.com/tonybigdeals/dog-project/internal/config"
	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services/dogs"
)

type seedDog struct {
	Name        string   `yaml:"name"`
	Age         string   `yaml:"age"`
	Breed       string   `yaml:"breed"`
	Location    string   `yaml:"location"`
	Image       string   `yaml:"image"`
	Gender      string   `yaml:"gender"`
	Description *string  `yaml:"description"`
	Traits      []string `yaml:"traits"`
}

type seedFile struct {
	Dogs []seedDog `yaml:"dogs"`
}

// loadDogs parses a seed file. JSON is valid YAML, so one decoder covers both.
func loadDogs(data []byte) ([]domain.Dog, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]domain.Dog, 0, len(f.Dogs))
	for i, d := range f.Dogs {
		if d.Name == "" || d.Breed == "" {
			return nil, fmt.Errorf("dog %d: name and breed are required", i)
		}
		if d.Gender == "" {
			d.Gender = domain.DefaultGender
		}
		if d.Traits == nil {
			d.Traits = []string{}
		}
		out = append(out, domain.Dog{
			Name:        d.Name,
			Age:         d.Age,
			Breed:       d.Breed,
			Location:    d.Location,
			Image:       d.Image,
			Gender:      d.Gender,
			Description: d.Description,
			Traits:      d.Traits,
		})
	}
	return out, nil
}

// seed inserts dogs whose name is not already listed and returns how many were created.
func seed(ctx context.Context, svc *dogs.Service, list []domain.Dog) (int, error) {
	existing, err := svc.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list dogs: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d.Name] = true
	}

	created := 0
	for _, d := range list {
		if seen[d.Name] {
			continue
		}
		if _, err := svc.Create(ctx, d); err != nil {
			return created, fmt.Errorf("create dog %q: %w", d.Name, err)
		}
		seen[d.Name] = true
		created++
	}
	return created, nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], logging.NewDefault("seed")))
}

// run returns the process exit code so deferred cleanup always happens.
func run(ctx context.Context, args []string, log *logging.Logger) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("file", "config/seed/dogs.yaml", "YAML or JSON file with a top-level dogs list")
	envFile := fs.String("env", "", "Optional .env file to load first")
	if err := fs.Parse(args); err != nil {
		log.WithError(err).Error("parse flags")
		return 2
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.WithError(err).Errorf("load env (%s)", *envFile)
			return 1
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("load configuration")
		return 1
	}

	data, err := os.ReadFile(filepath.Clean(*file))
	if err != nil {
		log.WithError(err).Error("read seed file")
		return 1
	}
	list, err := loadDogs(data)
	if err != nil {
		log.WithError(err).Error("parse seed file")
		return 1
	}

	backend, err := app.OpenBackend(ctx, cfg, nil, log)
	if err != nil {
		log.WithError(err).Error("open backend")
		return 1
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("close backend")
		}
	}()
	if !backend.Ready {
		log.Error("storage backend is not configured")
		return 1
	}

	n, err := seed(ctx, dogs.New(backend.Stores.Dogs, log), list)
	if err != nil {
		log.WithError(err).Error("seed dogs")
		return 1
	}
	log.WithField("created", n).WithField("skipped", len(list)-n).Info("seed complete")
	return 0
}
