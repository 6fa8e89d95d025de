// Package dogs serves the dog listings.
package dogs

import (
	"context"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

type Service struct {
	store storage.DogStore
	log   *logging.Logger
}

func New(store storage.DogStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("dogs")
	}
	return &Service{store: store, log: log}
}

// List returns every dog, unfiltered.
func (s *Service) List(ctx context.Context) ([]domain.Dog, error) {
	dogs, err := s.store.ListDogs(ctx)
	if err != nil {
		return nil, services.Upstream(err)
	}
	return dogs, nil
}

// Get returns one dog. A missing dog is reported like any other store failure.
func (s *Service) Get(ctx context.Context, id domain.ID) (domain.Dog, error) {
	dog, err := s.store.GetDog(ctx, id)
	if err != nil {
		return domain.Dog{}, services.Upstream(err)
	}
	return dog, nil
}

// Create inserts a listing. There is no HTTP route for it; cmd/seed uses it.
func (s *Service) Create(ctx context.Context, dog domain.Dog) (domain.Dog, error) {
	created, err := s.store.CreateDog(ctx, dog)
	if err != nil {
		return domain.Dog{}, services.Upstream(err)
	}
	s.log.WithContext(ctx).WithField("dog_id", created.ID).Info("dog created")
	return created, nil
}
