// Package favorites manages the (user, dog) favorite membership set.
package favorites

import (
	"context"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

type Service struct {
	store storage.FavoriteStore
	log   *logging.Logger
}

func New(store storage.FavoriteStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("favorites")
	}
	return &Service{store: store, log: log}
}

// List returns the user's favorites as {dog_id, dogs}.
func (s *Service) List(ctx context.Context, userID domain.ID) ([]domain.Favorite, error) {
	favs, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, services.Upstream(err)
	}
	return favs, nil
}

// Toggle flips membership. The check and the write are separate calls; a concurrent
// duplicate insert is rejected by the store's unique constraint and surfaces as an error.
func (s *Service) Toggle(ctx context.Context, userID, dogID domain.ID) (domain.FavoriteStatus, error) {
	exists, err := s.store.HasFavorite(ctx, userID, dogID)
	if err != nil {
		return "", services.Upstream(err)
	}
	if exists {
		if err := s.store.RemoveFavorite(ctx, userID, dogID); err != nil {
			return "", services.Upstream(err)
		}
		return domain.FavoriteRemoved, nil
	}
	if err := s.store.AddFavorite(ctx, userID, dogID); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("dog_id", dogID).Warn("favorite insert rejected")
		return "", services.Upstream(err)
	}
	return domain.FavoriteAdded, nil
}
