package client

import (
	"context"
	"sync"

	"github.com/tonybigdeals/dog-project/internal/domain"
)

// FavoritesAPI is the subset of Client used by FavoritesStore.
type FavoritesAPI interface {
	ListDogs(ctx context.Context) ([]domain.Dog, error)
	ListFavorites(ctx context.Context, userID domain.ID) ([]domain.Favorite, error)
	ToggleFavorite(ctx context.Context, userID, dogID domain.ID) (domain.FavoriteStatus, error)
}

// FavoritesStore keeps a user's favorites locally and updates them optimistically: a toggle
// is visible immediately, then reconciled with the server's answer, and undone if the call
// fails.
type FavoritesStore struct {
	api    FavoritesAPI
	userID domain.ID

	mu        sync.RWMutex
	dogs      []domain.Dog
	favorites map[domain.ID]bool
}

func NewFavoritesStore(api FavoritesAPI, userID domain.ID) *FavoritesStore {
	return &FavoritesStore{api: api, userID: userID, favorites: make(map[domain.ID]bool)}
}

// Load fetches the dog list and, when a user is set, their favorites.
func (s *FavoritesStore) Load(ctx context.Context) error {
	dogs, err := s.api.ListDogs(ctx)
	if err != nil {
		return err
	}
	favs := make(map[domain.ID]bool)
	if s.userID != "" {
		list, err := s.api.ListFavorites(ctx, s.userID)
		if err != nil {
			return err
		}
		for _, f := range list {
			favs[f.DogID] = true
		}
	}

	s.mu.Lock()
	s.dogs = dogs
	s.favorites = favs
	s.mu.Unlock()
	return nil
}

// Toggle flips dogID locally, asks the server, and applies the server's status. On error
// the previous state is restored and the error returned.
func (s *FavoritesStore) Toggle(ctx context.Context, dogID domain.ID) error {
	s.mu.Lock()
	prev := s.favorites[dogID]
	s.set(dogID, !prev)
	s.mu.Unlock()

	status, err := s.api.ToggleFavorite(ctx, s.userID, dogID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.set(dogID, prev)
		return err
	}
	switch status {
	case domain.FavoriteAdded:
		s.set(dogID, true)
	case domain.FavoriteRemoved:
		s.set(dogID, false)
	}
	return nil
}

func (s *FavoritesStore) set(dogID domain.ID, on bool) {
	if on {
		s.favorites[dogID] = true
	} else {
		delete(s.favorites, dogID)
	}
}

func (s *FavoritesStore) IsFavorite(dogID domain.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites[dogID]
}

// Favorites returns the favorited dogs in dog-list order.
func (s *FavoritesStore) Favorites() []domain.Dog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Dog, 0, len(s.favorites))
	for _, d := range s.dogs {
		if s.favorites[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// Dogs returns the loaded dog list.
func (s *FavoritesStore) Dogs() []domain.Dog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Dog(nil), s.dogs...)
}
