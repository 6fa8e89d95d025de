// Package messages lists inbox messages. Messages are only ever created by review notifications.
package messages

import (
	"context"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

type Service struct {
	store storage.MessageStore
}

func New(store storage.MessageStore) *Service {
	return &Service{store: store}
}

// ListForUser returns a user's messages, newest first.
func (s *Service) ListForUser(ctx context.Context, userID domain.ID) ([]domain.Message, error) {
	msgs, err := s.store.ListMessages(ctx, userID)
	if err != nil {
		return nil, services.Upstream(err)
	}
	return msgs, nil
}
