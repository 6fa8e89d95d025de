package forum

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

var notFoundMessages = map[domain.LikeTarget]string{
	domain.LikeTopic:   topicNotFoundMessage,
	domain.LikeComment: "Comment not found",
	domain.LikeReply:   "Reply not found",
}

func (s *Service) ToggleTopicLike(ctx context.Context, id, userID domain.ID) (LikeResult, error) {
	return s.toggleLike(ctx, domain.LikeTopic, id, userID)
}

func (s *Service) ToggleCommentLike(ctx context.Context, id, userID domain.ID) (LikeResult, error) {
	return s.toggleLike(ctx, domain.LikeComment, id, userID)
}

func (s *Service) ToggleReplyLike(ctx context.Context, id, userID domain.ID) (LikeResult, error) {
	return s.toggleLike(ctx, domain.LikeReply, id, userID)
}

// toggleLike flips the viewer's membership in a like set and moves the matching counter by
// one in the same direction. The counter never drops below zero.
func (s *Service) toggleLike(ctx context.Context, target domain.LikeTarget, id, userID domain.ID) (LikeResult, error) {
	if userID == "" {
		return LikeResult{}, services.Unauthorized(userRequiredMessage)
	}

	liked, err := s.store.HasLike(ctx, target, id, userID)
	if err != nil {
		return LikeResult{}, s.likeError(target, err)
	}

	delta := 1
	if liked {
		err = s.store.RemoveLike(ctx, target, id, userID)
		delta = -1
	} else {
		err = s.store.AddLike(ctx, target, id, userID)
	}
	if err != nil {
		return LikeResult{}, s.likeError(target, err)
	}

	likes, err := s.store.AdjustCounter(ctx, target.LikeCounter(), id, delta)
	if err != nil {
		return LikeResult{}, s.likeError(target, err)
	}

	s.log.WithContext(ctx).WithFields(logrus.Fields{
		"target": target,
		"id":     id,
		"liked":  !liked,
	}).Debug("like toggled")
	return LikeResult{Liked: !liked, Likes: likes}, nil
}

func (s *Service) likeError(target domain.LikeTarget, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return services.NotFound(notFoundMessages[target], err)
	}
	return services.Upstream(err)
}
