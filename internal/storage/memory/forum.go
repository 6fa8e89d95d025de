package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

func (s *Store) ListTopics(_ context.Context, filter storage.TopicFilter) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(storage.SearchTerm(filter.Search))
	out := make([]domain.Topic, 0)
	for _, t := range s.topics {
		if filter.CategoryLabel != "" && t.Category != filter.CategoryLabel {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Content), search) {
			continue
		}
		out = append(out, cloneTopic(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) GetTopic(_ context.Context, id domain.ID) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("topic %s: %w", id, storage.ErrNotFound)
	}
	return cloneTopic(t), nil
}

func (s *Store) CreateTopic(_ context.Context, topic domain.Topic) (domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic.ID = s.nextIDLocked()
	topic.CreatedAt = s.stampLocked()
	if topic.Tags == nil {
		topic.Tags = []string{}
	}
	if topic.Images == nil {
		topic.Images = []string{}
	}
	s.topics[topic.ID] = cloneTopic(topic)
	return cloneTopic(topic), nil
}

func (s *Store) ListComments(_ context.Context, topicID domain.ID) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Comment, 0)
	for _, c := range s.comments {
		if c.TopicID == topicID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return oldestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) CreateComment(_ context.Context, comment domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.topics[comment.TopicID]; !ok {
		return domain.Comment{}, fmt.Errorf("topic %s: %w", comment.TopicID, storage.ErrNotFound)
	}
	comment.ID = s.nextIDLocked()
	comment.CreatedAt = s.stampLocked()
	s.comments[comment.ID] = comment
	return comment, nil
}

func (s *Store) ListReplies(_ context.Context, commentIDs []domain.ID) ([]domain.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Reply, 0)
	if len(commentIDs) == 0 {
		return out, nil
	}
	for _, r := range s.replies {
		if slices.Contains(commentIDs, r.CommentID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return oldestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) CreateReply(_ context.Context, reply domain.Reply) (domain.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[reply.CommentID]; !ok {
		return domain.Reply{}, fmt.Errorf("comment %s: %w", reply.CommentID, storage.ErrNotFound)
	}
	reply.ID = s.nextIDLocked()
	reply.CreatedAt = s.stampLocked()
	s.replies[reply.ID] = reply
	return reply, nil
}

func (s *Store) HasLike(_ context.Context, target domain.LikeTarget, subjectID, userID domain.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.likes[likeKey{target: target, subjectID: subjectID, userID: userID}]
	return ok, nil
}

func (s *Store) AddLike(_ context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.subjectExistsLocked(target, subjectID) {
		return fmt.Errorf("%s %s: %w", target, subjectID, storage.ErrNotFound)
	}
	key := likeKey{target: target, subjectID: subjectID, userID: userID}
	if _, ok := s.likes[key]; ok {
		return fmt.Errorf("%s like %s/%s: %w", target, subjectID, userID, storage.ErrConflict)
	}
	s.likes[key] = struct{}{}
	return nil
}

func (s *Store) subjectExistsLocked(target domain.LikeTarget, id domain.ID) bool {
	var ok bool
	switch target {
	case domain.LikeTopic:
		_, ok = s.topics[id]
	case domain.LikeComment:
		_, ok = s.comments[id]
	case domain.LikeReply:
		_, ok = s.replies[id]
	}
	return ok
}

func (s *Store) RemoveLike(_ context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.likes, likeKey{target: target, subjectID: subjectID, userID: userID})
	return nil
}

func (s *Store) LikedSubjects(_ context.Context, target domain.LikeTarget, subjectIDs []domain.ID, userID domain.ID) (map[domain.ID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.ID]bool)
	for _, id := range subjectIDs {
		if _, ok := s.likes[likeKey{target: target, subjectID: id, userID: userID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (s *Store) AdjustCounter(_ context.Context, counter domain.Counter, id domain.ID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clamp := func(n int) int {
		if n+delta < 0 {
			return 0
		}
		return n + delta
	}

	switch counter {
	case domain.CounterTopicLikes, domain.CounterTopicComments, domain.CounterTopicViews:
		t, ok := s.topics[id]
		if !ok {
			return 0, fmt.Errorf("topic %s: %w", id, storage.ErrNotFound)
		}
		var n int
		switch counter {
		case domain.CounterTopicLikes:
			t.LikesCount = clamp(t.LikesCount)
			n = t.LikesCount
		case domain.CounterTopicComments:
			t.CommentsCount = clamp(t.CommentsCount)
			n = t.CommentsCount
		default:
			t.ViewsCount = clamp(t.ViewsCount)
			n = t.ViewsCount
		}
		s.topics[id] = t
		return n, nil
	case domain.CounterCommentLikes, domain.CounterCommentReplies:
		c, ok := s.comments[id]
		if !ok {
			return 0, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
		}
		var n int
		if counter == domain.CounterCommentLikes {
			c.LikesCount = clamp(c.LikesCount)
			n = c.LikesCount
		} else {
			c.RepliesCount = clamp(c.RepliesCount)
			n = c.RepliesCount
		}
		s.comments[id] = c
		return n, nil
	case domain.CounterReplyLikes:
		r, ok := s.replies[id]
		if !ok {
			return 0, fmt.Errorf("reply %s: %w", id, storage.ErrNotFound)
		}
		r.LikesCount = clamp(r.LikesCount)
		s.replies[id] = r
		return r.LikesCount, nil
	}
	return 0, fmt.Errorf("unknown counter %q", counter)
}

func cloneTopic(t domain.Topic) domain.Topic {
	t.Tags = slices.Clone(t.Tags)
	t.Images = slices.Clone(t.Images)
	return t
}
