// Package forum implements topics, two-level comment threads and like toggles.
//
// Reads are aggregated: every listing collects the distinct author ids it references and
// resolves them with one profile lookup, and the viewer's like state is fetched per like
// set in one query each. Counters are adjusted atomically by the store.
package forum

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/validation"
)

const (
	userRequiredMessage    = "User ID is required"
	topicRequiredMessage   = "Title and content are required"
	commentRequiredMessage = "Comment content is required"
	topicNotFoundMessage   = "Topic not found"
)

type Service struct {
	store    storage.ForumStore
	profiles storage.ProfileStore
	log      *logging.Logger
}

func New(store storage.ForumStore, profiles storage.ProfileStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("forum")
	}
	return &Service{store: store, profiles: profiles, log: log}
}

// ListQuery selects and orders topics. ViewerID, when set, fills in IsLiked.
type ListQuery struct {
	Category domain.Category
	Sort     domain.TopicSort
	Search   string
	ViewerID domain.ID
}

// ListTopics returns topics newest first, re-sorted in memory for the hot and comments
// orders. Ties keep their newest-first order.
func (s *Service) ListTopics(ctx context.Context, q ListQuery) ([]TopicView, error) {
	topics, err := s.store.ListTopics(ctx, storage.TopicFilter{
		CategoryLabel: q.Category.FilterLabel(),
		Search:        strings.TrimSpace(q.Search),
	})
	if err != nil {
		return nil, services.Upstream(err)
	}

	switch q.Sort {
	case domain.SortHot:
		sort.SliceStable(topics, func(i, j int) bool { return topics[i].LikesCount > topics[j].LikesCount })
	case domain.SortComments:
		sort.SliceStable(topics, func(i, j int) bool { return topics[i].CommentsCount > topics[j].CommentsCount })
	}

	authors := make([]domain.ID, 0, len(topics))
	ids := make([]domain.ID, 0, len(topics))
	for _, t := range topics {
		authors = append(authors, t.UserID)
		ids = append(ids, t.ID)
	}
	profiles := s.loadProfiles(ctx, authors)
	liked := s.likedBy(ctx, domain.LikeTopic, ids, q.ViewerID)

	out := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		v := topicView(t, profiles)
		v.IsLiked = liked[t.ID]
		out = append(out, v)
	}
	return out, nil
}

// GetTopic returns a topic with its comments and their replies, counting one view.
func (s *Service) GetTopic(ctx context.Context, id, viewerID domain.ID) (TopicDetail, error) {
	topic, err := s.store.GetTopic(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return TopicDetail{}, services.NotFound(topicNotFoundMessage, err)
	}
	if err != nil {
		return TopicDetail{}, services.Upstream(err)
	}

	entry := s.log.WithContext(ctx).WithField("topic_id", id)
	if views, err := s.store.AdjustCounter(ctx, domain.CounterTopicViews, id, 1); err != nil {
		entry.WithError(err).Warn("view count not incremented")
		topic.ViewsCount++
	} else {
		topic.ViewsCount = views
	}

	comments, err := s.store.ListComments(ctx, id)
	if err != nil {
		entry.WithError(err).Warn("comments unavailable")
		comments = nil
	}
	commentIDs := make([]domain.ID, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	var replies []domain.Reply
	if len(commentIDs) > 0 {
		if replies, err = s.store.ListReplies(ctx, commentIDs); err != nil {
			entry.WithError(err).Warn("replies unavailable")
			replies = nil
		}
	}
	replyIDs := make([]domain.ID, 0, len(replies))
	for _, r := range replies {
		replyIDs = append(replyIDs, r.ID)
	}

	authors := []domain.ID{topic.UserID}
	for _, c := range comments {
		authors = append(authors, c.UserID)
	}
	for _, r := range replies {
		authors = append(authors, r.UserID)
	}
	profiles := s.loadProfiles(ctx, authors)

	likedTopic := s.likedBy(ctx, domain.LikeTopic, []domain.ID{id}, viewerID)
	likedComments := s.likedBy(ctx, domain.LikeComment, commentIDs, viewerID)
	likedReplies := s.likedBy(ctx, domain.LikeReply, replyIDs, viewerID)

	byComment := make(map[domain.ID][]ReplyView, len(comments))
	for _, r := range replies {
		v := replyView(r, profiles)
		v.IsLiked = likedReplies[r.ID]
		byComment[r.CommentID] = append(byComment[r.CommentID], v)
	}

	detail := TopicDetail{Topic: topicView(topic, profiles), Comments: make([]CommentView, 0, len(comments))}
	detail.Topic.IsLiked = likedTopic[topic.ID]
	for _, c := range comments {
		v := commentView(c, profiles)
		v.IsLiked = likedComments[c.ID]
		if rs, ok := byComment[c.ID]; ok {
			v.Replies = rs
		}
		detail.Comments = append(detail.Comments, v)
	}
	return detail, nil
}

// CreateTopicInput is a new topic. Category is a key such as "daily"; other values are
// stored as given.
type CreateTopicInput struct {
	UserID   domain.ID `json:"userId"`
	Title    string    `json:"title" validate:"required"`
	Content  string    `json:"content" validate:"required"`
	Category string    `json:"category"`
	Tags     []string  `json:"tags"`
	Images   []string  `json:"images"`
}

func (s *Service) CreateTopic(ctx context.Context, in CreateTopicInput) (Created, error) {
	if err := validation.Struct(in); err != nil {
		return Created{}, services.Validation(topicRequiredMessage)
	}
	if in.UserID == "" {
		return Created{}, services.Unauthorized(userRequiredMessage)
	}

	topic, err := s.store.CreateTopic(ctx, domain.Topic{
		UserID:   in.UserID,
		Title:    in.Title,
		Content:  in.Content,
		Category: domain.Category(in.Category).StoredLabel(),
		Tags:     orEmpty(in.Tags),
		Images:   orEmpty(in.Images),
	})
	if err != nil {
		return Created{}, services.Upstream(err)
	}
	s.log.WithContext(ctx).WithFields(logrus.Fields{"topic_id": topic.ID, "category": topic.Category}).Info("topic created")
	return Created{ID: topic.ID, Message: "Topic created successfully"}, nil
}

// CreateCommentInput is a comment on a topic, or a reply when ReplyTo names a comment.
type CreateCommentInput struct {
	TopicID domain.ID `json:"topicId"`
	UserID  domain.ID `json:"userId"`
	Content string    `json:"content" validate:"notblank"`
	ReplyTo domain.ID `json:"replyToCommentId"`
}

// CreateComment stores a comment or reply and bumps the parent's counter. The counter
// update is best effort once the row exists.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (Created, error) {
	if err := validation.Struct(in); err != nil {
		return Created{}, services.Validation(commentRequiredMessage)
	}
	if in.UserID == "" {
		return Created{}, services.Unauthorized(userRequiredMessage)
	}
	content := strings.TrimSpace(in.Content)

	if in.ReplyTo != "" {
		reply, err := s.store.CreateReply(ctx, domain.Reply{CommentID: in.ReplyTo, UserID: in.UserID, Content: content})
		if errors.Is(err, storage.ErrNotFound) {
			return Created{}, services.NotFound("Comment not found", err)
		}
		if err != nil {
			return Created{}, services.Upstream(err)
		}
		s.bump(ctx, domain.CounterCommentReplies, in.ReplyTo)
		return Created{ID: reply.ID, Message: "Reply created successfully"}, nil
	}

	comment, err := s.store.CreateComment(ctx, domain.Comment{TopicID: in.TopicID, UserID: in.UserID, Content: content})
	if errors.Is(err, storage.ErrNotFound) {
		return Created{}, services.NotFound(topicNotFoundMessage, err)
	}
	if err != nil {
		return Created{}, services.Upstream(err)
	}
	s.bump(ctx, domain.CounterTopicComments, in.TopicID)
	return Created{ID: comment.ID, Message: "Comment created successfully"}, nil
}

func (s *Service) bump(ctx context.Context, counter domain.Counter, id domain.ID) {
	if _, err := s.store.AdjustCounter(ctx, counter, id, 1); err != nil {
		s.log.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"counter": counter,
			"id":      id,
		}).Warn("counter not incremented")
	}
}

// loadProfiles resolves the distinct ids in one lookup. Failures degrade to anonymous authors.
func (s *Service) loadProfiles(ctx context.Context, ids []domain.ID) profileMap {
	out := make(profileMap)
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 || s.profiles == nil {
		return out
	}
	profiles, err := s.profiles.GetProfiles(ctx, ids)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("author profiles unavailable")
		return out
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out
}

// likedBy returns which of ids the viewer liked. No viewer or no ids means no query.
func (s *Service) likedBy(ctx context.Context, target domain.LikeTarget, ids []domain.ID, viewerID domain.ID) map[domain.ID]bool {
	if viewerID == "" || len(ids) == 0 {
		return map[domain.ID]bool{}
	}
	liked, err := s.store.LikedSubjects(ctx, target, ids, viewerID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("target", target).Warn("like state unavailable")
		return map[domain.ID]bool{}
	}
	return liked
}
