package storage

import (
	"fmt"

	"github.com/tonybigdeals/dog-project/internal/domain"
)

// Table names shared by the SQL and PostgREST backends.
const (
	TableDogs              = "dogs"
	TableFavorites         = "favorites"
	TableApplications      = "applications"
	TableDogSubmissions    = "dog_submissions"
	TableMessages          = "messages"
	TableProfiles          = "profiles"
	TableForumTopics       = "forum_topics"
	TableForumComments     = "forum_comments"
	TableForumReplies      = "forum_replies"
	TableForumTopicLikes   = "forum_topic_likes"
	TableForumCommentLikes = "forum_comment_likes"
	TableForumReplyLikes   = "forum_reply_likes"
)

// CounterColumn maps a counter to the table and column that store it.
func CounterColumn(c domain.Counter) (table, column string, err error) {
	switch c {
	case domain.CounterTopicLikes:
		return TableForumTopics, "likes_count", nil
	case domain.CounterTopicComments:
		return TableForumTopics, "comments_count", nil
	case domain.CounterTopicViews:
		return TableForumTopics, "views_count", nil
	case domain.CounterCommentLikes:
		return TableForumComments, "likes_count", nil
	case domain.CounterCommentReplies:
		return TableForumComments, "replies_count", nil
	case domain.CounterReplyLikes:
		return TableForumReplies, "likes_count", nil
	}
	return "", "", fmt.Errorf("unknown counter %q", c)
}

// LikeTable maps a like target to its membership table and subject column.
func LikeTable(t domain.LikeTarget) (table, subjectColumn string, err error) {
	switch t {
	case domain.LikeTopic:
		return TableForumTopicLikes, "topic_id", nil
	case domain.LikeComment:
		return TableForumCommentLikes, "comment_id", nil
	case domain.LikeReply:
		return TableForumReplyLikes, "reply_id", nil
	}
	return "", "", fmt.Errorf("unknown like target %q", t)
}
