package domain

import (
	"strings"
	"time"
)

// Category is a forum topic category key as sent by clients.
type Category string

const (
	CategoryAll      Category = "all"
	CategoryAdoption Category = "adoption"
	CategoryDaily    Category = "daily"
	CategoryHelp     Category = "help"
)

// categoryLabels maps category keys to the display labels stored on topics.
var categoryLabels = map[Category]string{
	CategoryAdoption: "领养经验",
	CategoryDaily:    "日常分享",
	CategoryHelp:     "求助问答",
}

// DefaultCategoryLabel is stored when a topic is created without a category.
var DefaultCategoryLabel = categoryLabels[CategoryDaily]

// Label returns the display label for c and whether c is a known, filterable category.
func (c Category) Label() (string, bool) {
	label, ok := categoryLabels[c]
	return label, ok
}

// FilterLabel returns the label to filter topic listings by. Empty means no filter:
// "all", the empty string, and unknown keys all list every topic.
func (c Category) FilterLabel() string {
	label, _ := c.Label()
	return label
}

// StoredLabel resolves the label persisted for a new topic: known keys map to their label,
// other non-empty values are stored verbatim, and an empty value falls back to the default.
func (c Category) StoredLabel() string {
	if label, ok := c.Label(); ok {
		return label
	}
	if v := strings.TrimSpace(string(c)); v != "" {
		return v
	}
	return DefaultCategoryLabel
}

// TopicSort selects the ordering of topic listings.
type TopicSort string

const (
	SortLatest   TopicSort = "latest"
	SortHot      TopicSort = "hot"
	SortComments TopicSort = "comments"
)

// Topic is a forum topic row.
type Topic struct {
	ID            ID         `json:"id,omitempty"`
	UserID        ID         `json:"user_id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags"`
	Images        []string   `json:"images"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	ViewsCount    int        `json:"views_count"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// Comment is a top-level comment on a topic.
type Comment struct {
	ID           ID         `json:"id,omitempty"`
	TopicID      ID         `json:"topic_id"`
	UserID       ID         `json:"user_id"`
	Content      string     `json:"content"`
	LikesCount   int        `json:"likes_count"`
	RepliesCount int        `json:"replies_count"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Reply is a reply to a comment. Replies cannot be replied to.
type Reply struct {
	ID         ID         `json:"id,omitempty"`
	CommentID  ID         `json:"comment_id"`
	UserID     ID         `json:"user_id"`
	Content    string     `json:"content"`
	LikesCount int        `json:"likes_count"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Profile is the read projection of a user used to decorate authored content.
type Profile struct {
	ID        ID      `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// LikeTarget identifies which membership set a like belongs to.
type LikeTarget string

const (
	LikeTopic   LikeTarget = "topic"
	LikeComment LikeTarget = "comment"
	LikeReply   LikeTarget = "reply"
)

// Counter names a denormalized counter column.
type Counter string

const (
	CounterTopicLikes     Counter = "topic_likes"
	CounterTopicComments  Counter = "topic_comments"
	CounterTopicViews     Counter = "topic_views"
	CounterCommentLikes   Counter = "comment_likes"
	CounterCommentReplies Counter = "comment_replies"
	CounterReplyLikes     Counter = "reply_likes"
)

// LikeCounter returns the counter maintained alongside a like membership set.
func (t LikeTarget) LikeCounter() Counter {
	switch t {
	case LikeComment:
		return CounterCommentLikes
	case LikeReply:
		return CounterReplyLikes
	default:
		return CounterTopicLikes
	}
}
