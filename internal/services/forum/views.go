package forum

import (
	"strings"
	"time"

	"github.com/tonybigdeals/dog-project/internal/domain"
)

// AnonymousName is shown for authors without a usable profile ("匿名用户" = anonymous user).
const AnonymousName = "匿名用户"

// PlaceholderAvatar is shown for authors without an avatar.
const PlaceholderAvatar = "https://lh3.googleusercontent.com/aida-public/AB6AXuB6ZfAu74fVn19xwt_mCCWmnG0o7CZVapQ8kcQLS4X-Bq4t9inNQHpNA2CtIDIILlKL7BEwdeDFD1ir1ExQXcadXX1G0ZeCruY06uZCg-nslkcMsFEssRFlRG9WUkpJ1A6HzO8kRmhQdRu6pihqtzjdpfK-FD-VL3z-S_AoQG8KrdjqvQ3CSQdDha2DtsEiRkV3RGcfoZHR12Ii9gsm_0C6CJ79z0Hu7LkUOIdgB5G5XcVAN8qPe5tGxLh1fauXT7-L58wrQ_eXFM0"

type Author struct {
	ID     domain.ID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

type TopicView struct {
	ID        domain.ID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	Tags      []string   `json:"tags"`
	Images    []string   `json:"images"`
	Likes     int        `json:"likes"`
	Comments  int        `json:"comments"`
	Views     int        `json:"views"`
	CreatedAt *time.Time `json:"createdAt"`
	Author    Author     `json:"author"`
	IsLiked   bool       `json:"isLiked"`
}

type CommentView struct {
	ID           domain.ID   `json:"id"`
	TopicID      domain.ID   `json:"topicId"`
	Content      string      `json:"content"`
	Likes        int         `json:"likes"`
	RepliesCount int         `json:"repliesCount"`
	CreatedAt    *time.Time  `json:"createdAt"`
	IsLiked      bool        `json:"isLiked"`
	Author       Author      `json:"author"`
	Replies      []ReplyView `json:"replies"`
}

type ReplyView struct {
	ID        domain.ID  `json:"id"`
	CommentID domain.ID  `json:"commentId"`
	Content   string     `json:"content"`
	Likes     int        `json:"likes"`
	CreatedAt *time.Time `json:"createdAt"`
	IsLiked   bool       `json:"isLiked"`
	Author    Author     `json:"author"`
}

// TopicDetail is a topic with its comment tree, two levels deep.
type TopicDetail struct {
	Topic    TopicView     `json:"topic"`
	Comments []CommentView `json:"comments"`
}

// LikeResult reports the viewer's state and the counter after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// Created is returned for new topics, comments and replies.
type Created struct {
	ID      domain.ID `json:"id"`
	Message string    `json:"message"`
}

// profileMap resolves authors from one batched profile lookup.
type profileMap map[domain.ID]domain.Profile

func (m profileMap) author(userID domain.ID) Author {
	a := Author{ID: userID, Name: AnonymousName, Avatar: PlaceholderAvatar}
	p, ok := m[userID]
	if !ok {
		return a
	}
	if p.ID != "" {
		a.ID = p.ID
	}
	switch {
	case p.FullName != nil && *p.FullName != "":
		a.Name = *p.FullName
	case p.Email != "":
		if local, _, _ := strings.Cut(p.Email, "@"); local != "" {
			a.Name = local
		}
	}
	if p.AvatarURL != nil && *p.AvatarURL != "" {
		a.Avatar = *p.AvatarURL
	}
	return a
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func topicView(t domain.Topic, profiles profileMap) TopicView {
	return TopicView{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Category:  t.Category,
		Tags:      orEmpty(t.Tags),
		Images:    orEmpty(t.Images),
		Likes:     t.LikesCount,
		Comments:  t.CommentsCount,
		Views:     t.ViewsCount,
		CreatedAt: t.CreatedAt,
		Author:    profiles.author(t.UserID),
	}
}

func commentView(c domain.Comment, profiles profileMap) CommentView {
	return CommentView{
		ID:           c.ID,
		TopicID:      c.TopicID,
		Content:      c.Content,
		Likes:        c.LikesCount,
		RepliesCount: c.RepliesCount,
		CreatedAt:    c.CreatedAt,
		Author:       profiles.author(c.UserID),
		Replies:      []ReplyView{},
	}
}

func replyView(r domain.Reply, profiles profileMap) ReplyView {
	return ReplyView{
		ID:        r.ID,
		CommentID: r.CommentID,
		Content:   r.Content,
		Likes:     r.LikesCount,
		CreatedAt: r.CreatedAt,
		Author:    profiles.author(r.UserID),
	}
}
