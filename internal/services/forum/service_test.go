package forum

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store := memory.New(memory.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	return New(store, store, nil), store
}

func TestCreateTopicRequiresUser(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.CreateTopic(ctx, CreateTopicInput{Title: "测试", Content: "内容", Category: "daily"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, services.HTTPStatus(err))
	assert.Equal(t, "User ID is required", services.Message(err))

	topics, err := store.ListTopics(ctx, storageFilterAll)
	require.NoError(t, err)
	assert.Empty(t, topics)

	created, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "u1", Title: "测试", Content: "内容", Category: "daily"})
	require.NoError(t, err)
	assert.Equal(t, "Topic created successfully", created.Message)

	detail, err := svc.GetTopic(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Topic.Comments)
	assert.Equal(t, 0, detail.Topic.Likes)
	assert.Equal(t, "日常分享", detail.Topic.Category)
	assert.Equal(t, []string{}, detail.Topic.Tags)
}

func TestCreateTopicValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateTopic(context.Background(), CreateTopicInput{UserID: "u1", Title: "only title"})
	assert.Equal(t, http.StatusBadRequest, services.HTTPStatus(err))
	assert.Equal(t, "Title and content are required", services.Message(err))
}

func TestCategoryResolution(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	for _, c := range []string{"adoption", "", "随便聊聊"} {
		_, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "u1", Title: "t", Content: "c", Category: c})
		require.NoError(t, err)
	}
	topics, err := store.ListTopics(ctx, storageFilterAll)
	require.NoError(t, err)
	labels := []string{topics[2].Category, topics[1].Category, topics[0].Category}
	assert.Equal(t, []string{"领养经验", "日常分享", "随便聊聊"}, labels)

	adoption, err := svc.ListTopics(ctx, ListQuery{Category: domain.CategoryAdoption})
	require.NoError(t, err)
	assert.Len(t, adoption, 1)

	unknown, err := svc.ListTopics(ctx, ListQuery{Category: "nonsense"})
	require.NoError(t, err)
	assert.Len(t, unknown, 3)
}

func TestLikeToggleSymmetry(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "author", Title: "t", Content: "c"})
	require.NoError(t, err)

	res, err := svc.ToggleTopicLike(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Likes: 1}, res)

	detail, err := svc.GetTopic(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.True(t, detail.Topic.IsLiked)
	assert.Equal(t, 1, detail.Topic.Likes)

	list, err := svc.ListTopics(ctx, ListQuery{ViewerID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsLiked)

	res, err = svc.ToggleTopicLike(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Likes: 0}, res)

	detail, err = svc.GetTopic(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.False(t, detail.Topic.IsLiked)
	assert.Equal(t, 0, detail.Topic.Likes)
}

func TestLikesNeverNegative(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	created, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "author", Title: "t", Content: "c"})
	require.NoError(t, err)

	// a like row without a counted like, as left by an interrupted toggle
	require.NoError(t, store.AddLike(ctx, domain.LikeTopic, created.ID, "u1"))

	res, err := svc.ToggleTopicLike(ctx, created.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Likes: 0}, res)

	for _, user := range []domain.ID{"u2", "u2", "u3", "u3", "u3"} {
		res, err = svc.ToggleTopicLike(ctx, created.ID, user)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Likes, 0)
	}
	assert.Equal(t, 1, res.Likes)
}

func TestToggleRequiresUserAndSubject(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.ToggleCommentLike(ctx, "1", "")
	assert.Equal(t, http.StatusUnauthorized, services.HTTPStatus(err))

	_, err = svc.ToggleReplyLike(ctx, "404", "u1")
	assert.Equal(t, http.StatusNotFound, services.HTTPStatus(err))
	assert.Equal(t, "Reply not found", services.Message(err))
}

func TestSortOrders(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	seed := []struct {
		title    string
		likes    int
		comments int
	}{
		{"a", 5, 0}, {"b", 1, 9}, {"c", 7, 3}, {"d", 5, 3},
	}
	for _, s := range seed {
		topic, err := store.CreateTopic(ctx, domain.Topic{UserID: "u1", Title: s.title, Content: "x", Category: "日常分享"})
		require.NoError(t, err)
		_, err = store.AdjustCounter(ctx, domain.CounterTopicLikes, topic.ID, s.likes)
		require.NoError(t, err)
		_, err = store.AdjustCounter(ctx, domain.CounterTopicComments, topic.ID, s.comments)
		require.NoError(t, err)
	}

	titles := func(views []TopicView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Title)
		}
		return out
	}

	latest, err := svc.ListTopics(ctx, ListQuery{Sort: domain.SortLatest})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, titles(latest))
	for i := 1; i < len(latest); i++ {
		assert.False(t, latest[i].CreatedAt.After(*latest[i-1].CreatedAt))
	}

	hot, err := svc.ListTopics(ctx, ListQuery{Sort: domain.SortHot})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "a", "b"}, titles(hot))

	byComments, err := svc.ListTopics(ctx, ListQuery{Sort: domain.SortComments})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "c", "a"}, titles(byComments))
}

func TestReplyNestsUnderComment(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	name := "小红"
	avatar := "https://img/red.png"
	store.PutProfile(domain.Profile{ID: "u1", Email: "red@example.com", FullName: &name, AvatarURL: &avatar})
	store.PutProfile(domain.Profile{ID: "u2", Email: "blue@example.com"})

	topic, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "u1", Title: "t", Content: "c"})
	require.NoError(t, err)

	comment, err := svc.CreateComment(ctx, CreateCommentInput{TopicID: topic.ID, UserID: "u2", Content: "  first  "})
	require.NoError(t, err)
	assert.Equal(t, "Comment created successfully", comment.Message)

	reply, err := svc.CreateComment(ctx, CreateCommentInput{TopicID: topic.ID, UserID: "u3", Content: "re", ReplyTo: comment.ID})
	require.NoError(t, err)
	assert.Equal(t, "Reply created successfully", reply.Message)

	_, err = svc.ToggleReplyLike(ctx, reply.ID, "u1")
	require.NoError(t, err)

	detail, err := svc.GetTopic(ctx, topic.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Topic.Comments)
	assert.Equal(t, Author{ID: "u1", Name: "小红", Avatar: avatar}, detail.Topic.Author)

	require.Len(t, detail.Comments, 1, "replies never appear as top-level comments")
	c := detail.Comments[0]
	assert.Equal(t, "first", c.Content)
	assert.Equal(t, 1, c.RepliesCount)
	assert.Equal(t, "blue", c.Author.Name)
	assert.Equal(t, PlaceholderAvatar, c.Author.Avatar)
	assert.False(t, c.IsLiked)

	require.Len(t, c.Replies, 1)
	r := c.Replies[0]
	assert.Equal(t, reply.ID, r.ID)
	assert.Equal(t, comment.ID, r.CommentID)
	assert.True(t, r.IsLiked)
	assert.Equal(t, 1, r.Likes)
	assert.Equal(t, Author{ID: "u3", Name: AnonymousName, Avatar: PlaceholderAvatar}, r.Author)
}

func TestCreateCommentValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, CreateCommentInput{TopicID: "1", UserID: "u1", Content: "   "})
	assert.Equal(t, http.StatusBadRequest, services.HTTPStatus(err))
	assert.Equal(t, "Comment content is required", services.Message(err))

	_, err = svc.CreateComment(ctx, CreateCommentInput{TopicID: "1", Content: "hi"})
	assert.Equal(t, http.StatusUnauthorized, services.HTTPStatus(err))

	_, err = svc.CreateComment(ctx, CreateCommentInput{TopicID: "999", UserID: "u1", Content: "hi"})
	assert.Equal(t, http.StatusNotFound, services.HTTPStatus(err))
}

func TestGetTopicCountsViews(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	topic, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "u1", Title: "t", Content: "c"})
	require.NoError(t, err)

	first, err := svc.GetTopic(ctx, topic.ID, "")
	require.NoError(t, err)
	second, err := svc.GetTopic(ctx, topic.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Topic.Views)
	assert.Equal(t, 2, second.Topic.Views)

	_, err = svc.GetTopic(ctx, "404", "")
	assert.Equal(t, http.StatusNotFound, services.HTTPStatus(err))
	assert.Equal(t, "Topic not found", services.Message(err))
}

type failingProfiles struct{}

func (failingProfiles) GetProfiles(context.Context, []domain.ID) ([]domain.Profile, error) {
	return nil, errors.New("profiles: permission denied")
}

func TestProfileFailureFallsBackToAnonymous(t *testing.T) {
	store := memory.New()
	svc := New(store, failingProfiles{}, nil)
	ctx := context.Background()

	_, err := svc.CreateTopic(ctx, CreateTopicInput{UserID: "u1", Title: "t", Content: "c"})
	require.NoError(t, err)

	list, err := svc.ListTopics(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, Author{ID: "u1", Name: AnonymousName, Avatar: PlaceholderAvatar}, list[0].Author)
}

var storageFilterAll = storage.TopicFilter{}
