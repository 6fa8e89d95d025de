package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/storage/localauth"
)

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestDogsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock()))

	a, err := s.CreateDog(ctx, domain.Dog{Name: "A"})
	require.NoError(t, err)
	_, err = s.CreateDog(ctx, domain.Dog{Name: "B", Traits: []string{"calm"}})
	require.NoError(t, err)

	dogs, err := s.ListDogs(ctx)
	require.NoError(t, err)
	require.Len(t, dogs, 2)
	assert.Equal(t, "A", dogs[0].Name)
	assert.Equal(t, []string{}, dogs[0].Traits)
	assert.NotNil(t, dogs[0].CreatedAt)

	dogs[1].Traits[0] = "mutated"
	again, _ := s.ListDogs(ctx)
	assert.Equal(t, "calm", again[1].Traits[0])

	got, err := s.GetDog(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	_, err = s.GetDog(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestFavoritesMembership(t *testing.T) {
	ctx := context.Background()
	s := New()
	dog, _ := s.CreateDog(ctx, domain.Dog{Name: "Lucky"})

	require.NoError(t, s.AddFavorite(ctx, "u1", dog.ID))
	assert.ErrorIs(t, s.AddFavorite(ctx, "u1", dog.ID), storage.ErrConflict)

	has, err := s.HasFavorite(ctx, "u1", dog.ID)
	require.NoError(t, err)
	assert.True(t, has)

	favs, err := s.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.NotNil(t, favs[0].Dog)
	assert.Equal(t, "Lucky", favs[0].Dog.Name)

	other, _ := s.ListFavorites(ctx, "u2")
	assert.Empty(t, other)

	require.NoError(t, s.RemoveFavorite(ctx, "u1", dog.ID))
	has, _ = s.HasFavorite(ctx, "u1", dog.ID)
	assert.False(t, has)
}

func TestApplicationsReviewGuard(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock()))
	dog, _ := s.CreateDog(ctx, domain.Dog{Name: "Lucky"})

	first, err := s.CreateApplication(ctx, domain.Application{UserID: "u1", DogID: dog.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, first.Status)
	_, err = s.CreateApplication(ctx, domain.Application{UserID: "u2", DogID: "gone"})
	require.NoError(t, err)

	all, err := s.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.UnknownDogName, all[0].DogName, "newest first")
	assert.Equal(t, "Lucky", all[1].DogName)

	mine, _ := s.ListApplicationsByUser(ctx, "u1")
	require.Len(t, mine, 1)

	reviewed, err := s.ReviewApplication(ctx, first.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, reviewed.Status)

	_, err = s.ReviewApplication(ctx, first.ID, domain.StatusRejected)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSubmissionsReviewGuard(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock()))

	sub, err := s.CreateSubmission(ctx, domain.DogSubmission{UserID: "u1", Name: "Coco"})
	require.NoError(t, err)

	pending, err := s.GetPendingSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coco", pending.Name)

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	done, err := s.ReviewSubmission(ctx, sub.ID, domain.StatusRejected, at)
	require.NoError(t, err)
	require.NotNil(t, done.ReviewedAt)
	assert.True(t, at.Equal(*done.ReviewedAt))

	_, err = s.GetPendingSubmission(ctx, sub.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.ReviewSubmission(ctx, sub.ID, domain.StatusApproved, at)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock()))
	_, _ = s.CreateMessage(ctx, domain.NewNotification("u1", "first"))
	_, _ = s.CreateMessage(ctx, domain.NewNotification("u1", "second"))
	_, _ = s.CreateMessage(ctx, domain.NewNotification("u2", "other"))

	msgs, err := s.ListMessages(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Content)
}

func TestForumCountersClampAtZero(t *testing.T) {
	ctx := context.Background()
	s := New()
	topic, err := s.CreateTopic(ctx, domain.Topic{UserID: "u1", Title: "t", Category: "日常分享"})
	require.NoError(t, err)

	n, err := s.AdjustCounter(ctx, domain.CounterTopicLikes, topic.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, _ = s.AdjustCounter(ctx, domain.CounterTopicViews, topic.ID, 1)
	assert.Equal(t, 1, n)

	comment, err := s.CreateComment(ctx, domain.Comment{TopicID: topic.ID, UserID: "u1", Content: "c"})
	require.NoError(t, err)
	n, _ = s.AdjustCounter(ctx, domain.CounterCommentReplies, comment.ID, 1)
	assert.Equal(t, 1, n)

	_, err = s.AdjustCounter(ctx, domain.CounterReplyLikes, "nope", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.CreateReply(ctx, domain.Reply{CommentID: "nope"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestForumConcurrentLikesStayConsistent(t *testing.T) {
	ctx := context.Background()
	s := New()
	topic, _ := s.CreateTopic(ctx, domain.Topic{Title: "t"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AdjustCounter(ctx, domain.CounterTopicLikes, topic.ID, 1)
		}()
	}
	wg.Wait()

	got, _ := s.GetTopic(ctx, topic.ID)
	assert.Equal(t, 50, got.LikesCount)
}

func TestListTopicsFilters(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(fixedClock()))
	_, _ = s.CreateTopic(ctx, domain.Topic{Title: "Golden tips", Content: "x", Category: "领养经验"})
	_, _ = s.CreateTopic(ctx, domain.Topic{Title: "Walk", Content: "golden hour", Category: "日常分享"})

	all, _ := s.ListTopics(ctx, storage.TopicFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, "Walk", all[0].Title)

	byLabel, _ := s.ListTopics(ctx, storage.TopicFilter{CategoryLabel: "领养经验"})
	require.Len(t, byLabel, 1)

	bySearch, _ := s.ListTopics(ctx, storage.TopicFilter{Search: "GOLDEN"})
	assert.Len(t, bySearch, 2)
}

func TestListTopicsSearchIsLiteral(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.CreateTopic(ctx, domain.Topic{Title: "100% 好狗", Content: "x"})
	_, _ = s.CreateTopic(ctx, domain.Topic{Title: "1000 dogs", Content: "snake_case"})

	pct, _ := s.ListTopics(ctx, storage.TopicFilter{Search: "100%"})
	require.Len(t, pct, 1)
	assert.Equal(t, "100% 好狗", pct[0].Title)

	under, _ := s.ListTopics(ctx, storage.TopicFilter{Search: "e_c"})
	require.Len(t, under, 1)
	assert.Equal(t, "1000 dogs", under[0].Title)

	star, _ := s.ListTopics(ctx, storage.TopicFilter{Search: " 10*0 "})
	assert.Len(t, star, 2)
}

func TestLikesMembership(t *testing.T) {
	ctx := context.Background()
	s := New()
	topic, err := s.CreateTopic(ctx, domain.Topic{Title: "t"})
	require.NoError(t, err)
	c, err := s.CreateComment(ctx, domain.Comment{TopicID: topic.ID, UserID: "u1", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.AddLike(ctx, domain.LikeComment, c.ID, "u1"))
	assert.ErrorIs(t, s.AddLike(ctx, domain.LikeComment, c.ID, "u1"), storage.ErrConflict)
	assert.ErrorIs(t, s.AddLike(ctx, domain.LikeReply, "404", "u1"), storage.ErrNotFound)

	liked, err := s.LikedSubjects(ctx, domain.LikeComment, []domain.ID{c.ID, "c2"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[domain.ID]bool{c.ID: true}, liked)

	has, _ := s.HasLike(ctx, domain.LikeTopic, c.ID, "u1")
	assert.False(t, has, "like sets are separated by target")

	require.NoError(t, s.RemoveLike(ctx, domain.LikeComment, c.ID, "u1"))
	has, _ = s.HasLike(ctx, domain.LikeComment, c.ID, "u1")
	assert.False(t, has)
}

func TestObjects(t *testing.T) {
	ctx := context.Background()
	s := New(WithPublicBaseURL("http://localhost:5001/uploads/"))

	require.NoError(t, s.PutObject(ctx, "dog-images", "dog-images/a.png", []byte("png"), "image/png"))
	assert.ErrorIs(t, s.PutObject(ctx, "dog-images", "dog-images/a.png", nil, ""), storage.ErrConflict)

	data, ct, err := s.GetObject(ctx, "dog-images", "dog-images/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "http://localhost:5001/uploads/dog-images/dog-images/a.png", s.PublicURL("dog-images", "dog-images/a.png"))

	_, _, err = s.GetObject(ctx, "dog-images", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIdentitySignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	secret := []byte("test-secret")
	s := New(WithJWTSecret(secret))

	res, err := s.SignUp(ctx, "Alice@Example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "alice@example.com", res.User.Email)

	profiles, _ := s.GetProfiles(ctx, []domain.ID{res.User.ID})
	require.Len(t, profiles, 1)

	_, err = s.SignUp(ctx, "alice@example.com", "secret1")
	var authErr *storage.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "User already registered", authErr.Message)

	_, err = s.SignUp(ctx, "bob@example.com", "123")
	require.ErrorAs(t, err, &authErr)

	_, err = s.SignIn(ctx, "alice@example.com", "wrong")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid login credentials", authErr.Message)

	login, err := s.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, login.Session)

	claims, err := localauth.NewIssuer(secret, nil).Parse(login.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(res.User.ID), claims.Subject)
	assert.Equal(t, "authenticated", claims.Role)
}
