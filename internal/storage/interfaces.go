// Package storage declares the persistence contracts used by the services. Backends live in
// the supabase, postgres and memory subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/tonybigdeals/dog-project/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or no longer matches a guard
	// such as status = pending.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("already exists")
)

// AuthError is a rejection reported by the identity provider. Its message is meant for
// the end user.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// Identity delegates account creation and password verification.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (domain.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (domain.AuthResult, error)
}

// DogStore persists dog listings.
type DogStore interface {
	ListDogs(ctx context.Context) ([]domain.Dog, error)
	GetDog(ctx context.Context, id domain.ID) (domain.Dog, error)
	CreateDog(ctx context.Context, dog domain.Dog) (domain.Dog, error)
}

// FavoriteStore persists the (user, dog) favorite membership set.
type FavoriteStore interface {
	ListFavorites(ctx context.Context, userID domain.ID) ([]domain.Favorite, error)
	HasFavorite(ctx context.Context, userID, dogID domain.ID) (bool, error)
	AddFavorite(ctx context.Context, userID, dogID domain.ID) error
	RemoveFavorite(ctx context.Context, userID, dogID domain.ID) error
}

// ApplicationStore persists adoption applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error)
	GetApplication(ctx context.Context, id domain.ID) (domain.ApplicationView, error)
	// ListApplications returns every application, newest first.
	ListApplications(ctx context.Context) ([]domain.ApplicationView, error)
	// ListApplicationsByUser returns one user's applications, newest first.
	ListApplicationsByUser(ctx context.Context, userID domain.ID) ([]domain.ApplicationView, error)
	// ReviewApplication moves a pending application to status. It returns ErrNotFound when
	// no pending application with that id exists.
	ReviewApplication(ctx context.Context, id domain.ID, status domain.Status) (domain.Application, error)
}

// SubmissionStore persists dog submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub domain.DogSubmission) (domain.DogSubmission, error)
	// ListSubmissions returns every submission, newest first.
	ListSubmissions(ctx context.Context) ([]domain.DogSubmission, error)
	// GetPendingSubmission returns ErrNotFound unless the submission exists and is pending.
	GetPendingSubmission(ctx context.Context, id domain.ID) (domain.DogSubmission, error)
	// ReviewSubmission moves a pending submission to status and stamps reviewed_at.
	ReviewSubmission(ctx context.Context, id domain.ID, status domain.Status, reviewedAt time.Time) (domain.DogSubmission, error)
}

// MessageStore persists inbox messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	// ListMessages returns a user's messages, newest first.
	ListMessages(ctx context.Context, userID domain.ID) ([]domain.Message, error)
}

// ProfileStore reads user profiles in batches.
type ProfileStore interface {
	GetProfiles(ctx context.Context, ids []domain.ID) ([]domain.Profile, error)
}

// TopicFilter narrows topic listings. Empty fields do not filter.
type TopicFilter struct {
	CategoryLabel string
	Search        string
}

// ForumStore persists topics, comments, replies, their like sets and counters.
type ForumStore interface {
	// ListTopics returns matching topics, newest first.
	ListTopics(ctx context.Context, filter TopicFilter) ([]domain.Topic, error)
	GetTopic(ctx context.Context, id domain.ID) (domain.Topic, error)
	CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error)

	// ListComments returns a topic's comments, oldest first.
	ListComments(ctx context.Context, topicID domain.ID) ([]domain.Comment, error)
	CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error)
	// ListReplies returns the replies of the given comments, oldest first.
	ListReplies(ctx context.Context, commentIDs []domain.ID) ([]domain.Reply, error)
	CreateReply(ctx context.Context, reply domain.Reply) (domain.Reply, error)

	HasLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) (bool, error)
	AddLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error
	RemoveLike(ctx context.Context, target domain.LikeTarget, subjectID, userID domain.ID) error
	// LikedSubjects returns the subset of subjectIDs that userID has liked.
	LikedSubjects(ctx context.Context, target domain.LikeTarget, subjectIDs []domain.ID, userID domain.ID) (map[domain.ID]bool, error)

	// AdjustCounter atomically adds delta to a denormalized counter, never going below
	// zero, and returns the new value.
	AdjustCounter(ctx context.Context, counter domain.Counter, id domain.ID, delta int) (int, error)
}

// ObjectStore stores uploaded files.
type ObjectStore interface {
	// PutObject stores data at path and fails with ErrConflict if the object exists.
	PutObject(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
}

// ObjectReader is implemented by object stores that can serve their own files.
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, path string) ([]byte, string, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
