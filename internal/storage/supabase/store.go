// Package supabase implements the storage interfaces on top of Supabase's REST APIs.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tonybigdeals/dog-project/infra/supabase"
	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

// Store implements the storage interfaces through PostgREST, GoTrue and Storage.
type Store struct {
	client *supabase.Client
}

var _ storage.DogStore = (*Store)(nil)
var _ storage.FavoriteStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.SubmissionStore = (*Store)(nil)
var _ storage.MessageStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)
var _ storage.ForumStore = (*Store)(nil)
var _ storage.ObjectStore = (*Store)(nil)
var _ storage.Identity = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New wraps a configured client.
func New(client *supabase.Client) *Store {
	return &Store{client: client}
}

// clientFor picks the credentials for a request: the service role key when configured,
// otherwise the caller's bearer token so row-level security applies, otherwise the anon key.
func (s *Store) clientFor(ctx context.Context) *supabase.Client {
	if s.client.Privileged() {
		return s.client
	}
	if token := logging.GetAccessToken(ctx); token != "" {
		return s.client.WithAccessToken(token)
	}
	return s.client
}

// Ping issues a minimal query to confirm PostgREST is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.From(storage.TableDogs).Select("id").Limit(1).Execute(ctx)
	return err
}

// mapError translates Supabase errors into storage sentinels while keeping the upstream
// message in the chain.
func mapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case supabase.IsNoRows(err):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	case supabase.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	}
	var e *supabase.Error
	if errors.As(err, &e) {
		switch e.Code {
		case "23503", "22P02", "P0002":
			return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// first returns the first row of a representation response.
func first[T any](rows []T, what string) (T, error) {
	var zero T
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s: empty representation: %w", what, storage.ErrNotFound)
	}
	return rows[0], nil
}

// --- DogStore ---------------------------------------------------------------

func (s *Store) ListDogs(ctx context.Context) ([]domain.Dog, error) {
	dogs := make([]domain.Dog, 0)
	if err := s.clientFor(ctx).From(storage.TableDogs).Select("*").ExecuteInto(ctx, &dogs); err != nil {
		return nil, mapError(err, "list dogs")
	}
	return dogs, nil
}

func (s *Store) GetDog(ctx context.Context, id domain.ID) (domain.Dog, error) {
	var dog domain.Dog
	err := s.clientFor(ctx).From(storage.TableDogs).Select("*").Eq("id", id.String()).Single().ExecuteInto(ctx, &dog)
	if err != nil {
		return domain.Dog{}, mapError(err, "get dog %s", id)
	}
	return dog, nil
}

func (s *Store) CreateDog(ctx context.Context, dog domain.Dog) (domain.Dog, error) {
	if dog.Traits == nil {
		dog.Traits = []string{}
	}
	var rows []domain.Dog
	if err := s.clientFor(ctx).From(storage.TableDogs).Insert(dog).ExecuteInto(ctx, &rows); err != nil {
		return domain.Dog{}, mapError(err, "create dog")
	}
	return first(rows, "create dog")
}

// --- FavoriteStore ----------------------------------------------------------

type favoriteRow struct {
	DogID  domain.ID `json:"dog_id"`
	UserID domain.ID `json:"user_id"`
}

func (s *Store) ListFavorites(ctx context.Context, userID domain.ID) ([]domain.Favorite, error) {
	favs := make([]domain.Favorite, 0)
	err := s.clientFor(ctx).From(storage.TableFavorites).
		Select("dog_id, dogs(*)").
		Eq("user_id", userID.String()).
		ExecuteInto(ctx, &favs)
	if err != nil {
		return nil, mapError(err, "list favorites")
	}
	return favs, nil
}

func (s *Store) HasFavorite(ctx context.Context, userID, dogID domain.ID) (bool, error) {
	var rows []favoriteRow
	err := s.clientFor(ctx).From(storage.TableFavorites).
		Select("dog_id").
		Eq("user_id", userID.String()).
		Eq("dog_id", dogID.String()).
		Limit(1).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return false, mapError(err, "check favorite")
	}
	return len(rows) > 0, nil
}

func (s *Store) AddFavorite(ctx context.Context, userID, dogID domain.ID) error {
	_, err := s.clientFor(ctx).From(storage.TableFavorites).
		Insert(favoriteRow{UserID: userID, DogID: dogID}).
		Execute(ctx)
	return mapError(err, "add favorite %s/%s", userID, dogID)
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, dogID domain.ID) error {
	_, err := s.clientFor(ctx).From(storage.TableFavorites).
		Delete().
		Eq("user_id", userID.String()).
		Eq("dog_id", dogID.String()).
		Execute(ctx)
	return mapError(err, "remove favorite %s/%s", userID, dogID)
}

// --- ApplicationStore -------------------------------------------------------

// applicationRow is an application with its embedded dog, as returned by "*, dogs(name)".
type applicationRow struct {
	domain.Application
	Dogs *struct {
		Name string `json:"name"`
	} `json:"dogs"`
}

func (r applicationRow) view() domain.ApplicationView {
	v := domain.ApplicationView{Application: r.Application, DogName: domain.UnknownDogName}
	if r.Dogs != nil && r.Dogs.Name != "" {
		v.DogName = r.Dogs.Name
	}
	return v
}

func (s *Store) CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	if app.Status == "" {
		app.Status = domain.StatusPending
	}
	var rows []domain.Application
	if err := s.clientFor(ctx).From(storage.TableApplications).Insert(app).ExecuteInto(ctx, &rows); err != nil {
		return domain.Application{}, mapError(err, "create application")
	}
	return first(rows, "create application")
}

func (s *Store) GetApplication(ctx context.Context, id domain.ID) (domain.ApplicationView, error) {
	var row applicationRow
	err := s.clientFor(ctx).From(storage.TableApplications).
		Select("*, dogs(name)").
		Eq("id", id.String()).
		Single().
		ExecuteInto(ctx, &row)
	if err != nil {
		return domain.ApplicationView{}, mapError(err, "get application %s", id)
	}
	return row.view(), nil
}

func (s *Store) ListApplications(ctx context.Context) ([]domain.ApplicationView, error) {
	return s.listApplications(ctx, "")
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID domain.ID) ([]domain.ApplicationView, error) {
	return s.listApplications(ctx, userID)
}

func (s *Store) listApplications(ctx context.Context, userID domain.ID) ([]domain.ApplicationView, error) {
	q := s.clientFor(ctx).From(storage.TableApplications).
		Select("*, dogs(name)").
		Order("created_at", supabase.OrderDesc)
	if userID != "" {
		q = q.Eq("user_id", userID.String())
	}
	var rows []applicationRow
	if err := q.ExecuteInto(ctx, &rows); err != nil {
		return nil, mapError(err, "list applications")
	}
	out := make([]domain.ApplicationView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.view())
	}
	return out, nil
}

func (s *Store) ReviewApplication(ctx context.Context, id domain.ID, status domain.Status) (domain.Application, error) {
	var rows []domain.Application
	err := s.clientFor(ctx).From(storage.TableApplications).
		Update(map[string]interface{}{"status": status}).
		Eq("id", id.String()).
		Eq("status", string(domain.StatusPending)).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return domain.Application{}, mapError(err, "review application %s", id)
	}
	return first(rows, "review application "+id.String())
}

// --- SubmissionStore --------------------------------------------------------

func (s *Store) CreateSubmission(ctx context.Context, sub domain.DogSubmission) (domain.DogSubmission, error) {
	if sub.Traits == nil {
		sub.Traits = []string{}
	}
	if sub.Status == "" {
		sub.Status = domain.StatusPending
	}
	var rows []domain.DogSubmission
	if err := s.clientFor(ctx).From(storage.TableDogSubmissions).Insert(sub).ExecuteInto(ctx, &rows); err != nil {
		return domain.DogSubmission{}, mapError(err, "create submission")
	}
	return first(rows, "create submission")
}

func (s *Store) ListSubmissions(ctx context.Context) ([]domain.DogSubmission, error) {
	subs := make([]domain.DogSubmission, 0)
	err := s.clientFor(ctx).From(storage.TableDogSubmissions).
		Select("*").
		Order("created_at", supabase.OrderDesc).
		ExecuteInto(ctx, &subs)
	if err != nil {
		return nil, mapError(err, "list submissions")
	}
	return subs, nil
}

func (s *Store) GetPendingSubmission(ctx context.Context, id domain.ID) (domain.DogSubmission, error) {
	var sub domain.DogSubmission
	err := s.clientFor(ctx).From(storage.TableDogSubmissions).
		Select("*").
		Eq("id", id.String()).
		Eq("status", string(domain.StatusPending)).
		Single().
		ExecuteInto(ctx, &sub)
	if err != nil {
		return domain.DogSubmission{}, mapError(err, "get pending submission %s", id)
	}
	return sub, nil
}

func (s *Store) ReviewSubmission(ctx context.Context, id domain.ID, status domain.Status, reviewedAt time.Time) (domain.DogSubmission, error) {
	var rows []domain.DogSubmission
	err := s.clientFor(ctx).From(storage.TableDogSubmissions).
		Update(map[string]interface{}{
			"status":      status,
			"reviewed_at": reviewedAt.UTC().Format(time.RFC3339Nano),
		}).
		Eq("id", id.String()).
		Eq("status", string(domain.StatusPending)).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return domain.DogSubmission{}, mapError(err, "review submission %s", id)
	}
	return first(rows, "review submission "+id.String())
}

// --- MessageStore -----------------------------------------------------------

func (s *Store) CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	var rows []domain.Message
	if err := s.clientFor(ctx).From(storage.TableMessages).Insert(msg).ExecuteInto(ctx, &rows); err != nil {
		return domain.Message{}, mapError(err, "create message")
	}
	return first(rows, "create message")
}

func (s *Store) ListMessages(ctx context.Context, userID domain.ID) ([]domain.Message, error) {
	msgs := make([]domain.Message, 0)
	err := s.clientFor(ctx).From(storage.TableMessages).
		Select("*").
		Eq("user_id", userID.String()).
		Order("created_at", supabase.OrderDesc).
		ExecuteInto(ctx, &msgs)
	if err != nil {
		return nil, mapError(err, "list messages")
	}
	return msgs, nil
}

// --- ProfileStore -----------------------------------------------------------

func (s *Store) GetProfiles(ctx context.Context, ids []domain.ID) ([]domain.Profile, error) {
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	profiles := make([]domain.Profile, 0, len(ids))
	err := s.clientFor(ctx).From(storage.TableProfiles).
		Select("id, email, full_name, avatar_url").
		In("id", domain.IDStrings(ids)).
		ExecuteInto(ctx, &profiles)
	if err != nil {
		return nil, mapError(err, "get profiles")
	}
	return profiles, nil
}

// --- ObjectStore ------------------------------------------------------------

func (s *Store) PutObject(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	_, err := s.clientFor(ctx).Storage().Upload(ctx, bucket, path, data, &supabase.UploadOptions{
		ContentType: contentType,
		Upsert:      false,
	})
	if err != nil {
		if isDuplicateObject(err) {
			return fmt.Errorf("upload %s/%s: %w", bucket, path, storage.ErrConflict)
		}
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return s.client.Storage().GetPublicURL(bucket, path)
}

// isDuplicateObject recognizes Storage's "resource already exists" answer, which arrives as
// HTTP 400 with a 409 status code in the body.
func isDuplicateObject(err error) bool {
	var e *supabase.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode == http.StatusConflict ||
		e.Code == "409" ||
		strings.Contains(strings.ToLower(e.Message), "already exists")
}
