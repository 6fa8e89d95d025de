package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/storage/localauth"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	dogs         map[domain.ID]domain.Dog
	favorites    map[favoriteKey]struct{}
	applications map[domain.ID]domain.Application
	submissions  map[domain.ID]domain.DogSubmission
	messages     map[domain.ID]domain.Message
	profiles     map[domain.ID]domain.Profile

	topics   map[domain.ID]domain.Topic
	comments map[domain.ID]domain.Comment
	replies  map[domain.ID]domain.Reply
	likes    map[likeKey]struct{}

	users   map[string]user
	objects map[string]object

	jwtSecret     []byte
	issuer        *localauth.Issuer
	publicBaseURL string
}

type favoriteKey struct {
	userID domain.ID
	dogID  domain.ID
}

type likeKey struct {
	target    domain.LikeTarget
	subjectID domain.ID
	userID    domain.ID
}

type object struct {
	data        []byte
	contentType string
}

var _ storage.DogStore = (*Store)(nil)
var _ storage.FavoriteStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.SubmissionStore = (*Store)(nil)
var _ storage.MessageStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)
var _ storage.ForumStore = (*Store)(nil)
var _ storage.ObjectStore = (*Store)(nil)
var _ storage.ObjectReader = (*Store)(nil)
var _ storage.Identity = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and reviewed_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithJWTSecret sets the HMAC key used to sign access tokens issued by SignIn.
func WithJWTSecret(secret []byte) Option {
	return func(s *Store) { s.jwtSecret = secret }
}

// WithPublicBaseURL sets the prefix of URLs returned by PublicURL.
func WithPublicBaseURL(base string) Option {
	return func(s *Store) { s.publicBaseURL = strings.TrimRight(base, "/") }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nextID:        1,
		now:           time.Now,
		dogs:          make(map[domain.ID]domain.Dog),
		favorites:     make(map[favoriteKey]struct{}),
		applications:  make(map[domain.ID]domain.Application),
		submissions:   make(map[domain.ID]domain.DogSubmission),
		messages:      make(map[domain.ID]domain.Message),
		profiles:      make(map[domain.ID]domain.Profile),
		topics:        make(map[domain.ID]domain.Topic),
		comments:      make(map[domain.ID]domain.Comment),
		replies:       make(map[domain.ID]domain.Reply),
		likes:         make(map[likeKey]struct{}),
		users:         make(map[string]user),
		objects:       make(map[string]object),
		publicBaseURL: "/uploads",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.issuer = localauth.NewIssuer(s.jwtSecret, s.now)
	return s
}

func (s *Store) nextIDLocked() domain.ID {
	id := s.nextID
	s.nextID++
	return domain.ID(fmt.Sprintf("%d", id))
}

func (s *Store) stampLocked() *time.Time {
	t := s.now().UTC()
	return &t
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// newestFirst orders by created_at desc, breaking ties by creation sequence.
func newestFirst(aTime, bTime *time.Time, aID, bID domain.ID) bool {
	if !timeOf(aTime).Equal(timeOf(bTime)) {
		return timeOf(aTime).After(timeOf(bTime))
	}
	return seqOf(aID) > seqOf(bID)
}

func oldestFirst(aTime, bTime *time.Time, aID, bID domain.ID) bool {
	if !timeOf(aTime).Equal(timeOf(bTime)) {
		return timeOf(aTime).Before(timeOf(bTime))
	}
	return seqOf(aID) < seqOf(bID)
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func seqOf(id domain.ID) int64 {
	n, _ := strconv.ParseInt(string(id), 10, 64)
	return n
}

// DogStore implementation -----------------------------------------------------

func (s *Store) ListDogs(_ context.Context) ([]domain.Dog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Dog, 0, len(s.dogs))
	for _, dog := range s.dogs {
		out = append(out, cloneDog(dog))
	}
	sort.Slice(out, func(i, j int) bool { return seqOf(out[i].ID) < seqOf(out[j].ID) })
	return out, nil
}

func (s *Store) GetDog(_ context.Context, id domain.ID) (domain.Dog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dog, ok := s.dogs[id]
	if !ok {
		return domain.Dog{}, fmt.Errorf("dog %s: %w", id, storage.ErrNotFound)
	}
	return cloneDog(dog), nil
}

func (s *Store) CreateDog(_ context.Context, dog domain.Dog) (domain.Dog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dog.ID == "" {
		dog.ID = s.nextIDLocked()
	} else if _, exists := s.dogs[dog.ID]; exists {
		return domain.Dog{}, fmt.Errorf("dog %s: %w", dog.ID, storage.ErrConflict)
	}
	if dog.Traits == nil {
		dog.Traits = []string{}
	}
	dog.CreatedAt = s.stampLocked()
	s.dogs[dog.ID] = cloneDog(dog)
	return cloneDog(dog), nil
}

// FavoriteStore implementation ------------------------------------------------

func (s *Store) ListFavorites(_ context.Context, userID domain.ID) ([]domain.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Favorite, 0)
	for key := range s.favorites {
		if key.userID != userID {
			continue
		}
		fav := domain.Favorite{DogID: key.dogID}
		if dog, ok := s.dogs[key.dogID]; ok {
			d := cloneDog(dog)
			fav.Dog = &d
		}
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool { return seqOf(out[i].DogID) < seqOf(out[j].DogID) })
	return out, nil
}

func (s *Store) HasFavorite(_ context.Context, userID, dogID domain.ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.favorites[favoriteKey{userID: userID, dogID: dogID}]
	return ok, nil
}

func (s *Store) AddFavorite(_ context.Context, userID, dogID domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := favoriteKey{userID: userID, dogID: dogID}
	if _, ok := s.favorites[key]; ok {
		return fmt.Errorf("favorite %s/%s: %w", userID, dogID, storage.ErrConflict)
	}
	s.favorites[key] = struct{}{}
	return nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, dogID domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.favorites, favoriteKey{userID: userID, dogID: dogID})
	return nil
}

// ApplicationStore implementation ---------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app domain.Application) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app.ID = s.nextIDLocked()
	if app.Status == "" {
		app.Status = domain.StatusPending
	}
	app.CreatedAt = s.stampLocked()
	s.applications[app.ID] = app
	return app, nil
}

func (s *Store) GetApplication(_ context.Context, id domain.ID) (domain.ApplicationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return domain.ApplicationView{}, fmt.Errorf("application %s: %w", id, storage.ErrNotFound)
	}
	return s.applicationViewLocked(app), nil
}

func (s *Store) ListApplications(_ context.Context) ([]domain.ApplicationView, error) {
	return s.listApplications(func(domain.Application) bool { return true }), nil
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID domain.ID) ([]domain.ApplicationView, error) {
	return s.listApplications(func(a domain.Application) bool { return a.UserID == userID }), nil
}

func (s *Store) listApplications(keep func(domain.Application) bool) []domain.ApplicationView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ApplicationView, 0)
	for _, app := range s.applications {
		if keep(app) {
			out = append(out, s.applicationViewLocked(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (s *Store) applicationViewLocked(app domain.Application) domain.ApplicationView {
	view := domain.ApplicationView{Application: app, DogName: domain.UnknownDogName}
	if dog, ok := s.dogs[app.DogID]; ok && dog.Name != "" {
		view.DogName = dog.Name
	}
	return view
}

func (s *Store) ReviewApplication(_ context.Context, id domain.ID, status domain.Status) (domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok || app.Status != domain.StatusPending {
		return domain.Application{}, fmt.Errorf("pending application %s: %w", id, storage.ErrNotFound)
	}
	app.Status = status
	s.applications[id] = app
	return app, nil
}

// SubmissionStore implementation ----------------------------------------------

func (s *Store) CreateSubmission(_ context.Context, sub domain.DogSubmission) (domain.DogSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = s.nextIDLocked()
	if sub.Status == "" {
		sub.Status = domain.StatusPending
	}
	sub.CreatedAt = s.stampLocked()
	s.submissions[sub.ID] = cloneSubmission(sub)
	return cloneSubmission(sub), nil
}

func (s *Store) ListSubmissions(_ context.Context) ([]domain.DogSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DogSubmission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, cloneSubmission(sub))
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) GetPendingSubmission(_ context.Context, id domain.ID) (domain.DogSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok || sub.Status != domain.StatusPending {
		return domain.DogSubmission{}, fmt.Errorf("pending submission %s: %w", id, storage.ErrNotFound)
	}
	return cloneSubmission(sub), nil
}

func (s *Store) ReviewSubmission(_ context.Context, id domain.ID, status domain.Status, reviewedAt time.Time) (domain.DogSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok || sub.Status != domain.StatusPending {
		return domain.DogSubmission{}, fmt.Errorf("pending submission %s: %w", id, storage.ErrNotFound)
	}
	sub.Status = status
	reviewed := reviewedAt.UTC()
	sub.ReviewedAt = &reviewed
	s.submissions[id] = sub
	return cloneSubmission(sub), nil
}

// MessageStore implementation -------------------------------------------------

func (s *Store) CreateMessage(_ context.Context, msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextIDLocked()
	msg.CreatedAt = s.stampLocked()
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *Store) ListMessages(_ context.Context, userID domain.ID) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, 0)
	for _, msg := range s.messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

// ProfileStore implementation -------------------------------------------------

// PutProfile inserts or replaces a profile.
func (s *Store) PutProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Store) GetProfiles(_ context.Context, ids []domain.ID) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Profile, 0, len(ids))
	for _, id := range domain.UniqueIDs(ids) {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ObjectStore implementation --------------------------------------------------

func (s *Store) PutObject(_ context.Context, bucket, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bucket + "/" + path
	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("object %s: %w", key, storage.ErrConflict)
	}
	s.objects[key] = object{data: slices.Clone(data), contentType: contentType}
	return nil
}

func (s *Store) GetObject(_ context.Context, bucket, path string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[bucket+"/"+path]
	if !ok {
		return nil, "", fmt.Errorf("object %s/%s: %w", bucket, path, storage.ErrNotFound)
	}
	return slices.Clone(obj.data), obj.contentType, nil
}

func (s *Store) PublicURL(bucket, path string) string {
	return s.publicBaseURL + "/" + bucket + "/" + path
}

// clone helpers ---------------------------------------------------------------

func cloneDog(d domain.Dog) domain.Dog {
	d.Traits = slices.Clone(d.Traits)
	return d
}

func cloneSubmission(sub domain.DogSubmission) domain.DogSubmission {
	sub.Traits = slices.Clone(sub.Traits)
	return sub
}
