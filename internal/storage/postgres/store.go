package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage"
	"github.com/tonybigdeals/dog-project/internal/storage/localauth"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db     *sqlx.DB
	issuer *localauth.Issuer
}

var _ storage.DogStore = (*Store)(nil)
var _ storage.FavoriteStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.SubmissionStore = (*Store)(nil)
var _ storage.MessageStore = (*Store)(nil)
var _ storage.ProfileStore = (*Store)(nil)
var _ storage.ForumStore = (*Store)(nil)
var _ storage.Identity = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates a Store using the provided database handle. jwtSecret signs the access
// tokens issued by SignIn; pass the Supabase JWT secret to make them interchangeable.
func New(db *sqlx.DB, jwtSecret []byte) *Store {
	return &Store{
		db:     db,
		issuer: localauth.NewIssuer(jwtSecret, nil),
	}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapError translates driver errors into storage sentinels.
func mapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", what, storage.ErrConflict)
		case "23503", "22P02":
			// Dangling reference or an id that cannot exist.
			return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func formatID(id int64) domain.ID {
	return domain.ID(strconv.FormatInt(id, 10))
}

func nullableID(id sql.NullInt64) domain.ID {
	if !id.Valid {
		return ""
	}
	return formatID(id.Int64)
}

func stringsOrEmpty(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return timePtr(t.Time)
}

// --- DogStore ---------------------------------------------------------------

const dogColumns = `id, name, age, breed, location, image, gender, description, traits, created_at`

type dogRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Age         string         `db:"age"`
	Breed       string         `db:"breed"`
	Location    string         `db:"location"`
	Image       string         `db:"image"`
	Gender      string         `db:"gender"`
	Description sql.NullString `db:"description"`
	Traits      pq.StringArray `db:"traits"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r dogRow) toDomain() domain.Dog {
	return domain.Dog{
		ID:          formatID(r.ID),
		Name:        r.Name,
		Age:         r.Age,
		Breed:       r.Breed,
		Location:    r.Location,
		Image:       r.Image,
		Gender:      r.Gender,
		Description: stringPtr(r.Description),
		Traits:      stringsOrEmpty(r.Traits),
		CreatedAt:   timePtr(r.CreatedAt),
	}
}

func (s *Store) ListDogs(ctx context.Context) ([]domain.Dog, error) {
	var rows []dogRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+dogColumns+` FROM dogs ORDER BY id`); err != nil {
		return nil, mapError(err, "list dogs")
	}
	out := make([]domain.Dog, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) GetDog(ctx context.Context, id domain.ID) (domain.Dog, error) {
	var row dogRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+dogColumns+` FROM dogs WHERE id = $1`, string(id)); err != nil {
		return domain.Dog{}, mapError(err, "get dog %s", id)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateDog(ctx context.Context, dog domain.Dog) (domain.Dog, error) {
	traits := dog.Traits
	if traits == nil {
		traits = []string{}
	}
	var row dogRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO dogs (name, age, breed, location, image, gender, description, traits)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+dogColumns,
		dog.Name, dog.Age, dog.Breed, dog.Location, dog.Image, dog.Gender,
		nullString(dog.Description), pq.StringArray(traits))
	if err != nil {
		return domain.Dog{}, mapError(err, "create dog")
	}
	return row.toDomain(), nil
}

// --- FavoriteStore ----------------------------------------------------------

type favoriteRow struct {
	DogID int64  `db:"dog_id"`
	Dog   dogRow `db:"dog"`
}

func (s *Store) ListFavorites(ctx context.Context, userID domain.ID) ([]domain.Favorite, error) {
	var rows []favoriteRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT f.dog_id,
		       d.id AS "dog.id", d.name AS "dog.name", d.age AS "dog.age", d.breed AS "dog.breed",
		       d.location AS "dog.location", d.image AS "dog.image", d.gender AS "dog.gender",
		       d.description AS "dog.description", d.traits AS "dog.traits", d.created_at AS "dog.created_at"
		FROM favorites f
		JOIN dogs d ON d.id = f.dog_id
		WHERE f.user_id = $1
		ORDER BY f.created_at`, string(userID))
	if err != nil {
		return nil, mapError(err, "list favorites")
	}
	out := make([]domain.Favorite, 0, len(rows))
	for _, r := range rows {
		dog := r.Dog.toDomain()
		out = append(out, domain.Favorite{DogID: formatID(r.DogID), Dog: &dog})
	}
	return out, nil
}

func (s *Store) HasFavorite(ctx context.Context, userID, dogID domain.ID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND dog_id = $2)`,
		string(userID), string(dogID))
	if err != nil {
		return false, mapError(err, "check favorite")
	}
	return exists, nil
}

func (s *Store) AddFavorite(ctx context.Context, userID, dogID domain.ID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, dog_id) VALUES ($1, $2)`, string(userID), string(dogID))
	return mapError(err, "add favorite %s/%s", userID, dogID)
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, dogID domain.ID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND dog_id = $2`, string(userID), string(dogID))
	return mapError(err, "remove favorite %s/%s", userID, dogID)
}

// --- ApplicationStore -------------------------------------------------------

const applicationColumns = `id, user_id, dog_id, full_name, phone, address, has_pets, housing_type, status, created_at`

type applicationRow struct {
	ID          int64         `db:"id"`
	UserID      string        `db:"user_id"`
	DogID       sql.NullInt64 `db:"dog_id"`
	FullName    string        `db:"full_name"`
	Phone       string        `db:"phone"`
	Address     string        `db:"address"`
	HasPets     bool          `db:"has_pets"`
	HousingType string        `db:"housing_type"`
	Status      string        `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
}

func (r applicationRow) toDomain() domain.Application {
	return domain.Application{
		ID:          formatID(r.ID),
		UserID:      domain.ID(r.UserID),
		DogID:       nullableID(r.DogID),
		FullName:    r.FullName,
		Phone:       r.Phone,
		Address:     r.Address,
		HasPets:     r.HasPets,
		HousingType: r.HousingType,
		Status:      domain.Status(r.Status),
		CreatedAt:   timePtr(r.CreatedAt),
	}
}

type applicationViewRow struct {
	applicationRow
	DogName sql.NullString `db:"dog_name"`
}

func (r applicationViewRow) toDomain() domain.ApplicationView {
	view := domain.ApplicationView{Application: r.applicationRow.toDomain(), DogName: domain.UnknownDogName}
	if r.DogName.Valid && r.DogName.String != "" {
		view.DogName = r.DogName.String
	}
	return view
}

const applicationViewQuery = `
	SELECT a.id, a.user_id, a.dog_id, a.full_name, a.phone, a.address, a.has_pets,
	       a.housing_type, a.status, a.created_at, d.name AS dog_name
	FROM applications a
	LEFT JOIN dogs d ON d.id = a.dog_id`

func (s *Store) CreateApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	status := app.Status
	if status == "" {
		status = domain.StatusPending
	}
	var row applicationRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO applications (user_id, dog_id, full_name, phone, address, has_pets, housing_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+applicationColumns,
		string(app.UserID), string(app.DogID), app.FullName, app.Phone, app.Address,
		app.HasPets, app.HousingType, string(status))
	if err != nil {
		return domain.Application{}, mapError(err, "create application")
	}
	return row.toDomain(), nil
}

func (s *Store) GetApplication(ctx context.Context, id domain.ID) (domain.ApplicationView, error) {
	var row applicationViewRow
	if err := s.db.GetContext(ctx, &row, applicationViewQuery+` WHERE a.id = $1`, string(id)); err != nil {
		return domain.ApplicationView{}, mapError(err, "get application %s", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ListApplications(ctx context.Context) ([]domain.ApplicationView, error) {
	return s.listApplications(ctx, applicationViewQuery+` ORDER BY a.created_at DESC, a.id DESC`)
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID domain.ID) ([]domain.ApplicationView, error) {
	return s.listApplications(ctx,
		applicationViewQuery+` WHERE a.user_id = $1 ORDER BY a.created_at DESC, a.id DESC`, string(userID))
}

func (s *Store) listApplications(ctx context.Context, query string, args ...interface{}) ([]domain.ApplicationView, error) {
	var rows []applicationViewRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "list applications")
	}
	out := make([]domain.ApplicationView, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) ReviewApplication(ctx context.Context, id domain.ID, status domain.Status) (domain.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE applications SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+applicationColumns, string(id), string(status))
	if err != nil {
		return domain.Application{}, mapError(err, "review application %s", id)
	}
	return row.toDomain(), nil
}

// --- SubmissionStore --------------------------------------------------------

const submissionColumns = `id, user_id, name, age, breed, location, image, gender, description, traits, status, created_at, reviewed_at`

type submissionRow struct {
	ID          int64          `db:"id"`
	UserID      string         `db:"user_id"`
	Name        string         `db:"name"`
	Age         string         `db:"age"`
	Breed       string         `db:"breed"`
	Location    string         `db:"location"`
	Image       string         `db:"image"`
	Gender      string         `db:"gender"`
	Description sql.NullString `db:"description"`
	Traits      pq.StringArray `db:"traits"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	ReviewedAt  sql.NullTime   `db:"reviewed_at"`
}

func (r submissionRow) toDomain() domain.DogSubmission {
	return domain.DogSubmission{
		ID:          formatID(r.ID),
		UserID:      domain.ID(r.UserID),
		Name:        r.Name,
		Age:         r.Age,
		Breed:       r.Breed,
		Location:    r.Location,
		Image:       r.Image,
		Gender:      r.Gender,
		Description: stringPtr(r.Description),
		Traits:      stringsOrEmpty(r.Traits),
		Status:      domain.Status(r.Status),
		CreatedAt:   timePtr(r.CreatedAt),
		ReviewedAt:  nullTimePtr(r.ReviewedAt),
	}
}

func (s *Store) CreateSubmission(ctx context.Context, sub domain.DogSubmission) (domain.DogSubmission, error) {
	traits := sub.Traits
	if traits == nil {
		traits = []string{}
	}
	status := sub.Status
	if status == "" {
		status = domain.StatusPending
	}
	var row submissionRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO dog_submissions (user_id, name, age, breed, location, image, gender, description, traits, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+submissionColumns,
		string(sub.UserID), sub.Name, sub.Age, sub.Breed, sub.Location, sub.Image, sub.Gender,
		nullString(sub.Description), pq.StringArray(traits), string(status))
	if err != nil {
		return domain.DogSubmission{}, mapError(err, "create submission")
	}
	return row.toDomain(), nil
}

func (s *Store) ListSubmissions(ctx context.Context) ([]domain.DogSubmission, error) {
	var rows []submissionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+submissionColumns+` FROM dog_submissions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, mapError(err, "list submissions")
	}
	out := make([]domain.DogSubmission, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) GetPendingSubmission(ctx context.Context, id domain.ID) (domain.DogSubmission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+submissionColumns+` FROM dog_submissions WHERE id = $1 AND status = 'pending'`, string(id))
	if err != nil {
		return domain.DogSubmission{}, mapError(err, "get pending submission %s", id)
	}
	return row.toDomain(), nil
}

func (s *Store) ReviewSubmission(ctx context.Context, id domain.ID, status domain.Status, reviewedAt time.Time) (domain.DogSubmission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE dog_submissions SET status = $2, reviewed_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+submissionColumns, string(id), string(status), reviewedAt.UTC())
	if err != nil {
		return domain.DogSubmission{}, mapError(err, "review submission %s", id)
	}
	return row.toDomain(), nil
}

// --- MessageStore -----------------------------------------------------------

const messageColumns = `id, user_id, sender_name, content, is_unread, created_at`

type messageRow struct {
	ID         int64     `db:"id"`
	UserID     string    `db:"user_id"`
	SenderName string    `db:"sender_name"`
	Content    string    `db:"content"`
	IsUnread   bool      `db:"is_unread"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:         formatID(r.ID),
		UserID:     domain.ID(r.UserID),
		SenderName: r.SenderName,
		Content:    r.Content,
		IsUnread:   r.IsUnread,
		CreatedAt:  timePtr(r.CreatedAt),
	}
}

func (s *Store) CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	var row messageRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO messages (user_id, sender_name, content, is_unread)
		VALUES ($1, $2, $3, $4)
		RETURNING `+messageColumns,
		string(msg.UserID), msg.SenderName, msg.Content, msg.IsUnread)
	if err != nil {
		return domain.Message{}, mapError(err, "create message")
	}
	return row.toDomain(), nil
}

func (s *Store) ListMessages(ctx context.Context, userID domain.ID) ([]domain.Message, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+messageColumns+` FROM messages WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		string(userID))
	if err != nil {
		return nil, mapError(err, "list messages")
	}
	out := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// --- ProfileStore -----------------------------------------------------------

type profileRow struct {
	ID        string         `db:"id"`
	Email     string         `db:"email"`
	FullName  sql.NullString `db:"full_name"`
	AvatarURL sql.NullString `db:"avatar_url"`
}

func (s *Store) GetProfiles(ctx context.Context, ids []domain.ID) ([]domain.Profile, error) {
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, email, full_name, avatar_url FROM profiles WHERE id = ANY($1::uuid[])`,
		pq.Array(domain.IDStrings(ids)))
	if err != nil {
		return nil, mapError(err, "get profiles")
	}
	out := make([]domain.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Profile{
			ID:        domain.ID(r.ID),
			Email:     r.Email,
			FullName:  stringPtr(r.FullName),
			AvatarURL: stringPtr(r.AvatarURL),
		})
	}
	return out, nil
}
