// Package httpapi exposes the marketplace services over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/metrics"
	"github.com/tonybigdeals/dog-project/internal/middleware"
	"github.com/tonybigdeals/dog-project/internal/services"
	"github.com/tonybigdeals/dog-project/internal/services/applications"
	"github.com/tonybigdeals/dog-project/internal/services/auth"
	"github.com/tonybigdeals/dog-project/internal/services/dogs"
	"github.com/tonybigdeals/dog-project/internal/services/favorites"
	"github.com/tonybigdeals/dog-project/internal/services/forum"
	"github.com/tonybigdeals/dog-project/internal/services/messages"
	"github.com/tonybigdeals/dog-project/internal/services/submissions"
	"github.com/tonybigdeals/dog-project/internal/services/upload"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

const notConfiguredMessage = "Supabase client not initialized. Please check your environment variables."

// Services is the set of domain services behind the API.
type Services struct {
	Auth         *auth.Service
	Dogs         *dogs.Service
	Favorites    *favorites.Service
	Applications *applications.Service
	Submissions  *submissions.Service
	Messages     *messages.Service
	Upload       *upload.Service
	Forum        *forum.Service
}

// Options configures the handler. Zero values disable the optional pieces.
type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.Metrics

	// Ready reports whether the persistence backend is usable. Persistence routes answer
	// 500 while it returns false. Nil means always ready.
	Ready func() bool

	Backend string
	Pinger  storage.Pinger
	// Objects serves /uploads/{bucket}/{path} for backends without a public CDN.
	Objects storage.ObjectReader

	AllowedOrigins []string
	JWTSecret      []byte
	// Verifier checks bearer tokens when no JWTSecret is set.
	Verifier middleware.TokenVerifier
	Limiter  middleware.Limiter
}

type handler struct {
	svc     Services
	opts    Options
	log     *logging.Logger
	started time.Time
}

// NewHandler builds the router and wraps it in the middleware chain.
func NewHandler(svc Services, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.NewDefault("httpapi")
	}
	h := &handler{svc: svc, opts: opts, log: opts.Logger, started: time.Now()}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFound)
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware("api", opts.Metrics))
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	h.routes(r)
	h.routes(r.PathPrefix("/api").Subrouter())

	var out http.Handler = r
	if opts.Limiter != nil {
		out = middleware.RateLimit(opts.Limiter, h.log)(out)
	}
	out = middleware.LoggingMiddleware(h.log)(out)
	out = middleware.BearerAuth(opts.JWTSecret, opts.Verifier, h.log)(out)
	out = middleware.CORS(opts.AllowedOrigins, h.log)(out)
	out = chimw.Recoverer(out)
	out = chimw.RealIP(out)
	out = chimw.RequestID(out)
	return out
}

func (h *handler) routes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/health/details", h.healthDetails).Methods(http.MethodGet)
	r.HandleFunc("/uploads/{bucket}/{path:.+}", h.serveObject).Methods(http.MethodGet)

	route := func(method, path string, fn http.HandlerFunc) {
		r.Handle(path, h.guard(fn)).Methods(method)
	}

	route(http.MethodPost, "/auth/register", h.registerUser)
	route(http.MethodPost, "/auth/login", h.login)

	route(http.MethodGet, "/dogs", h.listDogs)
	route(http.MethodGet, "/dogs/{id}", h.getDog)

	route(http.MethodGet, "/favorites/{userId}", h.listFavorites)
	route(http.MethodPost, "/favorites", h.toggleFavorite)

	route(http.MethodPost, "/applications", h.submitApplication)
	route(http.MethodGet, "/applications", h.listApplications)
	route(http.MethodGet, "/applications/{userId}", h.listUserApplications)
	route(http.MethodPost, "/applications/{id}/approve", h.approveApplication)
	route(http.MethodPost, "/applications/{id}/reject", h.rejectApplication)

	route(http.MethodPost, "/dog-submissions", h.submitDog)
	route(http.MethodGet, "/dog-submissions", h.listSubmissions)
	route(http.MethodPost, "/dog-submissions/{id}/approve", h.approveSubmission)
	route(http.MethodPost, "/dog-submissions/{id}/reject", h.rejectSubmission)

	route(http.MethodGet, "/messages/{userId}", h.listMessages)

	route(http.MethodPost, "/upload/image", h.uploadImage)

	route(http.MethodGet, "/forum", h.listTopics)
	route(http.MethodPost, "/forum", h.createTopic)
	route(http.MethodPost, "/forum/comments/{id}/like", h.toggleCommentLike)
	route(http.MethodPost, "/forum/replies/{id}/like", h.toggleReplyLike)
	route(http.MethodGet, "/forum/{id}", h.getTopic)
	route(http.MethodPost, "/forum/{id}/like", h.toggleTopicLike)
	route(http.MethodPost, "/forum/{topicId}/comments", h.createComment)
}

// guard short-circuits persistence routes while the backend is not configured.
func (h *handler) guard(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.Ready != nil && !h.opts.Ready() {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": notConfiguredMessage})
			return
		}
		next(w, r)
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":  "Route not found",
		"method": r.Method,
		"path":   r.URL.Path,
	})
}

const maxJSONBody = 1 << 20

// decodeJSON reads an optional JSON body. An empty body leaves dst untouched.
func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	err := json.NewDecoder(io.LimitReader(body, maxJSONBody)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decode wraps decodeJSON and answers 400 itself on malformed input.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r.Body, dst); err != nil {
		h.log.WithContext(r.Context()).WithError(err).Debug("malformed request body")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeServiceError renders a service error with the status its kind maps to.
func (h *handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": services.Message(err)})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
