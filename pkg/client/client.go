// Package client is a Go client for the dog adoption API.
package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/httputil"
	"github.com/tonybigdeals/dog-project/internal/services/forum"
)

// StatusError is returned for non-2xx responses; Message is the API's error text.
type StatusError = httputil.StatusError

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	http *httputil.ServiceClient
}

func New(cfg Config) *Client {
	return &Client{http: httputil.NewServiceClient(httputil.ServiceClientConfig{
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		Timeout:     cfg.Timeout,
		HTTPClient:  cfg.HTTPClient,
	})}
}

// SetAccessToken switches the bearer token, e.g. after Login.
func (c *Client) SetAccessToken(token string) {
	c.http.SetAccessToken(token)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.http.Get(ctx, path)
	if err != nil {
		return err
	}
	return httputil.DecodeResponse(resp, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.http.Post(ctx, path, body)
	if err != nil {
		return err
	}
	return httputil.DecodeResponse(resp, out)
}

type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/health", &out)
	return out, err
}

// Login signs in and, on success, uses the returned access token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err == nil && out.Session != nil {
		c.SetAccessToken(out.Session.AccessToken)
	}
	return out, err
}

func (c *Client) ListDogs(ctx context.Context) ([]domain.Dog, error) {
	var out []domain.Dog
	err := c.get(ctx, "/dogs", &out)
	return out, err
}

func (c *Client) GetDog(ctx context.Context, id domain.ID) (domain.Dog, error) {
	var out domain.Dog
	err := c.get(ctx, "/dogs/"+url.PathEscape(string(id)), &out)
	return out, err
}

func (c *Client) ListFavorites(ctx context.Context, userID domain.ID) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := c.get(ctx, "/favorites/"+url.PathEscape(string(userID)), &out)
	return out, err
}

// ToggleFavorite flips membership on the server and returns the resulting state.
func (c *Client) ToggleFavorite(ctx context.Context, userID, dogID domain.ID) (domain.FavoriteStatus, error) {
	var out struct {
		Status domain.FavoriteStatus `json:"status"`
	}
	err := c.post(ctx, "/favorites", map[string]domain.ID{"userId": userID, "dogId": dogID}, &out)
	return out.Status, err
}

// TopicQuery filters ListTopics. Empty fields are omitted.
type TopicQuery struct {
	Category string
	Sort     string
	Search   string
	UserID   domain.ID
}

func (c *Client) ListTopics(ctx context.Context, q TopicQuery) ([]forum.TopicView, error) {
	v := url.Values{}
	for key, val := range map[string]string{
		"category": q.Category, "sort": q.Sort, "search": q.Search, "userId": string(q.UserID),
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	path := "/forum"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out []forum.TopicView
	err := c.get(ctx, path, &out)
	return out, err
}
