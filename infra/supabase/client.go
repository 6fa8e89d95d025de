package supabase

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"

	"github.com/tonybigdeals/dog-project/internal/httputil"
)

const (
	maxResponseBytes  = 8 << 20
	maxErrorBodyBytes = 32 << 10
)

// Client is the main Supabase client. A Client is safe for concurrent use; WithAccessToken
// derives request-scoped copies that share the transport and circuit breaker.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[rawResponse]

	// Derived values
	baseURL      string
	restURL      string
	authURL      string
	storageURL   string
	allowedHosts map[string]struct{}

	apiKey      string
	accessToken string

	// Sub-clients
	auth     *AuthClient
	database *DatabaseClient
	storage  *StorageClient
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.AnonKey == "" && cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("anon key or service role key is required")
	}

	// Parse and validate URL
	baseURL := strings.TrimRight(cfg.ProjectURL, "/")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid project URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid project URL scheme %q", parsedURL.Scheme)
	}

	// Build allowed hosts
	allowedHosts := make(map[string]struct{})
	if len(cfg.AllowedHosts) == 0 {
		allowedHosts[parsedURL.Hostname()] = struct{}{}
	} else {
		for _, h := range cfg.AllowedHosts {
			if h != "" {
				allowedHosts[h] = struct{}{}
			}
		}
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Breaker.FailureThreshold == 0 {
		onChange := cfg.Breaker.OnStateChange
		cfg.Breaker = DefaultBreakerConfig()
		cfg.Breaker.OnStateChange = onChange
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	apiKey := cfg.ServiceRoleKey
	if apiKey == "" {
		apiKey = cfg.AnonKey
	}

	c := &Client{
		config:       cfg,
		httpClient:   httpClient,
		breaker:      newBreaker(cfg.Breaker),
		baseURL:      baseURL,
		restURL:      baseURL + "/rest/v1",
		authURL:      baseURL + "/auth/v1",
		storageURL:   baseURL + "/storage/v1",
		allowedHosts: allowedHosts,
		apiKey:       apiKey,
	}
	c.initSubClients()

	return c, nil
}

func (c *Client) initSubClients() {
	c.auth = &AuthClient{client: c}
	c.database = &DatabaseClient{client: c}
	c.storage = &StorageClient{client: c}
}

// Privileged reports whether requests are made with the service role key.
func (c *Client) Privileged() bool {
	return c.config.ServiceRoleKey != ""
}

// WithAccessToken returns a copy of the client that authenticates as the token's principal,
// so PostgREST and storage apply row-level security for that user.
func (c *Client) WithAccessToken(token string) *Client {
	scoped := *c
	scoped.accessToken = token
	scoped.initSubClients()
	return &scoped
}

// Auth returns the auth client.
func (c *Client) Auth() *AuthClient {
	return c.auth
}

// Database returns the database client.
func (c *Client) Database() *DatabaseClient {
	return c.database
}

// Storage returns the storage client.
func (c *Client) Storage() *StorageClient {
	return c.storage
}

// From is shorthand for Database().From(table).
func (c *Client) From(table string) *QueryBuilder {
	return c.database.From(table)
}

// =============================================================================
// Internal HTTP Methods
// =============================================================================

// request performs an HTTP request with the client's key and optional user token.
func (c *Client) request(ctx context.Context, method, urlPath string, body []byte, headers map[string]string) ([]byte, int, error) {
	if err := c.validateURL(urlPath); err != nil {
		return nil, 0, err
	}

	reqHeaders := c.buildHeaders(headers)

	idempotent := method == http.MethodGet || method == http.MethodHead
	var (
		resp rawResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(c.config.Retry.backoff(attempt)):
			}
		}

		resp, err = c.execute(ctx, method, urlPath, body, reqHeaders)
		retry := (err != nil && retryableError(err)) || (err == nil && retryableStatus(resp.status))
		if !idempotent || !retry || attempt >= c.config.Retry.MaxRetries {
			break
		}
	}
	if err != nil {
		return nil, 0, err
	}
	return resp.body, resp.status, nil
}

func (c *Client) execute(ctx context.Context, method, urlPath string, body []byte, headers map[string]string) (rawResponse, error) {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, method, urlPath, bytes.NewReader(body))
		if err != nil {
			return rawResponse{}, fmt.Errorf("create request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return rawResponse{}, fmt.Errorf("request failed: %w", err)
		}
		defer httpResp.Body.Close()

		limit := int64(maxResponseBytes)
		if httpResp.StatusCode >= 400 {
			limit = maxErrorBodyBytes
		}
		data, _, err := httputil.ReadAllWithLimit(httpResp.Body, limit)
		if err != nil {
			return rawResponse{}, fmt.Errorf("read response: %w", err)
		}

		out := rawResponse{body: data, status: httpResp.StatusCode}
		if httpResp.StatusCode >= 500 {
			return out, errServerStatus
		}
		return out, nil
	})

	if errors.Is(err, errServerStatus) {
		err = nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	if c.config.OnRequest != nil {
		c.config.OnRequest(method, resp.status, err, time.Since(start))
	}
	return resp, err
}

// buildHeaders builds request headers.
func (c *Client) buildHeaders(extra map[string]string) map[string]string {
	bearer := c.apiKey
	if c.accessToken != "" {
		bearer = c.accessToken
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "application/json",
		"apikey":        c.apiKey,
		"Authorization": "Bearer " + bearer,
	}

	for k, v := range c.config.DefaultHeaders {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}

	return headers
}

// validateURL validates that the URL is allowed.
func (c *Client) validateURL(rawURL string) error {
	if len(c.allowedHosts) == 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("invalid URL host")
	}

	if _, ok := c.allowedHosts[host]; !ok {
		return fmt.Errorf("host not allowed: %s", host)
	}

	return nil
}

// parseError parses an error response from PostgREST, GoTrue, or Storage. The three APIs
// use different envelopes, so the message is taken from the first populated field.
func parseError(body []byte, statusCode int) error {
	if !gjson.ValidBytes(body) {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(statusCode)
		}
		return &Error{Code: "unknown", Message: msg, StatusCode: statusCode}
	}

	fields := gjson.GetManyBytes(body, "message", "msg", "error_description", "error", "error_code", "code", "details", "hint")

	msg := firstNonEmpty(fields[0].String(), fields[1].String(), fields[2].String(), fields[3].String())
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	return &Error{
		Code:       firstNonEmpty(fields[4].String(), fields[5].String()),
		Message:    msg,
		Details:    fields[6].String(),
		Hint:       fields[7].String(),
		StatusCode: statusCode,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// PostgREST returns this code when a single-object request matched no rows.
const CodeNoRows = "PGRST116"

// IsNoRows reports whether err is a PostgREST "no rows" error.
func IsNoRows(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Code == CodeNoRows || e.StatusCode == http.StatusNotAcceptable)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Code == "23505" || e.StatusCode == http.StatusConflict)
}
