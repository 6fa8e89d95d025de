package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tonybigdeals/dog-project/internal/logging"
)

// =============================================================================
// ServiceClient Tests
// =============================================================================

func TestNewServiceClient(t *testing.T) {
	client := NewServiceClient(ServiceClientConfig{
		BaseURL:    "http://localhost:5001/",
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	})

	if client == nil {
		t.Fatal("NewServiceClient() returned nil")
	}
	if client.baseURL != "http://localhost:5001" {
		t.Errorf("baseURL = %s, want http://localhost:5001", client.baseURL)
	}
	if client.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", client.maxRetries)
	}
}

func TestNewServiceClient_Defaults(t *testing.T) {
	client := NewServiceClient(ServiceClientConfig{BaseURL: "http://localhost:5001"})

	if client.maxRetries != 2 {
		t.Errorf("default maxRetries = %d, want 2", client.maxRetries)
	}
}

func TestServiceClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/dogs" {
			t.Errorf("Path = %s, want /dogs", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]string{{"id": "1"}})
	}))
	defer server.Close()

	client := NewServiceClient(ServiceClientConfig{BaseURL: server.URL})

	resp, err := client.Get(context.Background(), "/dogs")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	var out []map[string]string
	if err := DecodeResponse(resp, &out); err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if len(out) != 1 || out[0]["id"] != "1" {
		t.Errorf("unexpected body %v", out)
	}
}

func TestServiceClient_PostAttachesTokenAndTrace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Trace-ID"); got != "trace-9" {
			t.Errorf("X-Trace-ID = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["userId"] != "u1" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewServiceClient(ServiceClientConfig{BaseURL: server.URL})
	client.SetAccessToken("tok")

	ctx := logging.WithTraceID(context.Background(), "trace-9")
	resp, err := client.Post(ctx, "/favorites", map[string]string{"userId": "u1"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServiceClient_RetryOnGatewayError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewServiceClient(ServiceClientConfig{BaseURL: server.URL})

	resp, err := client.Delete(context.Background(), "/x")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

// =============================================================================
// DecodeResponse / body helpers
// =============================================================================

func TestDecodeResponse_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Invalid login credentials"}`))
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("http.Get() error = %v", err)
	}

	err = DecodeResponse(resp, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
	if statusErr.Message != "Invalid login credentials" {
		t.Errorf("Message = %q", statusErr.Message)
	}
}

func TestReadAllWithLimit(t *testing.T) {
	data, truncated, err := ReadAllWithLimit(strings.NewReader("abcdef"), 4)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error = %v", err)
	}
	if !truncated || string(data) != "abcd" {
		t.Errorf("got %q truncated=%v", data, truncated)
	}

	if _, err := ReadAllStrict(strings.NewReader("abcdef"), 4); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("ReadAllStrict() error = %v, want ErrBodyTooLarge", err)
	}

	data, err = ReadAllStrict(strings.NewReader("abc"), 4)
	if err != nil || string(data) != "abc" {
		t.Errorf("ReadAllStrict() = %q, %v", data, err)
	}
}
