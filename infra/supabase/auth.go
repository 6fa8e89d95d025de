package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// AuthClient handles Supabase Auth (GoTrue) operations.
type AuthClient struct {
	client *Client
}

// SignUp creates a new user. Depending on the project's confirmation settings GoTrue answers
// either with a session or with the bare user; both are normalized into AuthResponse.
func (a *AuthClient) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, statusCode, err := a.client.request(ctx, http.MethodPost, a.client.authURL+"/signup", body, nil)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return decodeAuthResponse(respBody)
}

// SignInWithPassword authenticates a user with email/password.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, statusCode, err := a.client.request(ctx, http.MethodPost, a.client.authURL+"/token?grant_type=password", body, nil)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	return decodeAuthResponse(respBody)
}

// GetUser retrieves the user that owns accessToken.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	scoped := a.client.WithAccessToken(accessToken)
	respBody, statusCode, err := scoped.request(ctx, http.MethodGet, a.client.authURL+"/user", nil, nil)
	if err != nil {
		return nil, err
	}

	if statusCode >= 400 {
		return nil, parseError(respBody, statusCode)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &user, nil
}

func decodeAuthResponse(body []byte) (*AuthResponse, error) {
	if gjson.GetBytes(body, "access_token").Exists() {
		var session Session
		if err := json.Unmarshal(body, &session); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		return &AuthResponse{User: session.User, Session: &session}, nil
	}

	// unconfirmed signups return the user object, sometimes wrapped in {"user": ...}
	userJSON := body
	if nested := gjson.GetBytes(body, "user"); nested.IsObject() {
		userJSON = []byte(nested.Raw)
	}

	var user User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &AuthResponse{User: &user}, nil
}
