package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	LoginPath   = "/admin/auth/login/"
	RefreshPath = "/admin/auth/refresh/"
	LogoutPath  = "/admin/auth/logout/"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type LoginResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    LoginUser `json:"user"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// TokenPair is the refresh response. Refresh is empty when the server does
// not rotate refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Login performs exactly one credential exchange call. It does not touch the
// session store. Any non-2xx answer comes back as *LoginError carrying the
// server's message; transport and decode failures as ErrNetwork.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.postAnonymous(ctx, LoginPath, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		var eb errorBody
		_ = json.Unmarshal(resp.Body, &eb)
		return nil, &LoginError{StatusCode: resp.StatusCode, Message: eb.message()}
	}

	var out LoginResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, networkError(fmt.Errorf("decode login response: %w", err))
	}
	return &out, nil
}

// RefreshTokens exchanges a refresh token for a new pair. Callers other than
// the request wrapper should not need it.
func (c *HTTPClient) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	resp, err := c.postAnonymous(ctx, RefreshPath, RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, err
	}

	var out TokenPair
	if err := DecodeResponse(resp, &out); err != nil {
		return nil, err
	}
	if out.Access == "" {
		return nil, fmt.Errorf("refresh response carries no access token")
	}
	return &out, nil
}

// Logout asks the server to revoke the refresh tokens of the user behind
// accessToken. It is sent as is: a 401 here is not followed by a refresh.
func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: LogoutPath}, accessToken)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, nil)
}

func (c *HTTPClient) postAnonymous(ctx context.Context, path string, in any) (*Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.send(ctx, &Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	}, "")
}
