// Package services contains application services for the planadmin client.
// This file defines the credential exchange: validating login input, trading
// credentials for a token pair and handing the resulting session to the store.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/planadmin/internal/client/client"
	"github.com/dmitrijs2005/planadmin/internal/client/session"
	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/logging"
)

// AuthService defines authentication operations for the console.
//
// Contract:
//   - Login: validate input locally, then exactly one exchange call; on
//     success the session is stored and returned.
//   - Logout: revoke the refresh token on the server when possible, then
//     clear the session. Only a local failure is returned.
//   - Current: the session currently held by the store, or nil.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context) error
	Current() *session.Session
}

// AuthAPI is the subset of *client.HTTPClient used by AuthService.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Reset()
}

type authService struct {
	api    AuthAPI
	store  *session.Store
	logger logging.Logger
}

func NewAuthService(api AuthAPI, store *session.Store, logger logging.Logger) AuthService {
	return &authService{api: api, store: store, logger: logger}
}

// Login never retries. Validation failures are reported as
// ErrInvalidCredentials without any network call.
func (a *authService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		var le *client.LoginError
		if errors.As(err, &le) {
			a.logger.Info(ctx, "login rejected", "email", email, "status", le.StatusCode)
			return nil, err
		}
		a.logger.Warn(ctx, "login call failed", "error", err)
		if errors.Is(err, common.ErrNetwork) {
			return nil, common.ErrNetwork
		}
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}

	role, err := session.ParseRole(resp.User.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCredentials, err)
	}

	sess, err := session.New(resp.Access, resp.Refresh, session.User{
		ID:          resp.User.ID,
		Email:       resp.User.Email,
		Name:        session.DisplayName(resp.User.FirstName, resp.User.LastName, resp.User.Email),
		Role:        role,
		Permissions: session.NormalizePermissions(resp.User.Permissions),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCredentials, err)
	}

	if err := a.store.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	a.logger.Info(ctx, "logged in", "user_id", sess.User.ID, "role", sess.User.Role)
	return sess, nil
}

func (a *authService) Logout(ctx context.Context) error {
	if cur := a.store.Get(); cur != nil {
		if err := a.api.Logout(ctx, cur.AccessToken); err != nil {
			a.logger.Warn(ctx, "server logout failed, clearing local session anyway", "user_id", cur.User.ID, "error", err)
		}
	}

	err := a.store.Clear(ctx)
	a.api.Reset()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *authService) Current() *session.Session {
	return a.store.Get()
}

func validateCredentials(email, password string) error {
	if email == "" {
		return &client.LoginError{Message: "email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &client.LoginError{Message: "enter a valid email address"}
	}
	if password == "" {
		return &client.LoginError{Message: "password is required"}
	}
	return nil
}
