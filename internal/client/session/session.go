// Package session holds the authenticated session model and the Store that
// exclusively owns it for one client instance.
package session

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether name is in the user's permission set.
func (u User) HasPermission(name string) bool {
	return slices.Contains(u.Permissions, name)
}

// Session is the access/refresh token pair plus the profile it was issued for.
// A Session handed out by the Store is a private copy; mutating it has no
// effect on the Store.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`

	// ExpiresAt and RefreshExpiresAt come from the tokens' exp claims.
	// Zero means unknown (opaque token or no claim).
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// New assembles a session and derives token expiries.
func New(accessToken, refreshToken string, user User) (*Session, error) {
	s := &Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		User:             user,
		ExpiresAt:        TokenExpiry(accessToken),
		RefreshExpiresAt: TokenExpiry(refreshToken),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports an incomplete session: every field is set or none is.
func (s *Session) Validate() error {
	var missing []string
	if s.AccessToken == "" {
		missing = append(missing, "access token")
	}
	if s.RefreshToken == "" {
		missing = append(missing, "refresh token")
	}
	if s.User.ID == 0 {
		missing = append(missing, "user id")
	}
	if s.User.Email == "" {
		missing = append(missing, "email")
	}
	if s.User.Name == "" {
		missing = append(missing, "name")
	}
	if !s.User.Role.Valid() {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrIncompleteSession, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User.Permissions != nil {
		c.User.Permissions = slices.Clone(s.User.Permissions)
	}
	return &c
}

// WithTokens returns a copy carrying a refreshed token pair. The user, and so
// the role, is carried over unchanged. An empty refresh keeps the current one.
func (s *Session) WithTokens(accessToken, refreshToken string) *Session {
	c := s.Clone()
	c.AccessToken = accessToken
	c.ExpiresAt = TokenExpiry(accessToken)
	if refreshToken != "" {
		c.RefreshToken = refreshToken
		c.RefreshExpiresAt = TokenExpiry(refreshToken)
	}
	return c
}

// AccessExpiresWithin reports whether the access token is known to expire
// before now+skew.
func (s *Session) AccessExpiresWithin(now time.Time, skew time.Duration) bool {
	return !s.ExpiresAt.IsZero() && !now.Add(skew).Before(s.ExpiresAt)
}

// RefreshExpired reports whether the refresh token is known to be expired.
func (s *Session) RefreshExpired(now time.Time) bool {
	return !s.RefreshExpiresAt.IsZero() && !now.Before(s.RefreshExpiresAt)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client never holds the signing key; the server stays the authority and
// this value only drives local expiry decisions.
func TokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time.UTC()
}

// DisplayName joins first and last name, falling back to email when both are blank.
func DisplayName(firstName, lastName, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name == "" {
		return email
	}
	return name
}

// NormalizePermissions returns a sorted set without blanks or duplicates.
func NormalizePermissions(perms []string) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
