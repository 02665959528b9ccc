// Package access answers role questions about the current session.
package access

import (
	"fmt"

	"github.com/dmitrijs2005/planadmin/internal/client/session"
	"github.com/dmitrijs2005/planadmin/internal/common"
)

// SessionSource is satisfied by *session.Store.
type SessionSource interface {
	Get() *session.Session
}

// Gate evaluates role requirements synchronously against the current session.
type Gate struct {
	sessions SessionSource
}

func NewGate(sessions SessionSource) *Gate {
	return &Gate{sessions: sessions}
}

// CanAccess reports whether the current session's role satisfies required.
// No session means no access.
func (g *Gate) CanAccess(required session.Role) bool {
	return g.Require(required) == nil
}

// Require returns nil when access is allowed. Without a session the error
// matches both ErrLoginRequired and ErrUnauthorized, so callers send the user
// to login; with a session of too low a role it matches ErrForbidden.
func (g *Gate) Require(required session.Role) error {
	s := g.sessions.Get()
	if s == nil {
		return fmt.Errorf("%w: %w", common.ErrLoginRequired, common.ErrUnauthorized)
	}
	if !s.User.Role.Satisfies(required) {
		return fmt.Errorf("%w: %s required, have %s", common.ErrForbidden, required, s.User.Role)
	}
	return nil
}

// HasPermission reports whether the current session carries the named permission.
func (g *Gate) HasPermission(name string) bool {
	s := g.sessions.Get()
	return s != nil && s.User.HasPermission(name)
}
