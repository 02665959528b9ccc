package client

import (
	"github.com/dmitrijs2005/planadmin/internal/client/session"
)

// State is the authentication state of one client instance.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateRefreshInFlight
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshInFlight:
		return "refresh-in-flight"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// State reports the current authentication state.
func (c *HTTPClient) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Reset moves an expired client back to Anonymous. Called on explicit logout,
// when the store may already be empty and so emits no event.
func (c *HTTPClient) Reset() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state == StateExpired {
		c.state = StateAnonymous
	}
}

func (c *HTTPClient) onSessionChange(e session.Event) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	switch e.Reason {
	case session.ReasonRestored, session.ReasonUpdated:
		c.state = StateAuthenticated
	case session.ReasonRefreshFailed, session.ReasonExpired:
		c.state = StateExpired
	default:
		c.state = StateAnonymous
	}
}

// beginRefresh is called by the single refresh leader.
func (c *HTTPClient) beginRefresh() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state == StateAuthenticated {
		c.state = StateRefreshInFlight
	}
}

// abortRefresh undoes beginRefresh after a transient failure that left the
// session in place.
func (c *HTTPClient) abortRefresh() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state == StateRefreshInFlight {
		c.state = StateAuthenticated
	}
}
