// Package client talks to the planadmin REST API on behalf of the current
// session.
//
// HTTPClient attaches the session's bearer token to every request and, on a
// 401, refreshes the token pair once and retries. Concurrent 401s for the same
// access token share one refresh call. A rejected refresh clears the session
// store before any caller sees the error.
//
// Errors are matched with errors.Is against the sentinels in internal/common:
// ErrUnauthorized (log in again), ErrNetwork (transient) and ErrForbidden.
// Other non-2xx responses surface as *ResponseError.
//
// The package also bootstraps the local SQLite database that backs the
// session store (InitDatabase, RunMigrations).
package client
