// Package common contains shared constants and sentinel errors used across
// planadmin components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential
// on outbound API requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName correlates a client request with server-side logs.
const RequestIDHeaderName = "X-Request-ID"

// Metadata keys of the persisted session record.
const (
	SessionMetadataKey     = "session"
	SessionSaltMetadataKey = "session_salt"
)
