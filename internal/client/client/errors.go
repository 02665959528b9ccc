package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/planadmin/internal/common"
)

// ResponseError is a non-2xx API response other than the 401 handled by the
// refresh flow.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known statuses onto the shared sentinels.
func (e *ResponseError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	}
	if e.StatusCode >= 500 {
		return common.ErrNetwork
	}
	return nil
}

// LoginError is a rejected credential exchange. Message is the server's
// error text, suitable for display.
type LoginError struct {
	StatusCode int
	Message    string
}

func (e *LoginError) Error() string {
	if e.Message == "" {
		return common.ErrInvalidCredentials.Error()
	}
	return e.Message
}

func (e *LoginError) Unwrap() error { return common.ErrInvalidCredentials }

// errorBody is the error envelope used by the API.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (b errorBody) message() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Detail
}

func networkError(err error) error {
	return fmt.Errorf("%w: %v", common.ErrNetwork, err)
}

// canceledError keeps ctx.Err() matchable next to ErrNetwork.
func canceledError(ctx context.Context) error {
	return fmt.Errorf("%w: %w", common.ErrNetwork, ctx.Err())
}
