package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/client/session"
	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRefreshTimeout = 15 * time.Second
	maxResponseBody       = 10 << 20
)

// Request describes one API call. Body is kept as bytes so the request can be
// replayed after a token refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// HTTPClient is the authenticated request wrapper. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	logger  logging.Logger
	now     func() time.Time

	refreshTimeout time.Duration
	proactive      bool
	expirySkew     time.Duration

	refreshGroup singleflight.Group

	stateMu sync.Mutex
	state   State

	unsubscribe func()
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRefreshTimeout bounds a refresh call. A refresh that runs out of time
// counts as failed.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// WithProactiveRefresh refreshes before sending when the access token is
// known to expire within skew.
func WithProactiveRefresh(skew time.Duration) Option {
	return func(c *HTTPClient) {
		c.proactive = true
		c.expirySkew = skew
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *HTTPClient) { c.now = now }
}

// NewHTTPClient returns a client for the API at baseURL that reads and
// refreshes the session held by store.
func NewHTTPClient(baseURL string, store *session.Store, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: defaultRequestTimeout},
		store:          store,
		logger:         logging.Nop(),
		now:            time.Now,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, o := range opts {
		o(c)
	}

	if store.Get() != nil {
		c.state = StateAuthenticated
	}
	c.unsubscribe = store.OnChange(c.onSessionChange)
	return c
}

// Close detaches the client from the session store.
func (c *HTTPClient) Close() {
	c.unsubscribe()
}

// Do sends req with the current access token. On a 401 it refreshes the token
// pair once and retries once. Without a session it fails with ErrUnauthorized
// and performs no I/O.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	sess := c.store.Get()
	if sess == nil {
		return nil, fmt.Errorf("%w: no active session", common.ErrUnauthorized)
	}
	token := sess.AccessToken

	if c.proactive && sess.AccessExpiresWithin(c.now(), c.expirySkew) {
		c.logger.Debug(ctx, "access token about to expire, refreshing", "expires_at", sess.ExpiresAt)
		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return nil, err
		}
		token = fresh
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	fresh, err := c.refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, req, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: rejected after token refresh", common.ErrUnauthorized)
	}
	return resp, nil
}

func (c *HTTPClient) send(ctx context.Context, req *Request, token string) (*Response, error) {
	hreq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if token != "" {
		hreq.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	requestID := hreq.Header.Get(common.RequestIDHeaderName)
	start := c.now()

	hresp, err := c.http.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceledError(ctx)
		}
		c.logger.Warn(ctx, "request failed", "request_id", requestID, "method", hreq.Method, "path", req.Path, "error", err)
		return nil, networkError(err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseBody))
	if err != nil {
		return nil, networkError(err)
	}

	c.logger.Debug(ctx, "request done",
		"request_id", requestID,
		"method", hreq.Method,
		"path", req.Path,
		"status", hresp.StatusCode,
		"elapsed", c.now().Sub(start),
	)

	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: body}, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	if hreq.Header.Get("Accept") == "" {
		hreq.Header.Set("Accept", "application/json")
	}
	if hreq.Header.Get(common.RequestIDHeaderName) == "" {
		hreq.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}
	return hreq, nil
}

// refresh returns an access token newer than stale, refreshing if nobody has
// yet. Concurrent callers holding the same stale token share one refresh.
// ctx only bounds the wait; the refresh itself keeps running for the others.
func (c *HTTPClient) refresh(ctx context.Context, stale string) (string, error) {
	cur := c.store.Get()
	if cur == nil {
		return "", fmt.Errorf("%w: session ended", common.ErrUnauthorized)
	}
	if cur.AccessToken != stale {
		return cur.AccessToken, nil
	}

	ch := c.refreshGroup.DoChan(stale, func() (any, error) {
		return c.runRefresh(context.WithoutCancel(ctx), stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug(ctx, "joined in-flight token refresh")
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", canceledError(ctx)
	}
}

// runRefresh is executed by exactly one caller per stale token.
func (c *HTTPClient) runRefresh(parent context.Context, stale string) (string, error) {
	// A previous flight for this token may have finished between the caller's
	// check and DoChan; its result is already in the store.
	cur := c.store.Get()
	if cur == nil {
		return "", fmt.Errorf("%w: session ended", common.ErrUnauthorized)
	}
	if cur.AccessToken != stale {
		return cur.AccessToken, nil
	}

	c.beginRefresh()

	ctx, cancel := context.WithTimeout(parent, c.refreshTimeout)
	defer cancel()

	pair, err := c.RefreshTokens(ctx, cur.RefreshToken)
	if err != nil {
		timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
		if errors.Is(err, common.ErrNetwork) && !timedOut {
			c.abortRefresh()
			c.logger.Warn(parent, "token refresh unreachable, keeping session", "error", err)
			return "", err
		}
		return "", c.failRefresh(parent, stale, err)
	}

	next := cur.WithTokens(pair.Access, pair.Refresh)
	if err := c.store.UpdateIf(parent, stale, next); err != nil {
		if errors.Is(err, session.ErrSessionChanged) {
			if now := c.store.Get(); now != nil {
				return now.AccessToken, nil
			}
			return "", fmt.Errorf("%w: session ended", common.ErrUnauthorized)
		}
		// The server has already rotated the pair; the old one is dead.
		return "", c.failRefresh(parent, stale, err)
	}

	c.logger.Info(parent, "access token refreshed", "user_id", cur.User.ID, "rotated", pair.Refresh != "")
	return pair.Access, nil
}

// failRefresh clears the session before the failure reaches any caller.
func (c *HTTPClient) failRefresh(ctx context.Context, stale string, cause error) error {
	c.logger.Warn(ctx, "token refresh failed, clearing session", "error", cause)

	if err := c.store.InvalidateIf(ctx, stale, session.ReasonRefreshFailed); err != nil {
		if errors.Is(err, session.ErrSessionChanged) {
			c.abortRefresh()
		} else {
			c.logger.Error(ctx, "failed to wipe session after refresh failure", "error", err)
		}
	}
	return errors.Join(common.ErrUnauthorized, fmt.Errorf("%w: %v", common.ErrRefreshFailed, cause))
}

// JSON helpers. A non-2xx response becomes a *ResponseError; out may be nil.

func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *HTTPClient) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *HTTPClient) PatchJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, nil, in, out)
}

func (c *HTTPClient) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, in, out)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := &Request{Method: method, Path: path, Query: query}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Body = body
		req.ContentType = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, out)
}

// DecodeResponse turns a non-2xx response into a *ResponseError and decodes a
// 2xx body into out.
func DecodeResponse(resp *Response, out any) error {
	if !resp.OK() {
		var eb errorBody
		_ = json.Unmarshal(resp.Body, &eb)
		return &ResponseError{StatusCode: resp.StatusCode, Message: eb.message()}
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
