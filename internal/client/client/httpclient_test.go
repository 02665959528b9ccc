package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/client/session"
	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resourcePath = "/admin/beneficiaries/"

// apiStub accepts resource requests carrying validToken and answers refresh
// calls through refreshFn.
type apiStub struct {
	srv *httptest.Server

	mu         sync.Mutex
	validToken string
	refreshFn  func(w http.ResponseWriter, r *http.Request)

	resourceHits  atomic.Int32
	unauthorized  atomic.Int32
	refreshCalls  atomic.Int32
	lastAuth      atomic.Value
	lastRequestID atomic.Value
}

func newAPIStub(t *testing.T, validToken string) *apiStub {
	t.Helper()
	s := &apiStub{validToken: validToken}
	s.refreshFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, TokenPair{Access: "A2", Refresh: "R2"})
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		s.mu.Lock()
		fn := s.refreshFn
		s.mu.Unlock()
		fn(w, r)
	})
	mux.HandleFunc(resourcePath, func(w http.ResponseWriter, r *http.Request) {
		s.resourceHits.Add(1)
		auth := r.Header.Get(common.AuthorizationHeaderName)
		s.lastAuth.Store(auth)
		s.lastRequestID.Store(r.Header.Get(common.RequestIDHeaderName))

		s.mu.Lock()
		valid := common.BearerPrefix + s.validToken
		s.mu.Unlock()

		if auth != valid {
			s.unauthorized.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": []string{"x"}})
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *apiStub) setRefresh(fn func(w http.ResponseWriter, r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFn = fn
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func seededStore(t *testing.T, access string) *session.Store {
	t.Helper()
	store := session.NewStore()
	sess, err := session.New(access, "R1", session.User{
		ID: 1, Email: "a@b.com", Name: "Ana Souza", Role: session.RoleAdmin,
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), sess))
	return store
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDo_NoSessionFailsWithoutNetwork(t *testing.T) {
	stub := newAPIStub(t, "A1")
	c := NewHTTPClient(stub.srv.URL, session.NewStore())

	_, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Zero(t, stub.resourceHits.Load())
	assert.Equal(t, StateAnonymous, c.State())
}

func TestDo_AttachesBearerAndRequestID(t *testing.T) {
	stub := newAPIStub(t, "A1")
	c := NewHTTPClient(stub.srv.URL, seededStore(t, "A1"))

	var out struct {
		Results []string `json:"results"`
	}
	require.NoError(t, c.GetJSON(context.Background(), resourcePath, nil, &out))

	assert.Equal(t, []string{"x"}, out.Results)
	assert.Equal(t, "Bearer A1", stub.lastAuth.Load())
	assert.NotEmpty(t, stub.lastRequestID.Load())
	assert.Zero(t, stub.refreshCalls.Load())
}

func TestDo_ClearThenRequestSkipsNetwork(t *testing.T) {
	stub := newAPIStub(t, "A1")
	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	require.NoError(t, store.Clear(context.Background()))

	_, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Zero(t, stub.resourceHits.Load())
}

func TestDo_SingleFlightRefresh(t *testing.T) {
	const callers = 16

	stub := newAPIStub(t, "A2")
	release := make(chan struct{})
	stub.setRefresh(func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Refresh != "R1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token reused"})
			return
		}
		<-release
		writeJSON(w, http.StatusOK, TokenPair{Access: "A2", Refresh: "R2"})
	})

	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), &Request{Path: resourcePath})
		}(i)
	}

	require.Eventually(t, func() bool {
		return stub.unauthorized.Load() == callers
	}, 5*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return stub.refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, StateRefreshInFlight, c.State())
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, stub.refreshCalls.Load())
	assert.EqualValues(t, 2*callers, stub.resourceHits.Load())
	assert.Equal(t, "Bearer A2", stub.lastAuth.Load())

	cur := store.Get()
	assert.Equal(t, "A2", cur.AccessToken)
	assert.Equal(t, "R2", cur.RefreshToken)
	assert.Equal(t, session.RoleAdmin, cur.User.Role)
	assert.Equal(t, StateAuthenticated, c.State())
}

func TestDo_RefreshWithoutRotationKeepsRefreshToken(t *testing.T) {
	stub := newAPIStub(t, "A2")
	stub.setRefresh(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "A2"})
	})
	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	resp, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer A2", stub.lastAuth.Load())

	cur := store.Get()
	assert.Equal(t, "A2", cur.AccessToken)
	assert.Equal(t, "R1", cur.RefreshToken)
}

func TestDo_LateCallerReusesFinishedRefresh(t *testing.T) {
	stub := newAPIStub(t, "A2")
	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	token, err := c.refresh(context.Background(), "A1")
	require.NoError(t, err)
	require.Equal(t, "A2", token)

	token, err = c.refresh(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.EqualValues(t, 1, stub.refreshCalls.Load())
}

func TestDo_RefreshRejectedClearsSession(t *testing.T) {
	const callers = 8

	stub := newAPIStub(t, "A2")
	release := make(chan struct{})
	stub.setRefresh(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token is invalid or expired"})
	})

	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	var reasons []session.Reason
	var sawSessionAtClear bool
	store.OnChange(func(e session.Event) {
		reasons = append(reasons, e.Reason)
		sawSessionAtClear = store.Get() != nil
	})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), &Request{Path: resourcePath})
		}(i)
	}
	require.Eventually(t, func() bool {
		return stub.unauthorized.Load() == callers
	}, 5*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	failed := 0
	for _, err := range errs {
		require.ErrorIs(t, err, common.ErrUnauthorized)
		if errors.Is(err, common.ErrRefreshFailed) {
			failed++
		}
	}
	assert.Positive(t, failed)
	assert.EqualValues(t, 1, stub.refreshCalls.Load())
	assert.Nil(t, store.Get())
	assert.Equal(t, []session.Reason{session.ReasonRefreshFailed}, reasons)
	assert.False(t, sawSessionAtClear)
	assert.Equal(t, StateExpired, c.State())

	hits := stub.resourceHits.Load()
	_, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, hits, stub.resourceHits.Load())

	c.Reset()
	assert.Equal(t, StateAnonymous, c.State())
}

func TestDo_UnauthorizedAfterRetryIsNotRetriedAgain(t *testing.T) {
	stub := newAPIStub(t, "never")
	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	_, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.NotErrorIs(t, err, common.ErrRefreshFailed)

	assert.EqualValues(t, 1, stub.refreshCalls.Load())
	assert.EqualValues(t, 2, stub.resourceHits.Load())
	assert.Equal(t, "A2", store.Get().AccessToken)
}

func TestDo_CallerCancelDoesNotCancelRefresh(t *testing.T) {
	stub := newAPIStub(t, "A2")
	release := make(chan struct{})
	stub.setRefresh(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, TokenPair{Access: "A2", Refresh: "R2"})
	})
	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, &Request{Path: resourcePath})
		done <- err
	}()

	require.Eventually(t, func() bool { return stub.refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, err, common.ErrNetwork)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	require.Eventually(t, func() bool {
		cur := store.Get()
		return cur != nil && cur.AccessToken == "A2"
	}, 5*time.Second, 5*time.Millisecond)
}

func TestDo_RefreshTimeoutCountsAsFailure(t *testing.T) {
	stub := newAPIStub(t, "A2")
	release := make(chan struct{})
	// Runs before the server's Close cleanup, which waits for this handler.
	t.Cleanup(func() { close(release) })
	stub.setRefresh(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	store := seededStore(t, "A1")
	c := NewHTTPClient(stub.srv.URL, store, WithRefreshTimeout(50*time.Millisecond))

	_, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	require.ErrorIs(t, err, common.ErrRefreshFailed)
	assert.Nil(t, store.Get())
}

func TestDo_RefreshTransportErrorKeepsSession(t *testing.T) {
	stub := newAPIStub(t, "A2")
	store := seededStore(t, "A1")

	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == RefreshPath {
			return nil, errors.New("connection reset by peer")
		}
		return http.DefaultTransport.RoundTrip(r)
	})
	c := NewHTTPClient(stub.srv.URL, store, WithHTTPClient(&http.Client{Transport: transport}))

	_, err := c.Do(context.Background(), &Request{Path: resourcePath})
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.NotErrorIs(t, err, common.ErrUnauthorized)

	require.NotNil(t, store.Get())
	assert.Equal(t, "A1", store.Get().AccessToken)
	assert.Equal(t, StateAuthenticated, c.State())
}

func TestDo_ProactiveRefresh(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Second)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	stub := newAPIStub(t, "A2")
	store := seededStore(t, access)
	c := NewHTTPClient(stub.srv.URL, store,
		WithProactiveRefresh(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	_, err = c.Do(context.Background(), &Request{Path: resourcePath})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stub.refreshCalls.Load())
	assert.EqualValues(t, 1, stub.resourceHits.Load())
	assert.Zero(t, stub.unauthorized.Load())
}

func TestDo_StateFollowsStore(t *testing.T) {
	stub := newAPIStub(t, "A1")
	store := session.NewStore()
	c := NewHTTPClient(stub.srv.URL, store)
	defer c.Close()
	assert.Equal(t, StateAnonymous, c.State())

	sess, err := session.New("A1", "R1", session.User{ID: 1, Email: "a@b.com", Name: "Ana", Role: session.RoleViewer})
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), sess))
	assert.Equal(t, StateAuthenticated, c.State())

	require.NoError(t, store.Clear(context.Background()))
	assert.Equal(t, StateAnonymous, c.State())
}

func TestJSONHelpers_ErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/settings/":
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "super admin only"})
		case "/admin/reimbursements/9/":
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL, seededStore(t, "A1"))
	ctx := context.Background()

	err := c.GetJSON(ctx, "/admin/settings/", nil, nil)
	require.ErrorIs(t, err, common.ErrForbidden)
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "super admin only", re.Message)

	err = c.PatchJSON(ctx, "/admin/reimbursements/9/", map[string]string{"status": "APPROVED"}, nil)
	require.ErrorIs(t, err, common.ErrNotFound)

	err = c.PutJSON(ctx, "/other/", map[string]string{}, nil)
	require.ErrorIs(t, err, common.ErrNetwork)
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Empty(t, r.Header.Get(common.AuthorizationHeaderName))
		if req.Password != "x" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{
			Access: "A1", Refresh: "R1",
			User: LoginUser{ID: 1, Email: req.Email, FirstName: "Ana", LastName: "Souza", Role: "ADMIN"},
		})
	}))
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL, session.NewStore())
	ctx := context.Background()

	resp, err := c.Login(ctx, "a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "A1", resp.Access)
	assert.Equal(t, "Souza", resp.User.LastName)

	_, err = c.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.EqualError(t, err, "Invalid email or password")

	srv.Close()
	_, err = c.Login(ctx, "a@b.com", "x")
	require.ErrorIs(t, err, common.ErrNetwork)
}

func TestLogin_ServerErrorKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Login temporarily disabled"})
	}))
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL, session.NewStore())

	_, err := c.Login(context.Background(), "a@b.com", "x")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, common.ErrNetwork)

	var le *LoginError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, http.StatusServiceUnavailable, le.StatusCode)
	assert.Equal(t, "Login temporarily disabled", le.Message)
}

func TestLogout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, LogoutPath, r.URL.Path)
		if r.Header.Get(common.AuthorizationHeaderName) != common.BearerPrefix+"A1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL, seededStore(t, "A1"))
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx, "A1"))

	err := c.Logout(ctx, "A0")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.EqualValues(t, 2, calls.Load(), "a rejected logout is not retried through refresh")
}
