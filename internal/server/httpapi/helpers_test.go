package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/logging"
	"github.com/dmitrijs2005/planadmin/internal/server/config"
	"github.com/dmitrijs2005/planadmin/internal/server/records"
	"github.com/dmitrijs2005/planadmin/internal/server/refreshtokens"
	"github.com/dmitrijs2005/planadmin/internal/server/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "pw"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	srv   *httptest.Server
	clock *testClock
	cfg   *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.AccessTokenValidityDuration = time.Minute
	cfg.RefreshTokenValidityDuration = time.Hour
	cfg.UploadDir = t.TempDir()

	clk := &testClock{t: time.Now().Truncate(time.Second)}

	us := users.NewService(users.NewMemoryRepository(), refreshtokens.NewMemoryRepository(), cfg,
		users.WithClock(clk.Now), users.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, us.Seed(context.Background(), seedPassword))

	repo := records.NewMemoryRepository()
	repo.Seed(clk.Now())
	rs := records.NewService(repo, cfg, records.WithPageSize(2))

	s := NewServer(cfg.EndpointAddr, logging.Nop(), us, rs)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, clock: clk, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (e *testEnv) login(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	resp, out := e.do(t, http.MethodPost, "/admin/auth/login/", "", map[string]string{"email": email, "password": seedPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	return out["access"].(string), out["refresh"].(string)
}
