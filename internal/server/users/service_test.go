package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/server/auth"
	"github.com/dmitrijs2005/planadmin/internal/server/config"
	"github.com/dmitrijs2005/planadmin/internal/server/refreshtokens"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T, rt refreshtokens.Repository, c *clock) *Service {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
	s := NewService(NewMemoryRepository(), rt, cfg, WithClock(c.now), WithBcryptCost(bcrypt.MinCost))
	if err := s.Seed(context.Background(), "pw"); err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	return s
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type failingRefreshRepo struct{ refreshtokens.Repository }

func (failingRefreshRepo) Create(context.Context, int64, string, time.Time) error { return errBoom{} }

// --- tests ---

func TestLogin_Success(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rt := refreshtokens.NewMemoryRepository()
	s := newTestService(t, rt, c)

	user, pair, err := s.Login(context.Background(), "Admin@Planadmin.local", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.Role != RoleAdmin || user.FirstName != "Caio" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims, err := s.Authenticate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != RoleAdmin {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if rt.Len() != 1 {
		t.Fatalf("want 1 outstanding refresh token, got %d", rt.Len())
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestService(t, refreshtokens.NewMemoryRepository(), c)

	for _, tc := range []struct{ email, password string }{
		{"admin@planadmin.local", "wrong"},
		{"nobody@planadmin.local", "pw"},
	} {
		_, _, err := s.Login(context.Background(), tc.email, tc.password)
		if !errors.Is(err, common.ErrInvalidCredentials) {
			t.Fatalf("%s: want ErrInvalidCredentials, got %v", tc.email, err)
		}
	}
}

func TestRefreshToken_RotatesAndRejectsReuse(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rt := refreshtokens.NewMemoryRepository()
	s := newTestService(t, rt, c)
	ctx := context.Background()

	_, first, err := s.Login(ctx, "viewer@planadmin.local", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	c.t = c.t.Add(2 * time.Minute)
	if _, err := s.Authenticate(first.AccessToken); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want expired access token, got %v", err)
	}

	second, err := s.RefreshToken(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if second.RefreshToken == first.RefreshToken || second.AccessToken == first.AccessToken {
		t.Fatal("refresh must rotate both tokens")
	}
	if _, err := s.Authenticate(second.AccessToken); err != nil {
		t.Fatalf("new access token rejected: %v", err)
	}

	if _, err := s.RefreshToken(ctx, first.RefreshToken); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("reused refresh token: want ErrInvalidToken, got %v", err)
	}
	if rt.Len() != 1 {
		t.Fatalf("want 1 outstanding refresh token, got %d", rt.Len())
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newTestService(t, refreshtokens.NewMemoryRepository(), c)

	_, pair, err := s.Login(context.Background(), "viewer@planadmin.local", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, err := s.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestService(t, refreshtokens.NewMemoryRepository(), c)

	_, pair, _ := s.Login(context.Background(), "viewer@planadmin.local", "pw")
	if _, err := s.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestRefreshToken_UnknownJTI(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestService(t, refreshtokens.NewMemoryRepository(), c)

	forged, _, err := auth.GenerateToken(1, RoleSuperAdmin, auth.KindRefresh, []byte("k"), c.t, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if _, err := s.RefreshToken(context.Background(), forged); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	c := &clock{t: time.Now()}
	rt := refreshtokens.NewMemoryRepository()
	s := newTestService(t, rt, c)
	ctx := context.Background()

	user, pair, _ := s.Login(ctx, "admin@planadmin.local", "pw")
	if err := s.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if _, err := s.RefreshToken(ctx, pair.RefreshToken); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken after logout, got %v", err)
	}
}

func TestLogin_RefreshStoreError(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestService(t, failingRefreshRepo{}, c)

	_, _, err := s.Login(context.Background(), "admin@planadmin.local", "pw")
	if !errors.As(err, &errBoom{}) {
		t.Fatalf("want store error, got %v", err)
	}
}

func TestRegister_Errors(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTestService(t, refreshtokens.NewMemoryRepository(), c)

	if _, err := s.Register(context.Background(), &User{Email: "x@y.z", Role: "OWNER"}, "pw"); err == nil {
		t.Fatal("unknown role must be rejected")
	}
	_, err := s.Register(context.Background(), &User{Email: "ADMIN@planadmin.local", Role: RoleAdmin}, "pw")
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}
