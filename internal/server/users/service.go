package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/server/auth"
	"github.com/dmitrijs2005/planadmin/internal/server/config"
	"github.com/dmitrijs2005/planadmin/internal/server/refreshtokens"
	"golang.org/x/crypto/bcrypt"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo                         Repository
	refreshTokenRepo             refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
	bcryptCost                   int

	// hashed once, compared against when the login is unknown
	dummyHash []byte
}

type Option func(*Service)

// WithBcryptCost sets the hashing cost for new passwords. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithClock replaces time.Now for token minting and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
		bcryptCost:                   bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), s.bcryptCost)
	return s
}

// Register stores a new staff account with a bcrypt hash of password.
func (s *Service) Register(ctx context.Context, user *User, password string) (*User, error) {
	if RoleRank(user.Role) == 0 {
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u := *user
	u.PasswordHash = hash
	u.CreatedAt = s.now()

	created, err := s.repo.Create(ctx, &u)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// Login checks the password and issues a fresh token pair.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	user, err := s.repo.GetUserByLogin(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, nil, common.ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented token
// is consumed, so a replay fails with common.ErrInvalidToken.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseToken(refreshToken, auth.KindRefresh, s.jwtSecret, s.now())
	if err != nil {
		return nil, err
	}

	userID, err := s.refreshTokenRepo.Consume(ctx, claims.ID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if userID != claims.UserID {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	return s.generateTokenPair(ctx, user)
}

// Authenticate verifies an access token.
func (s *Service) Authenticate(accessToken string) (*auth.Claims, error) {
	return auth.ParseToken(accessToken, auth.KindAccess, s.jwtSecret, s.now())
}

// Logout revokes every refresh token of userID.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.refreshTokenRepo.DeleteByUser(ctx, userID)
}

func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	now := s.now()

	accessToken, _, err := auth.GenerateToken(user.ID, user.Role, auth.KindAccess, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refreshToken, claims, err := auth.GenerateToken(user.ID, user.Role, auth.KindRefresh, s.jwtSecret, now, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.Create(ctx, user.ID, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
