// Package refreshtokens tracks issued refresh tokens by jti so each one can
// be exchanged exactly once.
package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/common"
)

type Repository interface {
	Create(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error
	// Consume removes tokenID and returns its owner. Unknown, already used
	// and expired ids all yield common.ErrNotFound.
	Consume(ctx context.Context, tokenID string, now time.Time) (int64, error)
	// DeleteByUser revokes every outstanding token of userID.
	DeleteByUser(ctx context.Context, userID int64) error
}

type RefreshToken struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[tokenID]; ok {
		return common.ErrAlreadyExists
	}
	r.tokens[tokenID] = RefreshToken{ID: tokenID, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (r *MemoryRepository) Consume(ctx context.Context, tokenID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// expired entries are dropped on the way
	for id, t := range r.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.tokens, id)
		}
	}

	t, ok := r.tokens[tokenID]
	if !ok {
		return 0, common.ErrNotFound
	}
	delete(r.tokens, tokenID)
	return t.UserID, nil
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

// Len reports the number of outstanding tokens.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
