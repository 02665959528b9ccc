package users

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/planadmin/internal/common"
)

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// MemoryRepository keeps users in a map keyed by lower-cased email.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*User
	byMail map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[int64]*User),
		byMail: make(map[string]*User),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	key := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byMail[key]; ok {
		return nil, common.ErrAlreadyExists
	}

	r.nextID++
	u := *user
	u.ID = r.nextID
	r.byID[u.ID] = &u
	r.byMail[key] = &u

	out := u
	return &out, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byMail[strings.ToLower(login)]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}
