package records

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrijs2005/planadmin/internal/common"
)

type Repository interface {
	// List returns rows of kind ordered by id, skipping offset and
	// returning at most limit, plus the total count.
	List(ctx context.Context, kind Kind, offset, limit int) ([]any, int, error)
	UpdateReimbursementStatus(ctx context.Context, id int64, status Status) (*Reimbursement, error)
	GetSettings(ctx context.Context) (Settings, error)
	ReplaceSettings(ctx context.Context, s Settings) (Settings, error)
	CreateUpload(ctx context.Context, u *Upload) error
}

type MemoryRepository struct {
	mu             sync.RWMutex
	beneficiaries  []Beneficiary
	providers      []Provider
	reimbursements []Reimbursement
	settings       Settings
	uploads        map[string]Upload
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		settings: Settings{},
		uploads:  make(map[string]Upload),
	}
}

func (r *MemoryRepository) List(ctx context.Context, kind Kind, offset, limit int) ([]any, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []any
	switch kind {
	case KindBeneficiaries:
		rows = toAny(r.beneficiaries)
	case KindProviders:
		rows = toAny(r.providers)
	case KindReimbursements:
		rows = toAny(r.reimbursements)
	default:
		return nil, 0, common.ErrNotFound
	}

	total := len(rows)
	if offset >= total {
		return []any{}, total, nil
	}
	end := min(offset+limit, total)
	return rows[offset:end], total, nil
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func (r *MemoryRepository) UpdateReimbursementStatus(ctx context.Context, id int64, status Status) (*Reimbursement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.reimbursements {
		if r.reimbursements[i].ID == id {
			r.reimbursements[i].Status = status
			out := r.reimbursements[i]
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) GetSettings(ctx context.Context) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.settings), nil
}

func (r *MemoryRepository) ReplaceSettings(ctx context.Context, s Settings) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = maps.Clone(s)
	return maps.Clone(r.settings), nil
}

func (r *MemoryRepository) CreateUpload(ctx context.Context, u *Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.uploads[u.ID]; ok {
		return common.ErrAlreadyExists
	}
	r.uploads[u.ID] = *u
	return nil
}

// Uploads returns the stored upload metadata, in no particular order.
func (r *MemoryRepository) Uploads() []Upload {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Upload, 0, len(r.uploads))
	for _, u := range r.uploads {
		out = append(out, u)
	}
	return out
}
