package records

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/filex"
	"github.com/dmitrijs2005/planadmin/internal/server/config"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxUploadBytes  = 20 << 20
)

// allowedUploadExt lists the file types accepted by SaveUpload.
var allowedUploadExt = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".csv": true, ".txt": true,
}

type Page struct {
	Count   int
	Page    int
	HasNext bool
	HasPrev bool
	Results []any
}

type Service struct {
	repo      Repository
	uploadDir string
	pageSize  int
	now       func() time.Time
}

type Option func(*Service)

func WithPageSize(n int) Option {
	return func(s *Service) { s.pageSize = n }
}

func NewService(repo Repository, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		uploadDir: cfg.UploadDir,
		pageSize:  DefaultPageSize,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, kind Kind, page int) (*Page, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrNotFound, kind)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be positive", common.ErrInvalidInput)
	}

	rows, total, err := s.repo.List(ctx, kind, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Count:   total,
		Page:    page,
		HasNext: page*s.pageSize < total,
		HasPrev: page > 1,
		Results: rows,
	}, nil
}

func (s *Service) SetReimbursementStatus(ctx context.Context, id int64, status Status) (*Reimbursement, error) {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, status)
	}
	return s.repo.UpdateReimbursementStatus(ctx, id, status)
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) ReplaceSettings(ctx context.Context, in Settings) (Settings, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: settings document is empty", common.ErrInvalidInput)
	}
	return s.repo.ReplaceSettings(ctx, in)
}

// SaveUpload stores the file read from src. With an upload directory
// configured the content goes to disk under the upload id; otherwise only the
// metadata is kept.
func (s *Service) SaveUpload(ctx context.Context, userID int64, name, kind, contentType string, src io.Reader) (*Upload, error) {
	name = filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadExt[ext] {
		return nil, fmt.Errorf("%w: unsupported file type", common.ErrInvalidInput)
	}
	if kind == "" {
		kind = "document"
	}

	u := &Upload{
		ID:          uuid.NewString(),
		Name:        name,
		Kind:        kind,
		ContentType: contentType,
		UploadedBy:  userID,
		CreatedAt:   s.now(),
	}

	var err error
	if s.uploadDir == "" {
		u.Size, err = filex.CopyLimited(io.Discard, src, MaxUploadBytes)
	} else {
		u.Size, err = s.writeUpload(u.ID+ext, src)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateUpload(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) writeUpload(fileName string, src io.Reader) (int64, error) {
	path := filepath.Join(s.uploadDir, fileName)
	if _, err := filex.EnsureParentDir(path); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	n, err := filex.CopyLimited(&buf, src, MaxUploadBytes)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return 0, fmt.Errorf("write upload: %w", err)
	}
	return n, nil
}
