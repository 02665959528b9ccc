package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dmitrijs2005/planadmin/internal/client/client"
	"github.com/dmitrijs2005/planadmin/internal/client/session"
	"github.com/dmitrijs2005/planadmin/internal/filex"
	"github.com/dmitrijs2005/planadmin/internal/netx"
)

const (
	UploadPath     = "/uploads/"
	MaxUploadBytes = 20 << 20
)

type UploadResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

type UploadService interface {
	Upload(ctx context.Context, path, kind string) (*UploadResult, error)
}

// Requester is the subset of *client.HTTPClient used by UploadService.
type Requester interface {
	Do(ctx context.Context, req *client.Request) (*client.Response, error)
}

type uploadService struct {
	api  Requester
	gate RoleGate
}

func NewUploadService(api Requester, gate RoleGate) UploadService {
	return &uploadService{api: api, gate: gate}
}

// Upload sends the file at path as multipart form data. The body is buffered
// in memory so the request wrapper can replay it after a token refresh.
func (s *uploadService) Upload(ctx context.Context, path, kind string) (*UploadResult, error) {
	if err := s.gate.Require(session.RoleAdmin); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = "document"
	}

	content, err := filex.ReadLimited(path, MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	body, contentType, err := netx.MultipartBody(
		map[string]string{"kind": kind},
		netx.MultipartFile{
			Field:       "file",
			FileName:    path,
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Content:     content,
		},
	)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Do(ctx, &client.Request{
		Method:      http.MethodPost,
		Path:        UploadPath,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}

	var out UploadResult
	if err := client.DecodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	return &out, nil
}
