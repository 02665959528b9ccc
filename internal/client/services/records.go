package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/planadmin/internal/client/session"
)

type RecordKind string

const (
	KindBeneficiaries  RecordKind = "beneficiaries"
	KindProviders      RecordKind = "providers"
	KindReimbursements RecordKind = "reimbursements"
)

func ParseRecordKind(s string) (RecordKind, error) {
	switch k := RecordKind(s); k {
	case KindBeneficiaries, KindProviders, KindReimbursements:
		return k, nil
	}
	return "", fmt.Errorf("unknown record kind %q (want beneficiaries, providers or reimbursements)", s)
}

type ReimbursementStatus string

const (
	StatusPending  ReimbursementStatus = "PENDING"
	StatusApproved ReimbursementStatus = "APPROVED"
	StatusRejected ReimbursementStatus = "REJECTED"
)

// Record is one row of a listing. Fields vary by kind, so it stays generic.
type Record map[string]any

// Page is the paginated list envelope returned by the API.
type Page struct {
	Count    int      `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Record `json:"results"`
}

type Reimbursement struct {
	ID            int64               `json:"id"`
	BeneficiaryID int64               `json:"beneficiary_id"`
	ProviderID    int64               `json:"provider_id"`
	Amount        string              `json:"amount"`
	Status        ReimbursementStatus `json:"status"`
}

// Settings is the free-form plan configuration document.
type Settings map[string]any

// RecordsService reads and edits admin records. Each call checks the role
// gate first, so a request the server would refuse is never sent.
type RecordsService interface {
	List(ctx context.Context, kind RecordKind, page int) (*Page, error)
	SetReimbursementStatus(ctx context.Context, id int64, status ReimbursementStatus) (*Reimbursement, error)
	Settings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, s Settings) (Settings, error)
}

// JSONAPI is the subset of *client.HTTPClient used by RecordsService.
type JSONAPI interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PatchJSON(ctx context.Context, path string, in, out any) error
	PutJSON(ctx context.Context, path string, in, out any) error
}

// RoleGate is satisfied by *access.Gate.
type RoleGate interface {
	Require(required session.Role) error
}

type recordsService struct {
	api  JSONAPI
	gate RoleGate
}

func NewRecordsService(api JSONAPI, gate RoleGate) RecordsService {
	return &recordsService{api: api, gate: gate}
}

func (s *recordsService) List(ctx context.Context, kind RecordKind, page int) (*Page, error) {
	if err := s.gate.Require(session.RoleViewer); err != nil {
		return nil, err
	}
	if _, err := ParseRecordKind(string(kind)); err != nil {
		return nil, err
	}

	var q url.Values
	if page > 1 {
		q = url.Values{"page": {strconv.Itoa(page)}}
	}

	var out Page
	if err := s.api.GetJSON(ctx, "/admin/"+string(kind)+"/", q, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return &out, nil
}

func (s *recordsService) SetReimbursementStatus(ctx context.Context, id int64, status ReimbursementStatus) (*Reimbursement, error) {
	if err := s.gate.Require(session.RoleAdmin); err != nil {
		return nil, err
	}
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, fmt.Errorf("unknown reimbursement status %q", status)
	}

	var out Reimbursement
	path := fmt.Sprintf("/admin/reimbursements/%d/", id)
	if err := s.api.PatchJSON(ctx, path, map[string]ReimbursementStatus{"status": status}, &out); err != nil {
		return nil, fmt.Errorf("update reimbursement %d: %w", id, err)
	}
	return &out, nil
}

func (s *recordsService) Settings(ctx context.Context) (Settings, error) {
	if err := s.gate.Require(session.RoleSuperAdmin); err != nil {
		return nil, err
	}
	var out Settings
	if err := s.api.GetJSON(ctx, "/admin/settings/", nil, &out); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return out, nil
}

func (s *recordsService) UpdateSettings(ctx context.Context, in Settings) (Settings, error) {
	if err := s.gate.Require(session.RoleSuperAdmin); err != nil {
		return nil, err
	}
	var out Settings
	if err := s.api.PutJSON(ctx, "/admin/settings/", in, &out); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return out, nil
}
