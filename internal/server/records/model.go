// Package records holds the plan data served by the development API:
// beneficiaries, providers, reimbursements, plan settings and uploads.
package records

import "time"

type Kind string

const (
	KindBeneficiaries  Kind = "beneficiaries"
	KindProviders      Kind = "providers"
	KindReimbursements Kind = "reimbursements"
)

func (k Kind) Valid() bool {
	switch k {
	case KindBeneficiaries, KindProviders, KindReimbursements:
		return true
	}
	return false
}

type Beneficiary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Plan   string `json:"plan"`
	Active bool   `json:"active"`
}

type Provider struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	City      string `json:"city"`
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type Reimbursement struct {
	ID            int64     `json:"id"`
	BeneficiaryID int64     `json:"beneficiary_id"`
	ProviderID    int64     `json:"provider_id"`
	Amount        string    `json:"amount"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type Settings map[string]any

type Upload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Size        int64     `json:"size"`
	ContentType string    `json:"-"`
	UploadedBy  int64     `json:"-"`
	CreatedAt   time.Time `json:"-"`
}
