package records

import "time"

// Seed fills r with a small fixed data set.
func (r *MemoryRepository) Seed(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.beneficiaries = []Beneficiary{
		{ID: 1, Name: "Maria Silva", Email: "maria@example.com", Plan: "GOLD", Active: true},
		{ID: 2, Name: "Joao Pereira", Email: "joao@example.com", Plan: "SILVER", Active: true},
		{ID: 3, Name: "Ana Costa", Email: "ana@example.com", Plan: "GOLD", Active: false},
		{ID: 4, Name: "Pedro Lima", Email: "pedro@example.com", Plan: "BRONZE", Active: true},
		{ID: 5, Name: "Julia Alves", Email: "julia@example.com", Plan: "SILVER", Active: true},
	}
	r.providers = []Provider{
		{ID: 1, Name: "Clinica Central", Specialty: "General practice", City: "Sao Paulo"},
		{ID: 2, Name: "Lab Vida", Specialty: "Laboratory", City: "Campinas"},
		{ID: 3, Name: "Odonto Sorriso", Specialty: "Dentistry", City: "Santos"},
	}
	r.reimbursements = []Reimbursement{
		{ID: 1, BeneficiaryID: 1, ProviderID: 1, Amount: "250.00", Status: StatusPending, CreatedAt: now.Add(-72 * time.Hour)},
		{ID: 2, BeneficiaryID: 2, ProviderID: 2, Amount: "89.90", Status: StatusApproved, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: 3, BeneficiaryID: 4, ProviderID: 3, Amount: "420.00", Status: StatusPending, CreatedAt: now.Add(-24 * time.Hour)},
	}
	r.settings = Settings{
		"plan_name":             "Plano Saude",
		"max_reimbursement":     "5000.00",
		"auto_approve_below":    "100.00",
		"allow_provider_signup": false,
	}
}
