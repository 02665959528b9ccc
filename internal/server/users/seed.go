package users

import (
	"context"
	"fmt"
)

// SeedAccounts is one staff account per role. All share the configured
// seed password.
var SeedAccounts = []User{
	{
		Email: "super@planadmin.local", FirstName: "Sofia", LastName: "Prado", Role: RoleSuperAdmin,
		Permissions: []string{"settings.edit", "reimbursements.edit", "uploads.create", "records.view"},
	},
	{
		Email: "admin@planadmin.local", FirstName: "Caio", LastName: "Mendes", Role: RoleAdmin,
		Permissions: []string{"reimbursements.edit", "uploads.create", "records.view"},
	},
	{
		Email: "viewer@planadmin.local", FirstName: "Lia", LastName: "Rocha", Role: RoleViewer,
		Permissions: []string{"records.view"},
	},
}

func (s *Service) Seed(ctx context.Context, password string) error {
	for i := range SeedAccounts {
		if _, err := s.Register(ctx, &SeedAccounts[i], password); err != nil {
			return fmt.Errorf("seed %s: %w", SeedAccounts[i].Email, err)
		}
	}
	return nil
}
