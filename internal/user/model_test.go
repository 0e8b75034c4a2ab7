package user

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/lib/pq"
)

func TestAccount_Identity(t *testing.T) {
	account := &Account{
		ID:          "recUSR001",
		ExternalID:  "1032456789",
		DisplayName: "Laura Gómez",
		EmployeeID:  sql.NullString{String: "recEMP001", Valid: true},
		Roles:       pq.StringArray{"lab"},
		Permissions: pq.StringArray{"inventory:read", "orders:write"},
	}

	identity := account.Identity()

	if identity.SubjectID != "recUSR001" {
		t.Errorf("SubjectID = %q, want %q", identity.SubjectID, "recUSR001")
	}
	if identity.EmployeeID != "recEMP001" {
		t.Errorf("EmployeeID = %q, want %q", identity.EmployeeID, "recEMP001")
	}
	if !reflect.DeepEqual(identity.Permissions, []string{"inventory:read", "orders:write"}) {
		t.Errorf("Permissions = %v", identity.Permissions)
	}
}

func TestAccount_IdentityWithoutEmployee(t *testing.T) {
	account := &Account{ID: "recUSR002", ExternalID: "99"}

	if got := account.Identity().EmployeeID; got != "" {
		t.Errorf("EmployeeID = %q, want empty", got)
	}
}
