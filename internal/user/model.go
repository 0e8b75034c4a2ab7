package user

import (
	"database/sql"
	"time"

	"github.com/biolab/datalab/internal/token"
	"github.com/lib/pq"
)

// Account is a personnel login record
type Account struct {
	ID             string         `db:"id" json:"id"`
	ExternalID     string         `db:"external_id" json:"externalId"`
	DisplayName    string         `db:"display_name" json:"displayName"`
	EmployeeID     sql.NullString `db:"employee_id" json:"-"`
	Roles          pq.StringArray `db:"roles" json:"roles"`
	Permissions    pq.StringArray `db:"permissions" json:"permissions"`
	PasswordDigest string         `db:"password_digest" json:"-"`
	Active         bool           `db:"active" json:"active"`
	LastLoggedOn   sql.NullTime   `db:"last_logged_on" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// Identity returns the session identity for the account
func (a *Account) Identity() token.Identity {
	identity := token.Identity{
		SubjectID:   a.ID,
		ExternalID:  a.ExternalID,
		DisplayName: a.DisplayName,
		Roles:       []string(a.Roles),
		Permissions: []string(a.Permissions),
	}
	if a.EmployeeID.Valid {
		identity.EmployeeID = a.EmployeeID.String
	}
	return identity
}
