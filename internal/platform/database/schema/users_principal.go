// Package schema defines column maps for every SafraReport table.
//
// Repositories build their SQL from these maps so that a renamed column is a
// one-line change and typos surface as compile errors, not runtime failures.
package schema

// UsersPrincipalTable represents the 'users.principal' table
type UsersPrincipalTable struct {
	Table          string
	ID             string
	Email          string
	PasswordHash   string
	DisplayName    string
	Role           string
	IsActive       string
	FailedAttempts string
	LockedUntil    string
	LastLoginAt    string
	CreatedAt      string
	UpdatedAt      string
	DeletedAt      string
}

// UsersPrincipal is the schema definition for users.principal
var UsersPrincipal = UsersPrincipalTable{
	Table:          "users.principal",
	ID:             "id",
	Email:          "email",
	PasswordHash:   "passwordhash",
	DisplayName:    "displayname",
	Role:           "role",
	IsActive:       "isactive",
	FailedAttempts: "failedattempts",
	LockedUntil:    "lockeduntil",
	LastLoginAt:    "lastloginat",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
	DeletedAt:      "deletedat",
}

// Columns returns the column names repositories select and scan, in order.
// DeletedAt is a filter column only and is deliberately excluded.
func (t UsersPrincipalTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.PasswordHash, t.DisplayName, t.Role, t.IsActive,
		t.FailedAttempts, t.LockedUntil, t.LastLoginAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
