package schema

// UsersSessionTable represents the 'users.session' table
type UsersSessionTable struct {
	Table       string
	ID          string
	PrincipalID string
	TokenHash   string
	Pool        string
	IPAddress   string
	UserAgent   string
	ExpiresAt   string
	RevokedAt   string
	CreatedAt   string
}

// UsersSession is the schema definition for users.session
var UsersSession = UsersSessionTable{
	Table:       "users.session",
	ID:          "id",
	PrincipalID: "principalid",
	TokenHash:   "tokenhash",
	Pool:        "pool",
	IPAddress:   "ipaddress",
	UserAgent:   "useragent",
	ExpiresAt:   "expiresat",
	RevokedAt:   "revokedat",
	CreatedAt:   "createdat",
}

// Columns returns all standard column names
func (t UsersSessionTable) Columns() []string {
	return []string{
		t.ID, t.PrincipalID, t.TokenHash, t.Pool, t.IPAddress, t.UserAgent, t.ExpiresAt, t.RevokedAt, t.CreatedAt,
	}
}
