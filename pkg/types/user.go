package types

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleVisitor Role = "VISITOR"
)

// ConsoleRoles is the set of roles allowed to authenticate into the admin
// console. Adding a role is a data change here, not a rewrite of auth checks.
var ConsoleRoles = map[Role]struct{}{
	RoleAdmin: {},
}

func (r Role) ConsoleAccess() bool {
	_, ok := ConsoleRoles[r]
	return ok
}

type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Identity is the verified slice of a User carried inside a session token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   Role
}

// CredentialIdentifier derives the lookup key for a user's stored password
// hash.
func CredentialIdentifier(userID string) string {
	return "pwd:" + userID
}

type Credential struct {
	Identifier string    `db:"identifier"`
	Hash       string    `db:"hash"`
	ExpiresAt  time.Time `db:"expires_at"`
}
