package model

import "time"

// Role determines which operations an authenticated user may invoke.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether the role is one of the known set.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User describes a registered account.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
