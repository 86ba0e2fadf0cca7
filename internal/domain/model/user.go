package model

import "time"

// Role grants access to privileged operations.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a registered storefront customer or operator.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether user may perform privileged operations.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
