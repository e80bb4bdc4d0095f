package models

import "time"

// UserRole is the marketplace role of a user account.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTutor   UserRole = "TUTOR"
	RoleBoth    UserRole = "BOTH"
	RoleAdmin   UserRole = "ADMIN"
)

// DefaultRole is the non-privileged role assigned when an account is anonymized.
const DefaultRole = RoleStudent

// User represents a marketplace account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LoginMethod  string     `db:"login_method" json:"login_method"`
	LastSignedIn *time.Time `db:"last_signed_in" json:"last_signed_in,omitempty"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDeleted reports whether the account has been soft deleted.
func (u *User) IsDeleted() bool {
	return u != nil && u.DeletedAt != nil
}

// AnonymizedIdentity holds the placeholder fields written over a soft-deleted account.
type AnonymizedIdentity struct {
	FullName string
	Email    string
	Role     UserRole
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
