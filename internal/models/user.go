package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// UserRole represents a role grantable to an account. An account may hold
// several roles at once.
type UserRole string

const (
	RoleStudent           UserRole = "STUDENT"
	RoleTeacher           UserRole = "TEACHER"
	RoleEnrollmentOfficer UserRole = "ENROLLMENT_OFFICER"
	RoleAdmin             UserRole = "ADMIN"
)

// ParseRole normalises and validates a raw role value. Unknown values are
// rejected at the boundary rather than coerced.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleStudent, RoleTeacher, RoleEnrollmentOfficer, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// User represents an account stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FirstName    string         `db:"first_name" json:"first_name"`
	LastName     string         `db:"last_name" json:"last_name"`
	PhoneNumber  string         `db:"phone_number" json:"phone_number"`
	Address      string         `db:"address" json:"address"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	Enabled      bool           `db:"enabled" json:"enabled"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the account holds the given role.
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if UserRole(r) == role {
			return true
		}
	}
	return false
}

// Profile is the public projection of a user, never carrying the hash.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	Roles       []string  `json:"roles"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublicProfile maps a user to its public projection.
func (u *User) PublicProfile() Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		Roles:       append([]string(nil), u.Roles...),
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
	}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Enabled   *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
