package models

import "time"

// Teacher represents a teacher profile linked to a user account.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	EmployeeNumber string    `db:"employee_number" json:"employee_number"`
	Department     string    `db:"department" json:"department"`
	Specialization string    `db:"specialization" json:"specialization"`
	Qualification  string    `db:"qualification" json:"qualification"`
	HireDate       time.Time `db:"hire_date" json:"hire_date"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
