package models

import "time"

// Student represents a student profile linked to a user account.
type Student struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	StudentNumber  string     `db:"student_number" json:"student_number"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender         string     `db:"gender" json:"gender"`
	ParentName     string     `db:"parent_name" json:"parent_name"`
	ParentPhone    string     `db:"parent_phone" json:"parent_phone"`
	ParentEmail    string     `db:"parent_email" json:"parent_email"`
	GuardianName   string     `db:"guardian_name" json:"guardian_name"`
	GuardianPhone  string     `db:"guardian_phone" json:"guardian_phone"`
	EnrollmentDate time.Time  `db:"enrollment_date" json:"enrollment_date"`
	CurrentLevel   string     `db:"current_level" json:"current_level"`
	GPA            float64    `db:"gpa" json:"gpa"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
