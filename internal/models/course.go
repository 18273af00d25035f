package models

import "time"

// Course represents a catalog entry with admission-control counters.
// CurrentEnrollment is mutated exclusively through the course repository's
// ReserveSeat/ReleaseSeat operations.
type Course struct {
	ID                string    `db:"id" json:"id"`
	CourseCode        string    `db:"course_code" json:"course_code"`
	CourseName        string    `db:"course_name" json:"course_name"`
	Description       string    `db:"description" json:"description"`
	Level             string    `db:"level" json:"level"`
	CreditHours       int       `db:"credit_hours" json:"credit_hours"`
	TeacherID         string    `db:"teacher_id" json:"teacher_id"`
	Department        string    `db:"department" json:"department"`
	MaxCapacity       int       `db:"max_capacity" json:"max_capacity"`
	CurrentEnrollment int       `db:"current_enrollment" json:"current_enrollment"`
	Semester          string    `db:"semester" json:"semester"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter scopes catalog listing queries.
type CourseFilter struct {
	TeacherID  string
	Department string
	Level      string
	Semester   string
	Active     *bool
}
