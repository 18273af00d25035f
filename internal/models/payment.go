package models

import "time"

// PaymentStatus mirrors the values the payments surface stores verbatim.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment represents a student payment record. Field-level CRUD only: the
// system stores what it is given.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Amount      float64       `db:"amount" json:"amount"`
	PaymentType string        `db:"payment_type" json:"payment_type"`
	Status      PaymentStatus `db:"status" json:"status"`
	Reference   string        `db:"reference" json:"reference"`
	Description string        `db:"description" json:"description"`
	PaidAt      *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}
