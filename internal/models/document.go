package models

import "time"

// StudentDocument is a document metadata record. Blob storage is handled by
// an external service; only the pointer and verification state live here.
type StudentDocument struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	DocumentType string     `db:"document_type" json:"document_type"`
	FileName     string     `db:"file_name" json:"file_name"`
	FileURL      string     `db:"file_url" json:"file_url"`
	Verified     bool       `db:"verified" json:"verified"`
	VerifiedBy   *string    `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt   *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
