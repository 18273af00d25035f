package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iti-edu/schoolmis-api/internal/models"
)

// DocumentRepository handles persistence of student document metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, student_id, document_type, file_name, file_url, verified, verified_by,
        verified_at, created_at, updated_at`

// Create persists a new document metadata record.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.StudentDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.Verified = false
	doc.CreatedAt = now
	doc.UpdatedAt = now
	const query = `INSERT INTO student_documents (id, student_id, document_type, file_name, file_url,
        verified, verified_by, verified_at, created_at, updated_at)
        VALUES (:id, :student_id, :document_type, :file_name, :file_url,
        :verified, :verified_by, :verified_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns a document by its ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.StudentDocument, error) {
	query := fmt.Sprintf("SELECT %s FROM student_documents WHERE id = $1", documentColumns)
	var doc models.StudentDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByStudent returns documents for a student, optionally by type.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID, documentType string) ([]models.StudentDocument, error) {
	query := fmt.Sprintf("SELECT %s FROM student_documents WHERE student_id = $1", documentColumns)
	args := []interface{}{studentID}
	if documentType != "" {
		query += " AND document_type = $2"
		args = append(args, documentType)
	}
	query += " ORDER BY created_at DESC"
	var docs []models.StudentDocument
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list student documents: %w", err)
	}
	return docs, nil
}

// Verify marks a document as verified by the given user.
func (r *DocumentRepository) Verify(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) error {
	const query = `UPDATE student_documents SET verified = TRUE, verified_by = $2, verified_at = $3,
        updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, verifiedBy, verifiedAt)
	if err != nil {
		return fmt.Errorf("verify document: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document metadata record.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM student_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
