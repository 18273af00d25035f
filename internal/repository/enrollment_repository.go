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

// EnrollmentRepository handles persistence of enrollments. Status transitions
// are expressed as conditional updates so terminal states can never be
// resurrected, regardless of caller interleaving. Uniqueness of the
// non-terminal (student, course) pair is backed by a partial unique index
// (see migrations), surfaced to callers via IsUniqueViolation.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, course_id, status, grade, grade_point, final_score,
        enrollment_date, completed_date, created_at, updated_at`

// Create persists a new enrollment record. A unique violation is returned
// untranslated so the service can compensate the reserved seat.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, course_id, status, grade, grade_point,
        final_score, enrollment_date, completed_date, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :status, :grade, :grade_point,
        :final_score, :enrollment_date, :completed_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsNonTerminal checks whether a live enrollment exists for the pair.
func (r *EnrollmentRepository) ExistsNonTerminal(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2
        AND status IN ($3, $4) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, studentID, courseID,
		models.EnrollmentStatusPending, models.EnrollmentStatusActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check live enrollment: %w", err)
	}
	return true, nil
}

// ListByStudent returns all enrollments for a student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_id = $1 ORDER BY enrollment_date DESC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudentAndStatus returns a student's enrollments in the given status.
func (r *EnrollmentRepository) ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_id = $1 AND status = $2 ORDER BY enrollment_date DESC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, status); err != nil {
		return nil, fmt.Errorf("list student enrollments by status: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns all enrollments for a course.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE course_id = $1 ORDER BY enrollment_date DESC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateGrade records grade fields while the enrollment is still live.
// Returns sql.ErrNoRows when no non-terminal enrollment matches; the caller
// distinguishes absent from finalized.
func (r *EnrollmentRepository) UpdateGrade(ctx context.Context, id string, grade string, gradePoint, finalScore float64) error {
	const query = `UPDATE enrollments SET grade = $2, grade_point = $3, final_score = $4, updated_at = $5
        WHERE id = $1 AND status IN ($6, $7)`
	result, err := r.db.ExecContext(ctx, query, id, grade, gradePoint, finalScore, time.Now().UTC(),
		models.EnrollmentStatusPending, models.EnrollmentStatusActive)
	if err != nil {
		return fmt.Errorf("update enrollment grade: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Complete transitions ACTIVE -> COMPLETED as a single conditional update.
func (r *EnrollmentRepository) Complete(ctx context.Context, id string, completedAt time.Time) (bool, error) {
	const query = `UPDATE enrollments SET status = $2, completed_date = $3, updated_at = $3
        WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusCompleted, completedAt,
		models.EnrollmentStatusActive)
	if err != nil {
		return false, fmt.Errorf("complete enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete enrollment rows: %w", err)
	}
	return rows > 0, nil
}

// Drop transitions a live enrollment to DROPPED as a single conditional
// update. The returned flag tells the caller whether the transition happened
// here, making the subsequent seat release exactly-once.
func (r *EnrollmentRepository) Drop(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3
        WHERE id = $1 AND status IN ($4, $5)`
	result, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusDropped, time.Now().UTC(),
		models.EnrollmentStatusActive, models.EnrollmentStatusPending)
	if err != nil {
		return false, fmt.Errorf("drop enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("drop enrollment rows: %w", err)
	}
	return rows > 0, nil
}

// Delete removes an enrollment record.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
