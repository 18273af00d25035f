package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

// CourseRepository handles persistence of courses. It is the only writer of
// the current_enrollment counter: all mutations go through ReserveSeat and
// ReleaseSeat, never through read-modify-write from callers.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, course_code, course_name, description, level, credit_hours, teacher_id,
        department, max_capacity, current_enrollment, semester, active, created_at, updated_at`

// Create persists a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, course_code, course_name, description, level, credit_hours,
        teacher_id, department, max_capacity, current_enrollment, semester, active, created_at, updated_at)
        VALUES (:id, :course_code, :course_name, :description, :level, :credit_hours,
        :teacher_id, :department, :max_capacity, :current_enrollment, :semester, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if IsUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicate, "course code already exists")
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode returns a course by its unique code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_code = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses matching the filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM courses%s ORDER BY course_code", courseColumns, clause)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Update persists mutable catalog fields of a course. The enrollment counter
// is deliberately excluded.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET course_name = :course_name, description = :description,
        level = :level, credit_hours = :credit_hours, teacher_id = :teacher_id, department = :department,
        max_capacity = :max_capacity, semester = :semester, updated_at = :updated_at
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive toggles admission eligibility for a course.
func (r *CourseRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE courses SET active = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set course active: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course record.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReserveSeat atomically claims one seat. The compare-and-increment runs as a
// single conditional UPDATE so concurrent admissions cannot push the counter
// past max_capacity. When no row qualifies the failure is classified: missing
// or inactive courses are not found, a full course is a capacity conflict.
func (r *CourseRepository) ReserveSeat(ctx context.Context, courseID string) error {
	const query = `UPDATE courses SET current_enrollment = current_enrollment + 1, updated_at = $2
        WHERE id = $1 AND active = TRUE AND current_enrollment < max_capacity`
	result, err := r.db.ExecContext(ctx, query, courseID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reserve seat: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve seat rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var probe struct {
		Active            bool `db:"active"`
		CurrentEnrollment int  `db:"current_enrollment"`
		MaxCapacity       int  `db:"max_capacity"`
	}
	err = r.db.GetContext(ctx, &probe, `SELECT active, current_enrollment, max_capacity FROM courses WHERE id = $1`, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course not found with id: %s", courseID))
		}
		return fmt.Errorf("probe course: %w", err)
	}
	if !probe.Active {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course not accepting enrollments: %s", courseID))
	}
	return appErrors.Clone(appErrors.ErrCapacityExceeded,
		fmt.Sprintf("course %s is full (%d/%d)", courseID, probe.CurrentEnrollment, probe.MaxCapacity))
}

// ReleaseSeat atomically returns one seat, floored at zero. Callers guarantee
// at most one release per enrollment via the conditional status transitions.
func (r *CourseRepository) ReleaseSeat(ctx context.Context, courseID string) error {
	const query = `UPDATE courses SET current_enrollment = GREATEST(current_enrollment - 1, 0), updated_at = $2
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, courseID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course not found with id: %s", courseID))
	}
	return nil
}
