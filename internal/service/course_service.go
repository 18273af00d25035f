package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type courseEnrollmentCounter interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
}

// CreateCourseRequest describes a new catalog entry.
type CreateCourseRequest struct {
	CourseCode  string `json:"course_code" validate:"required,min=2,max=32"`
	CourseName  string `json:"course_name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Level       string `json:"level" validate:"max=50"`
	CreditHours int    `json:"credit_hours" validate:"gte=0,lte=30"`
	TeacherID   string `json:"teacher_id" validate:"required"`
	Department  string `json:"department" validate:"max=100"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0"`
	Semester    string `json:"semester" validate:"max=50"`
}

// UpdateCourseRequest carries mutable course fields. Capacity may only grow.
type UpdateCourseRequest struct {
	CourseName  *string `json:"course_name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Level       *string `json:"level,omitempty" validate:"omitempty,max=50"`
	CreditHours *int    `json:"credit_hours,omitempty" validate:"omitempty,gte=0,lte=30"`
	TeacherID   *string `json:"teacher_id,omitempty"`
	Department  *string `json:"department,omitempty" validate:"omitempty,max=100"`
	MaxCapacity *int    `json:"max_capacity,omitempty" validate:"omitempty,gt=0"`
	Semester    *string `json:"semester,omitempty" validate:"omitempty,max=50"`
}

// CourseService manages the catalog. Seat counters live on the course row but
// are only mutated through the enrollment workflow.
type CourseService struct {
	repo        courseRepository
	enrollments courseEnrollmentCounter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, enrollments courseEnrollmentCounter, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// Create adds a course to the catalog. New courses start active with an empty roster.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		CourseCode:        req.CourseCode,
		CourseName:        req.CourseName,
		Description:       req.Description,
		Level:             req.Level,
		CreditHours:       req.CreditHours,
		TeacherID:         req.TeacherID,
		Department:        req.Department,
		MaxCapacity:       req.MaxCapacity,
		CurrentEnrollment: 0,
		Semester:          req.Semester,
		Active:            true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found with id: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// GetByCode returns a course by its catalog code.
func (s *CourseService) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found with code: "+code)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns catalog entries matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// AvailableSeats reports remaining capacity for a course.
func (s *CourseService) AvailableSeats(ctx context.Context, id string) (int, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	remaining := course.MaxCapacity - course.CurrentEnrollment
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Update mutates catalog fields. Shrinking capacity below the current roster
// size is rejected to keep the admission invariant intact.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CourseName != nil {
		course.CourseName = *req.CourseName
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.CreditHours != nil {
		course.CreditHours = *req.CreditHours
	}
	if req.TeacherID != nil {
		course.TeacherID = *req.TeacherID
	}
	if req.Department != nil {
		course.Department = *req.Department
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity < course.CurrentEnrollment {
			return nil, appErrors.Clone(appErrors.ErrConflict, "max capacity cannot be lower than the current enrollment count")
		}
		course.MaxCapacity = *req.MaxCapacity
	}
	if req.Semester != nil {
		course.Semester = *req.Semester
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// SetActive opens or closes a course for new admissions. Existing enrollments
// are unaffected.
func (s *CourseService) SetActive(ctx context.Context, id string, active bool) (*models.Course, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course state")
	}
	return s.Get(ctx, id)
}

// Delete removes a course. A course with a non-empty roster cannot be deleted.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if course.CurrentEnrollment > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "course has active enrollments and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// Roster lists the enrollments attached to a course.
func (s *CourseService) Roster(ctx context.Context, id string) ([]models.Enrollment, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course roster")
	}
	return enrollments, nil
}
