package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iti-edu/schoolmis-api/internal/models"
	"github.com/iti-edu/schoolmis-api/internal/repository"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsNonTerminal(ctx context.Context, studentID, courseID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	UpdateGrade(ctx context.Context, id string, grade string, gradePoint, finalScore float64) error
	Complete(ctx context.Context, id string, completedAt time.Time) (bool, error)
	Drop(ctx context.Context, id string) (bool, error)
}

// courseRegistry is the only surface through which the engine touches the
// capacity counter.
type courseRegistry interface {
	ReserveSeat(ctx context.Context, courseID string) error
	ReleaseSeat(ctx context.Context, courseID string) error
}

type attendanceReader interface {
	Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error)
}

type percentageCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// enrollmentMetrics receives instrumentation events from the state machine.
type enrollmentMetrics interface {
	RecordEnrollmentTransition(transition string, success bool)
	ObserveDBQuery(label string, duration time.Duration)
}

// EnrollStudentRequest describes the admission payload.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// RecordGradeRequest carries grade fields for a live enrollment.
type RecordGradeRequest struct {
	Grade      string  `json:"grade" validate:"required"`
	GradePoint float64 `json:"grade_point" validate:"gte=0,lte=4"`
	FinalScore float64 `json:"final_score" validate:"gte=0,lte=100"`
}

// EnrollmentService owns the enrollment state machine: admission against
// course capacity, one-directional status transitions, grade recording and
// the attendance-percentage read model.
type EnrollmentService struct {
	repo                  enrollmentRepository
	courses               courseRegistry
	attendance            attendanceReader
	cache                 percentageCache
	metrics               enrollmentMetrics
	validator             *validator.Validate
	logger                *zap.Logger
	releaseSeatOnComplete bool
}

// NewEnrollmentService constructs EnrollmentService. releaseSeatOnComplete
// decides whether completing an enrollment frees its seat for the semester.
func NewEnrollmentService(repo enrollmentRepository, courses courseRegistry, attendance attendanceReader, cache percentageCache, metrics enrollmentMetrics, validate *validator.Validate, logger *zap.Logger, releaseSeatOnComplete bool) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:                  repo,
		courses:               courses,
		attendance:            attendance,
		cache:                 cache,
		metrics:               metrics,
		validator:             validate,
		logger:                logger,
		releaseSeatOnComplete: releaseSeatOnComplete,
	}
}

func (s *EnrollmentService) recordTransition(transition string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordEnrollmentTransition(transition, success)
	}
}

// Enroll admits a student into a course. The seat is reserved through a
// compare-and-increment before the record is created; a concurrent duplicate
// that slips past the pre-check hits the partial unique index, and the
// reserved seat is compensated before the conflict is surfaced. On capacity
// failure no record is created.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	exists, err := s.repo.ExistsNonTerminal(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		s.recordTransition("enroll", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	}

	if err := s.courses.ReserveSeat(ctx, req.CourseID); err != nil {
		s.recordTransition("enroll", false)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}

	enrollment := &models.Enrollment{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		Status:         models.EnrollmentStatusActive,
		EnrollmentDate: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if releaseErr := s.courses.ReleaseSeat(ctx, req.CourseID); releaseErr != nil {
			s.logger.Error("failed to release seat after enrollment create failure",
				zap.String("course_id", req.CourseID), zap.Error(releaseErr))
		}
		s.recordTransition("enroll", false)
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.recordTransition("enroll", true)
	return enrollment, nil
}

// Get returns an enrollment by ID.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found with id: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// ListByStudent returns a student's enrollments, optionally only active ones.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.Enrollment, error) {
	var (
		enrollments []models.Enrollment
		err         error
	)
	if activeOnly {
		enrollments, err = s.repo.ListByStudentAndStatus(ctx, studentID, models.EnrollmentStatusActive)
	} else {
		enrollments, err = s.repo.ListByStudent(ctx, studentID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListByCourse returns all enrollments for a course.
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// RecordGrade stores grade fields on a live enrollment. Grading does not wait
// for completion and does not itself change status.
func (s *EnrollmentService) RecordGrade(ctx context.Context, id string, req RecordGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	if err := s.repo.UpdateGrade(ctx, id, req.Grade, req.GradePoint, req.FinalScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyMissedTransition(ctx, id, "cannot record grade on a finalized enrollment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	return s.Get(ctx, id)
}

// Complete transitions an ACTIVE enrollment to COMPLETED. Whether the seat is
// released for the remainder of the semester is a policy decision carried in
// configuration; the default keeps completed seats occupied.
func (s *EnrollmentService) Complete(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	transitioned, err := s.repo.Complete(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
	}
	if !transitioned {
		s.recordTransition("complete", false)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only an active enrollment can be completed")
	}
	s.recordTransition("complete", true)

	if s.releaseSeatOnComplete {
		if err := s.courses.ReleaseSeat(ctx, enrollment.CourseID); err != nil {
			s.logger.Error("failed to release seat on completion",
				zap.String("course_id", enrollment.CourseID), zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}

// Drop transitions a live enrollment to DROPPED and returns its seat. The
// conditional update transitions at most once, so the release cannot double
// under concurrent drops.
func (s *EnrollmentService) Drop(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	transitioned, err := s.repo.Drop(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	if !transitioned {
		s.recordTransition("drop", false)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment is already finalized")
	}
	s.recordTransition("drop", true)

	if err := s.courses.ReleaseSeat(ctx, enrollment.CourseID); err != nil {
		s.logger.Error("failed to release seat on drop",
			zap.String("course_id", enrollment.CourseID), zap.Error(err))
	}

	return s.Get(ctx, id)
}

// AttendancePercentage derives the attendance percentage for an enrollment.
// Zero recorded days is 0.0 by convention, not an error.
func (s *EnrollmentService) AttendancePercentage(ctx context.Context, id string) (float64, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return 0, err
	}

	cacheKey := attendancePercentageKey(id)
	if s.cache != nil {
		var cached float64
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	start := time.Now()
	summary, err := s.attendance.Summary(ctx, id)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("attendance_summary", time.Since(start))
	}
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attendance summary")
	}

	var percentage float64
	if summary.Total > 0 {
		percentage = 100 * float64(summary.Present) / float64(summary.Total)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, percentage); err != nil {
			s.logger.Warn("failed to cache attendance percentage", zap.Error(err))
		}
	}

	return percentage, nil
}

// classifyMissedTransition distinguishes an absent enrollment from one in a
// state that forbids the attempted transition.
func (s *EnrollmentService) classifyMissedTransition(ctx context.Context, id, message string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found with id: "+id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, message)
}

func attendancePercentageKey(enrollmentID string) string {
	return fmt.Sprintf("attendance:pct:%s", enrollmentID)
}
