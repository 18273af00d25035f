package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) error
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
	ListByStudentAndRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Attendance, error)
	Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error)
	Update(ctx context.Context, id string, status models.AttendanceStatus, remarks *string) error
	Delete(ctx context.Context, id string) error
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// RecordAttendanceRequest marks one student on one day.
type RecordAttendanceRequest struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status       string  `json:"status" validate:"required"`
	Remarks      *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// UpdateAttendanceRequest corrects a previously recorded day.
type UpdateAttendanceRequest struct {
	Status  string  `json:"status" validate:"required"`
	Remarks *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// AttendanceService manages the daily attendance ledger. One record per
// enrollment per day; re-recording the same day overwrites.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments enrollmentReader
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments enrollmentReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

// Record marks attendance for an enrollment on a given day. An existing
// record for the same enrollment and day is overwritten.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	status, ok := models.ParseAttendanceStatus(req.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status, valid values: PRESENT, ABSENT, LATE, EXCUSED")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found with id: "+req.EnrollmentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot record attendance on a finalized enrollment")
	}

	record := &models.Attendance{
		EnrollmentID:   enrollment.ID,
		StudentID:      enrollment.StudentID,
		CourseID:       enrollment.CourseID,
		AttendanceDate: date,
		Status:         status,
		Remarks:        req.Remarks,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.invalidatePercentage(ctx, enrollment.ID)
	return record, nil
}

// Get returns an attendance record by ID.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.Attendance, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found with id: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return record, nil
}

// ListByEnrollment returns the ledger for one enrollment, newest first.
func (s *AttendanceService) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	records, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListByStudent returns a student's records, optionally bounded to a date range.
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID string, from, to *time.Time) ([]models.Attendance, error) {
	var (
		records []models.Attendance
		err     error
	)
	if from != nil && to != nil {
		if to.Before(*from) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date range end must not precede its start")
		}
		records, err = s.repo.ListByStudentAndRange(ctx, studentID, *from, *to)
	} else {
		records, err = s.repo.ListByStudent(ctx, studentID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Summary aggregates per-status counts for an enrollment.
func (s *AttendanceService) Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error) {
	summary, err := s.repo.Summary(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
	}
	return summary, nil
}

// Update corrects the status or remarks of an existing record.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	status, ok := models.ParseAttendanceStatus(req.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status, valid values: PRESENT, ABSENT, LATE, EXCUSED")
	}

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, status, req.Remarks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}

	s.invalidatePercentage(ctx, record.EnrollmentID)
	return s.Get(ctx, id)
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	s.invalidatePercentage(ctx, record.EnrollmentID)
	return nil
}

func (s *AttendanceService) invalidatePercentage(ctx context.Context, enrollmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, attendancePercentageKey(enrollmentID)); err != nil {
		s.logger.Warn("failed to invalidate attendance percentage cache",
			zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}
