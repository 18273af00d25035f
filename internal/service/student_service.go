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

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	FindByStudentNumber(ctx context.Context, number string) (*models.Student, error)
	List(ctx context.Context, activeOnly bool) ([]models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest links a student profile to an existing user account.
type CreateStudentRequest struct {
	UserID        string     `json:"user_id" validate:"required"`
	StudentNumber string     `json:"student_number" validate:"required,min=3,max=32"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        string     `json:"gender" validate:"max=20"`
	ParentName    string     `json:"parent_name" validate:"max=255"`
	ParentPhone   string     `json:"parent_phone" validate:"max=32"`
	ParentEmail   string     `json:"parent_email" validate:"omitempty,email"`
	GuardianName  string     `json:"guardian_name" validate:"max=255"`
	GuardianPhone string     `json:"guardian_phone" validate:"max=32"`
	CurrentLevel  string     `json:"current_level" validate:"max=50"`
}

// UpdateStudentRequest carries mutable profile fields.
type UpdateStudentRequest struct {
	Gender        *string    `json:"gender,omitempty" validate:"omitempty,max=20"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	ParentName    *string    `json:"parent_name,omitempty" validate:"omitempty,max=255"`
	ParentPhone   *string    `json:"parent_phone,omitempty" validate:"omitempty,max=32"`
	ParentEmail   *string    `json:"parent_email,omitempty" validate:"omitempty,email"`
	GuardianName  *string    `json:"guardian_name,omitempty" validate:"omitempty,max=255"`
	GuardianPhone *string    `json:"guardian_phone,omitempty" validate:"omitempty,max=32"`
	CurrentLevel  *string    `json:"current_level,omitempty" validate:"omitempty,max=50"`
	GPA           *float64   `json:"gpa,omitempty" validate:"omitempty,gte=0,lte=4"`
	Active        *bool      `json:"active,omitempty"`
}

// StudentService manages student profiles.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Create registers a student profile.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.repo.FindByStudentNumber(ctx, req.StudentNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "student number already in use: "+req.StudentNumber)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student number")
	}

	student := &models.Student{
		UserID:         req.UserID,
		StudentNumber:  req.StudentNumber,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		ParentName:     req.ParentName,
		ParentPhone:    req.ParentPhone,
		ParentEmail:    req.ParentEmail,
		GuardianName:   req.GuardianName,
		GuardianPhone:  req.GuardianPhone,
		EnrollmentDate: time.Now().UTC(),
		CurrentLevel:   req.CurrentLevel,
		Active:         true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found with id: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUser resolves the profile attached to a user account.
func (s *StudentService) GetByUser(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student profile for user: "+userID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns student profiles, optionally only active ones.
func (s *StudentService) List(ctx context.Context, activeOnly bool) ([]models.Student, error) {
	students, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Update mutates profile fields.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = req.DateOfBirth
	}
	if req.ParentName != nil {
		student.ParentName = *req.ParentName
	}
	if req.ParentPhone != nil {
		student.ParentPhone = *req.ParentPhone
	}
	if req.ParentEmail != nil {
		student.ParentEmail = *req.ParentEmail
	}
	if req.GuardianName != nil {
		student.GuardianName = *req.GuardianName
	}
	if req.GuardianPhone != nil {
		student.GuardianPhone = *req.GuardianPhone
	}
	if req.CurrentLevel != nil {
		student.CurrentLevel = *req.CurrentLevel
	}
	if req.GPA != nil {
		student.GPA = *req.GPA
	}
	if req.Active != nil {
		student.Active = *req.Active
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student profile.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
