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

type documentRepository interface {
	Create(ctx context.Context, doc *models.StudentDocument) error
	FindByID(ctx context.Context, id string) (*models.StudentDocument, error)
	ListByStudent(ctx context.Context, studentID, documentType string) ([]models.StudentDocument, error)
	Verify(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// AttachDocumentRequest records document metadata for a student. The file
// itself lives in external storage; only its pointer is kept here.
type AttachDocumentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	DocumentType string `json:"document_type" validate:"required,max=100"`
	FileName     string `json:"file_name" validate:"required,max=255"`
	FileURL      string `json:"file_url" validate:"required,url,max=2000"`
}

// DocumentService manages student document metadata and verification state.
type DocumentService struct {
	repo      documentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs DocumentService.
func NewDocumentService(repo documentRepository, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, validator: validate, logger: logger}
}

// Attach records a document pointer for a student.
func (s *DocumentService) Attach(ctx context.Context, req AttachDocumentRequest) (*models.StudentDocument, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	doc := &models.StudentDocument{
		StudentID:    req.StudentID,
		DocumentType: req.DocumentType,
		FileName:     req.FileName,
		FileURL:      req.FileURL,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach document")
	}
	return doc, nil
}

// Get returns a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.StudentDocument, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found with id: "+id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// ListByStudent returns a student's documents, optionally filtered by type.
func (s *DocumentService) ListByStudent(ctx context.Context, studentID, documentType string) ([]models.StudentDocument, error) {
	docs, err := s.repo.ListByStudent(ctx, studentID, documentType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Verify marks a document as checked by an officer. Verifying twice is a
// conflict so audit trails stay single-writer.
func (s *DocumentService) Verify(ctx context.Context, id, verifiedBy string) (*models.StudentDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Verified {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document is already verified")
	}
	if err := s.repo.Verify(ctx, id, verifiedBy, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify document")
	}
	return s.Get(ctx, id)
}

// Delete removes a document record.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	return nil
}
