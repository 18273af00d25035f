package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type mockDocumentRepo struct {
	documents map[string]models.StudentDocument
	nextID    int
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{documents: make(map[string]models.StudentDocument)}
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.StudentDocument) error {
	m.nextID++
	doc.ID = fmt.Sprintf("doc-%d", m.nextID)
	m.documents[doc.ID] = *doc
	return nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.StudentDocument, error) {
	if d, ok := m.documents[id]; ok {
		found := d
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDocumentRepo) ListByStudent(ctx context.Context, studentID, documentType string) ([]models.StudentDocument, error) {
	var list []models.StudentDocument
	for _, d := range m.documents {
		if d.StudentID == studentID && (documentType == "" || d.DocumentType == documentType) {
			list = append(list, d)
		}
	}
	return list, nil
}

func (m *mockDocumentRepo) Verify(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) error {
	d, ok := m.documents[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Verified = true
	d.VerifiedBy = &verifiedBy
	d.VerifiedAt = &verifiedAt
	m.documents[id] = d
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	delete(m.documents, id)
	return nil
}

func attachTestDocument(t *testing.T, svc *DocumentService) *models.StudentDocument {
	t.Helper()
	doc, err := svc.Attach(context.Background(), AttachDocumentRequest{
		StudentID:    "s1",
		DocumentType: "BIRTH_CERTIFICATE",
		FileName:     "birth-certificate.pdf",
		FileURL:      "https://files.example.edu/docs/birth-certificate.pdf",
	})
	require.NoError(t, err)
	return doc
}

func TestDocumentServiceAttach(t *testing.T) {
	svc := NewDocumentService(newMockDocumentRepo(), nil, nil)

	doc := attachTestDocument(t, svc)
	assert.False(t, doc.Verified)
	assert.Nil(t, doc.VerifiedBy)
}

func TestDocumentServiceVerifyOnce(t *testing.T) {
	svc := NewDocumentService(newMockDocumentRepo(), nil, nil)
	doc := attachTestDocument(t, svc)

	verified, err := svc.Verify(context.Background(), doc.ID, "officer-1")
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, "officer-1", *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	_, err = svc.Verify(context.Background(), doc.ID, "officer-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceAttachRejectsBadURL(t *testing.T) {
	svc := NewDocumentService(newMockDocumentRepo(), nil, nil)

	_, err := svc.Attach(context.Background(), AttachDocumentRequest{
		StudentID:    "s1",
		DocumentType: "BIRTH_CERTIFICATE",
		FileName:     "birth-certificate.pdf",
		FileURL:      "not a url",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceListByStudentTypeFilter(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewDocumentService(repo, nil, nil)
	attachTestDocument(t, svc)

	_, err := svc.Attach(context.Background(), AttachDocumentRequest{
		StudentID:    "s1",
		DocumentType: "TRANSCRIPT",
		FileName:     "prior-transcript.pdf",
		FileURL:      "https://files.example.edu/docs/prior-transcript.pdf",
	})
	require.NoError(t, err)

	all, err := svc.ListByStudent(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.ListByStudent(context.Background(), "s1", "TRANSCRIPT")
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}
