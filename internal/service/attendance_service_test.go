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

type mockAttendanceRepo struct {
	records map[string]models.Attendance
	nextID  int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]models.Attendance)}
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.Attendance) error {
	for id, existing := range m.records {
		if existing.EnrollmentID == record.EnrollmentID && existing.AttendanceDate.Equal(record.AttendanceDate) {
			record.ID = id
			m.records[id] = *record
			return nil
		}
	}
	m.nextID++
	record.ID = fmt.Sprintf("att-%d", m.nextID)
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if r, ok := m.records[id]; ok {
		found := r
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	var list []models.Attendance
	for _, r := range m.records {
		if r.EnrollmentID == enrollmentID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	var list []models.Attendance
	for _, r := range m.records {
		if r.StudentID == studentID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockAttendanceRepo) ListByStudentAndRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Attendance, error) {
	var list []models.Attendance
	for _, r := range m.records {
		if r.StudentID == studentID && !r.AttendanceDate.Before(from) && !r.AttendanceDate.After(to) {
			list = append(list, r)
		}
	}
	return list, nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error) {
	summary := &models.AttendanceSummary{}
	for _, r := range m.records {
		if r.EnrollmentID != enrollmentID {
			continue
		}
		summary.Total++
		switch r.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusExcused:
			summary.Excused++
		}
	}
	return summary, nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, id string, status models.AttendanceStatus, remarks *string) error {
	r, ok := m.records[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	r.Remarks = remarks
	m.records[id] = r
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	delete(m.records, id)
	return nil
}

type mockEnrollmentReader struct {
	enrollments map[string]models.Enrollment
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		found := e
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type mockCacheInvalidator struct {
	patterns []string
}

func (m *mockCacheInvalidator) Invalidate(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func newAttendanceFixture(status models.EnrollmentStatus) (*AttendanceService, *mockAttendanceRepo, *mockCacheInvalidator) {
	repo := newMockAttendanceRepo()
	enrollments := &mockEnrollmentReader{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Status: status},
	}}
	cache := &mockCacheInvalidator{}
	return NewAttendanceService(repo, enrollments, cache, nil, nil), repo, cache
}

func TestAttendanceServiceRecord(t *testing.T) {
	svc, _, cache := newAttendanceFixture(models.EnrollmentStatusActive)

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1",
		Date:         "2026-03-02",
		Status:       "PRESENT",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", record.StudentID)
	assert.Equal(t, "c1", record.CourseID)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	assert.Contains(t, cache.patterns, "attendance:pct:e1")
}

func TestAttendanceServiceRecordSameDayOverwrites(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(models.EnrollmentStatusActive)

	first, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "2026-03-02", Status: "ABSENT",
	})
	require.NoError(t, err)

	second, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "2026-03-02", Status: "PRESENT",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, repo.records[first.ID].Status)
}

func TestAttendanceServiceRecordInvalidStatus(t *testing.T) {
	svc, _, _ := newAttendanceFixture(models.EnrollmentStatusActive)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "2026-03-02", Status: "TARDY",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordBadDate(t *testing.T) {
	svc, _, _ := newAttendanceFixture(models.EnrollmentStatusActive)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "02/03/2026", Status: "PRESENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordFinalizedEnrollment(t *testing.T) {
	svc, _, _ := newAttendanceFixture(models.EnrollmentStatusDropped)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "2026-03-02", Status: "PRESENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordUnknownEnrollment(t *testing.T) {
	svc, _, _ := newAttendanceFixture(models.EnrollmentStatusActive)

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "ghost", Date: "2026-03-02", Status: "PRESENT",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceSummary(t *testing.T) {
	svc, _, _ := newAttendanceFixture(models.EnrollmentStatusActive)

	days := map[string]string{
		"2026-03-02": "PRESENT",
		"2026-03-03": "PRESENT",
		"2026-03-04": "ABSENT",
		"2026-03-05": "LATE",
	}
	for date, status := range days {
		_, err := svc.Record(context.Background(), RecordAttendanceRequest{
			EnrollmentID: "e1", Date: date, Status: status,
		})
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 1, summary.Late)
	assert.Zero(t, summary.Excused)
}

func TestAttendanceServiceListByStudentRange(t *testing.T) {
	svc, _, _ := newAttendanceFixture(models.EnrollmentStatusActive)

	for _, date := range []string{"2026-03-02", "2026-03-09", "2026-03-16"} {
		_, err := svc.Record(context.Background(), RecordAttendanceRequest{
			EnrollmentID: "e1", Date: date, Status: "PRESENT",
		})
		require.NoError(t, err)
	}

	from := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	records, err := svc.ListByStudent(context.Background(), "s1", &from, &to)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = svc.ListByStudent(context.Background(), "s1", &to, &from)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceUpdateInvalidatesCache(t *testing.T) {
	svc, _, cache := newAttendanceFixture(models.EnrollmentStatusActive)

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "2026-03-02", Status: "ABSENT",
	})
	require.NoError(t, err)
	cache.patterns = nil

	remarks := "arrived after roll call"
	updated, err := svc.Update(context.Background(), record.ID, UpdateAttendanceRequest{Status: "LATE", Remarks: &remarks})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, updated.Status)
	require.NotNil(t, updated.Remarks)
	assert.Equal(t, remarks, *updated.Remarks)
	assert.Contains(t, cache.patterns, "attendance:pct:e1")
}

func TestAttendanceServiceDelete(t *testing.T) {
	svc, repo, cache := newAttendanceFixture(models.EnrollmentStatusActive)

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		EnrollmentID: "e1", Date: "2026-03-02", Status: "PRESENT",
	})
	require.NoError(t, err)
	cache.patterns = nil

	require.NoError(t, svc.Delete(context.Background(), record.ID))
	assert.Empty(t, repo.records)
	assert.Contains(t, cache.patterns, "attendance:pct:e1")

	err = svc.Delete(context.Background(), record.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
