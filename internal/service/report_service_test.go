package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type mockTranscriptEnrollments struct {
	enrollments []models.Enrollment
}

func (m *mockTranscriptEnrollments) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return m.enrollments, nil
}

type mockTranscriptCourses struct {
	courses map[string]models.Course
}

func (m *mockTranscriptCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		found := c
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func newReportFixture() *ReportService {
	grade := "A"
	gradePoint := 4.0
	finalScore := 95.0
	completed := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	enrollments := &mockTranscriptEnrollments{enrollments: []models.Enrollment{
		{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusCompleted,
			Grade: &grade, GradePoint: &gradePoint, FinalScore: &finalScore, CompletedDate: &completed},
		{ID: "e2", StudentID: "s1", CourseID: "c2", Status: models.EnrollmentStatusActive},
	}}
	courses := &mockTranscriptCourses{courses: map[string]models.Course{
		"c1": {ID: "c1", CourseCode: "CS-201", CourseName: "Algorithms", CreditHours: 3, Semester: "2026-SPRING"},
		"c2": {ID: "c2", CourseCode: "CS-305", CourseName: "Databases", CreditHours: 4, Semester: "2026-FALL"},
	}}
	attendance := &mockAttendanceSummary{summary: models.AttendanceSummary{Present: 9, Absent: 1, Total: 10}}
	return NewReportService(enrollments, courses, attendance, nil)
}

func TestReportServiceTranscriptCSV(t *testing.T) {
	svc := newReportFixture()

	file, err := svc.Transcript(context.Background(), "s1", ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "transcript-s1.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Content)
	assert.Contains(t, body, "Course Code")
	assert.Contains(t, body, "CS-201")
	assert.Contains(t, body, "4.00")
	assert.Contains(t, body, "2026-06-15")
	assert.Contains(t, body, "CS-305")
}

func TestReportServiceTranscriptSkipsUnresolvableCourse(t *testing.T) {
	enrollments := &mockTranscriptEnrollments{enrollments: []models.Enrollment{
		{ID: "e1", StudentID: "s1", CourseID: "ghost", Status: models.EnrollmentStatusActive},
	}}
	svc := NewReportService(enrollments, &mockTranscriptCourses{courses: map[string]models.Course{}}, &mockAttendanceSummary{}, nil)

	file, err := svc.Transcript(context.Background(), "s1", ReportFormatCSV)
	require.NoError(t, err)
	assert.NotContains(t, string(file.Content), "ghost")
}

func TestReportServiceAttendanceReportCSV(t *testing.T) {
	svc := newReportFixture()

	file, err := svc.AttendanceReport(context.Background(), "s1", ReportFormatCSV)
	require.NoError(t, err)

	body := string(file.Content)
	assert.Contains(t, body, "Attendance %")
	assert.Contains(t, body, "90.0")
}

func TestReportServiceTranscriptPDF(t *testing.T) {
	svc := newReportFixture()

	file, err := svc.Transcript(context.Background(), "s1", ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "transcript-s1.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestReportServiceUnsupportedFormat(t *testing.T) {
	svc := newReportFixture()

	_, err := svc.Transcript(context.Background(), "s1", ReportFormat("xml"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParseReportFormat(t *testing.T) {
	format, ok := ParseReportFormat(" CSV ")
	require.True(t, ok)
	assert.Equal(t, ReportFormatCSV, format)

	_, ok = ParseReportFormat("xlsx")
	assert.False(t, ok)
}
