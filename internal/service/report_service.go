package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
	"github.com/iti-edu/schoolmis-api/pkg/export"
)

// ReportFormat selects a rendering backend for exports.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ParseReportFormat validates a raw format value.
func ParseReportFormat(raw string) (ReportFormat, bool) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case ReportFormatCSV:
		return ReportFormatCSV, true
	case ReportFormatPDF:
		return ReportFormatPDF, true
	default:
		return "", false
	}
}

type transcriptEnrollmentLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type transcriptCourseResolver interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type transcriptAttendanceSummarizer interface {
	Summary(ctx context.Context, enrollmentID string) (*models.AttendanceSummary, error)
}

// ReportFile is a rendered export ready to stream to the client.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService renders student transcripts and attendance reports in CSV or
// PDF form. Rendering is synchronous; reports are small enough to assemble in
// the request.
type ReportService struct {
	enrollments transcriptEnrollmentLister
	courses     transcriptCourseResolver
	attendance  transcriptAttendanceSummarizer
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(enrollments transcriptEnrollmentLister, courses transcriptCourseResolver, attendance transcriptAttendanceSummarizer, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		enrollments: enrollments,
		courses:     courses,
		attendance:  attendance,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// Transcript renders a student's academic record: one row per enrollment with
// course, status, grade and completion date.
func (s *ReportService) Transcript(ctx context.Context, studentID string, format ReportFormat) (*ReportFile, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	dataset := export.Dataset{
		Headers: []string{"Course Code", "Course Name", "Credit Hours", "Semester", "Status", "Grade", "Grade Point", "Final Score", "Completed"},
	}
	for i := range enrollments {
		e := &enrollments[i]
		course, err := s.courses.FindByID(ctx, e.CourseID)
		if err != nil {
			s.logger.Warn("transcript row skipped, course lookup failed",
				zap.String("course_id", e.CourseID), zap.Error(err))
			continue
		}
		dataset.Rows = append(dataset.Rows, []string{
			course.CourseCode,
			course.CourseName,
			strconv.Itoa(course.CreditHours),
			course.Semester,
			string(e.Status),
			derefString(e.Grade),
			formatFloat(e.GradePoint),
			formatFloat(e.FinalScore),
			formatDate(e.CompletedDate),
		})
	}

	return s.render(dataset, fmt.Sprintf("transcript-%s", studentID), "Academic Transcript", format)
}

// AttendanceReport renders per-enrollment attendance totals for a student.
func (s *ReportService) AttendanceReport(ctx context.Context, studentID string, format ReportFormat) (*ReportFile, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	dataset := export.Dataset{
		Headers: []string{"Course", "Present", "Absent", "Late", "Excused", "Total", "Attendance %"},
	}
	for i := range enrollments {
		e := &enrollments[i]
		course, err := s.courses.FindByID(ctx, e.CourseID)
		if err != nil {
			s.logger.Warn("attendance row skipped, course lookup failed",
				zap.String("course_id", e.CourseID), zap.Error(err))
			continue
		}
		summary, err := s.attendance.Summary(ctx, e.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
		}
		var pct float64
		if summary.Total > 0 {
			pct = 100 * float64(summary.Present) / float64(summary.Total)
		}
		dataset.Rows = append(dataset.Rows, []string{
			course.CourseCode,
			strconv.Itoa(summary.Present),
			strconv.Itoa(summary.Absent),
			strconv.Itoa(summary.Late),
			strconv.Itoa(summary.Excused),
			strconv.Itoa(summary.Total),
			fmt.Sprintf("%.1f", pct),
		})
	}

	return s.render(dataset, fmt.Sprintf("attendance-%s", studentID), "Attendance Report", format)
}

func (s *ReportService) render(dataset export.Dataset, basename, title string, format ReportFormat) (*ReportFile, error) {
	switch format {
	case ReportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV report")
		}
		return &ReportFile{Filename: basename + ".csv", ContentType: "text/csv", Content: content}, nil
	case ReportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF report")
		}
		return &ReportFile{Filename: basename + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format, valid values: csv, pdf")
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}
