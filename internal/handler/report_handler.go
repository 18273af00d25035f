package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iti-edu/schoolmis-api/internal/service"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
	"github.com/iti-edu/schoolmis-api/pkg/response"
)

// ReportHandler streams rendered reports.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Transcript godoc
// @Summary Student transcript
// @Description Render the academic transcript as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	format, ok := service.ParseReportFormat(c.DefaultQuery("format", "csv"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported report format, valid values: csv, pdf"))
		return
	}

	file, err := h.service.Transcript(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, file)
}

// Attendance godoc
// @Summary Student attendance report
// @Description Render per-course attendance totals as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/attendance-report [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	format, ok := service.ParseReportFormat(c.DefaultQuery("format", "csv"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported report format, valid values: csv, pdf"))
		return
	}

	file, err := h.service.AttendanceReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, file)
}

func streamReport(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
