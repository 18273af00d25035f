package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/iti-edu/schoolmis-api/internal/middleware"
	"github.com/iti-edu/schoolmis-api/internal/models"
	"github.com/iti-edu/schoolmis-api/internal/service"
)

// Router aggregates all handlers and mounts the API surface.
type Router struct {
	tokens        *service.TokenService
	auth          *AuthHandler
	users         *UserHandler
	students      *StudentHandler
	teachers      *TeacherHandler
	courses       *CourseHandler
	enrollments   *EnrollmentHandler
	attendance    *AttendanceHandler
	payments      *PaymentHandler
	notifications *NotificationHandler
	documents     *DocumentHandler
	reports       *ReportHandler
	metrics       *MetricsHandler

	reportsEnabled bool
}

// NewRouter constructs the route aggregator.
func NewRouter(
	tokens *service.TokenService,
	auth *AuthHandler,
	users *UserHandler,
	students *StudentHandler,
	teachers *TeacherHandler,
	courses *CourseHandler,
	enrollments *EnrollmentHandler,
	attendance *AttendanceHandler,
	payments *PaymentHandler,
	notifications *NotificationHandler,
	documents *DocumentHandler,
	reports *ReportHandler,
	metrics *MetricsHandler,
	reportsEnabled bool,
) *Router {
	return &Router{
		tokens:        tokens,
		auth:          auth,
		users:         users,
		students:      students,
		teachers:      teachers,
		courses:       courses,
		enrollments:   enrollments,
		attendance:    attendance,
		payments:      payments,
		notifications: notifications,
		documents:     documents,
		reports:       reports,
		metrics:       metrics,

		reportsEnabled: reportsEnabled,
	}
}

// Register mounts all routes under the given prefix.
func (rt *Router) Register(r *gin.Engine, prefix string) {
	r.GET("/health", rt.metrics.Health)
	r.GET("/ready", rt.metrics.Health)
	r.GET("/metrics", rt.metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.auth.Register)
		auth.POST("/login", rt.auth.Login)
		auth.POST("/refresh", rt.auth.Refresh)
		auth.GET("/me", middleware.JWT(rt.tokens), rt.auth.Me)
		auth.POST("/change-password", middleware.JWT(rt.tokens), rt.auth.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(rt.tokens))

	users := protected.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", rt.users.List)
		users.GET("/:id", rt.users.Get)
		users.PATCH("/:id", rt.users.Update)
		users.PATCH("/:id/enabled", rt.users.SetEnabled)
	}

	students := protected.Group("/students")
	{
		students.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.students.Create)
		students.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer, models.RoleTeacher), rt.students.List)
		students.GET("/:id", rt.students.Get)
		students.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.students.Update)
		students.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.students.Delete)

		students.GET("/:id/enrollments", rt.enrollments.ListByStudent)
		students.GET("/:id/attendance", rt.attendance.ListByStudent)
		students.GET("/:id/payments", middleware.RBAC(string(models.RoleAdmin), string(models.RoleEnrollmentOfficer), "SELF"), rt.payments.ListByStudent)
		students.GET("/:id/documents", middleware.RBAC(string(models.RoleAdmin), string(models.RoleEnrollmentOfficer), "SELF"), rt.documents.ListByStudent)
		if rt.reportsEnabled {
			students.GET("/:id/transcript", rt.reports.Transcript)
			students.GET("/:id/attendance-report", rt.reports.Attendance)
		}
	}

	teachers := protected.Group("/teachers")
	{
		teachers.POST("", middleware.RequireRoles(models.RoleAdmin), rt.teachers.Create)
		teachers.GET("", rt.teachers.List)
		teachers.GET("/:id", rt.teachers.Get)
		teachers.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin), rt.teachers.Update)
		teachers.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.teachers.Delete)
	}

	courses := protected.Group("/courses")
	{
		courses.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.courses.Create)
		courses.GET("", rt.courses.List)
		courses.GET("/:id", rt.courses.Get)
		courses.GET("/code/:code", rt.courses.GetByCode)
		courses.GET("/:id/available-seats", rt.courses.AvailableSeats)
		courses.GET("/:id/enrollments", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer, models.RoleTeacher), rt.courses.Roster)
		courses.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.courses.Update)
		courses.PATCH("/:id/active", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.courses.SetActive)
		courses.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.courses.Delete)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.enrollments.Enroll)
		enrollments.GET("/:id", rt.enrollments.Get)
		enrollments.PATCH("/:id/grade", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rt.enrollments.RecordGrade)
		enrollments.PATCH("/:id/complete", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleEnrollmentOfficer), rt.enrollments.Complete)
		enrollments.PATCH("/:id/drop", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.enrollments.Drop)
		enrollments.GET("/:id/attendance", rt.attendance.ListByEnrollment)
		enrollments.GET("/:id/attendance/summary", rt.attendance.Summary)
		enrollments.GET("/:id/attendance-percentage", rt.enrollments.AttendancePercentage)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rt.attendance.Record)
		attendance.PATCH("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rt.attendance.Update)
		attendance.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), rt.attendance.Delete)
	}

	payments := protected.Group("/payments")
	payments.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer))
	{
		payments.POST("", rt.payments.Create)
		payments.GET("/:id", rt.payments.Get)
		payments.PATCH("/:id/complete", rt.payments.MarkCompleted)
		payments.PATCH("/:id/fail", rt.payments.MarkFailed)
		payments.DELETE("/:id", rt.payments.Delete)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.notifications.Send)
		notifications.GET("", rt.notifications.ListMine)
		notifications.PATCH("/read-all", rt.notifications.MarkAllRead)
		notifications.PATCH("/:id/read", rt.notifications.MarkRead)
		notifications.DELETE("/:id", rt.notifications.Delete)
	}

	documents := protected.Group("/documents")
	{
		documents.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.documents.Attach)
		documents.GET("/:id", rt.documents.Get)
		documents.PATCH("/:id/verify", middleware.RequireRoles(models.RoleAdmin, models.RoleEnrollmentOfficer), rt.documents.Verify)
		documents.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), rt.documents.Delete)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/metrics", rt.metrics.Snapshot)
	}
}
