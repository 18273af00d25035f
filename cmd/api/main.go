package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/iti-edu/schoolmis-api/api/swagger"
	"github.com/iti-edu/schoolmis-api/internal/handler"
	"github.com/iti-edu/schoolmis-api/internal/middleware"
	"github.com/iti-edu/schoolmis-api/internal/repository"
	"github.com/iti-edu/schoolmis-api/internal/service"
	"github.com/iti-edu/schoolmis-api/pkg/cache"
	"github.com/iti-edu/schoolmis-api/pkg/config"
	"github.com/iti-edu/schoolmis-api/pkg/database"
	"github.com/iti-edu/schoolmis-api/pkg/logger"
	corsmiddleware "github.com/iti-edu/schoolmis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/iti-edu/schoolmis-api/pkg/middleware/requestid"
)

// @title School MIS API
// @version 1.0.0
// @description Student records backend: accounts, catalog, enrollment lifecycle, attendance
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.Expiration,
		RefreshTTL: cfg.JWT.RefreshExpiration,
	})
	authSvc := service.NewAuthService(userRepo, tokenSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, attendanceRepo, cacheSvc, metricsSvc, validate, logr, cfg.Enrollment.ReleaseSeatOnComplete)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, cacheSvc, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, validate, logr)
	reportSvc := service.NewReportService(enrollmentRepo, courseRepo, attendanceRepo, logr)

	router := handler.NewRouter(
		tokenSvc,
		handler.NewAuthHandler(authSvc),
		handler.NewUserHandler(userSvc),
		handler.NewStudentHandler(studentSvc),
		handler.NewTeacherHandler(teacherSvc),
		handler.NewCourseHandler(courseSvc),
		handler.NewEnrollmentHandler(enrollmentSvc),
		handler.NewAttendanceHandler(attendanceSvc),
		handler.NewPaymentHandler(paymentSvc),
		handler.NewNotificationHandler(notificationSvc),
		handler.NewDocumentHandler(documentSvc),
		handler.NewReportHandler(reportSvc),
		handler.NewMetricsHandler(metricsSvc),
		cfg.Reports.Enabled,
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	router.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
