package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/edu-monitoring/api/api/swagger"
	"github.com/edu-monitoring/api/internal/handler"
	"github.com/edu-monitoring/api/internal/repository"
	"github.com/edu-monitoring/api/internal/service"
	"github.com/edu-monitoring/api/pkg/cache"
	"github.com/edu-monitoring/api/pkg/config"
	"github.com/edu-monitoring/api/pkg/database"
	"github.com/edu-monitoring/api/pkg/genai"
	"github.com/edu-monitoring/api/pkg/jobs"
	"github.com/edu-monitoring/api/pkg/logger"
	corsmiddleware "github.com/edu-monitoring/api/pkg/middleware/cors"
	reqidmiddleware "github.com/edu-monitoring/api/pkg/middleware/requestid"
	"github.com/edu-monitoring/api/pkg/storage"
)

// @title Education Monitoring API
// @version 1.0.0
// @description Teacher development platform: submissions, peer review, points and leaderboards
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	exports, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	authRepo := repository.NewAuthRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	analysisRepo := repository.NewLessonAnalysisRepository(db)
	mockTestRepo := repository.NewMockTestRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, authRepo, auditRepo, cfg.JWT, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	schoolSvc := service.NewSchoolService(schoolRepo, userRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, schoolRepo, nil, logr)
	materialSvc := service.NewMaterialService(materialRepo, teacherRepo, schoolRepo, teacherSvc, uploads, nil, logr)
	videoSvc := service.NewVideoService(videoRepo, teacherRepo, schoolRepo, teacherSvc, uploads, nil, logr)
	consultationSvc := service.NewConsultationService(consultationRepo, teacherRepo, teacherSvc, nil, logr)
	analysisSvc := service.NewLessonAnalysisService(analysisRepo, teacherRepo, teacherSvc, nil, logr)
	mockTestSvc := service.NewMockTestService(mockTestRepo, nil, logr)
	approvalSvc := service.NewApprovalService(approvalRepo, materialRepo, videoRepo, auditRepo, logr)
	ratingSvc := service.NewRatingService(ratingRepo, redisClient, cfg.Ratings.CacheTTL, jobs.QueueConfig{
		Workers:    cfg.Ratings.WorkerConcurrency,
		MaxRetries: cfg.Ratings.WorkerRetries,
		Logger:     logr,
	}, logr)
	aiSvc := service.NewAIService(genai.New(cfg.AI, logr), nil, logr)
	exportSvc := service.NewExportService(ratingSvc, exports, signer, logr)
	librarySvc := service.NewLibraryService(libraryRepo, uploads, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ratingSvc.Queue().Start(ctx)
	defer ratingSvc.Queue().Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Users:         handler.NewUserHandler(userSvc),
		Teachers:      handler.NewTeacherHandler(teacherSvc, ratingSvc),
		Schools:       handler.NewSchoolHandler(schoolSvc),
		Materials:     handler.NewMaterialHandler(materialSvc, teacherSvc, uploads),
		Videos:        handler.NewVideoHandler(videoSvc, teacherSvc),
		Consultations: handler.NewConsultationHandler(consultationSvc),
		Analyses:      handler.NewLessonAnalysisHandler(analysisSvc),
		Tests:         handler.NewMockTestHandler(mockTestSvc),
		Ratings:       handler.NewRatingHandler(ratingSvc),
		Approvals:     handler.NewApprovalHandler(approvalSvc),
		Assistant:     handler.NewAIHandler(aiSvc, metricsSvc),
		Exports:       handler.NewExportHandler(exportSvc),
		Library:       handler.NewLibraryHandler(librarySvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
	}
	handler.RegisterRoutes(r, handlers, handler.RouterConfig{
		AuthService: authSvc,
		Metrics:     metricsSvc,
		AuditRepo:   auditRepo,
		EnableDocs:  cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
