package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/edu-monitoring/api/internal/middleware"
	"github.com/edu-monitoring/api/internal/models"
	"github.com/edu-monitoring/api/internal/repository"
	"github.com/edu-monitoring/api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Teachers      *TeacherHandler
	Schools       *SchoolHandler
	Materials     *MaterialHandler
	Videos        *VideoHandler
	Consultations *ConsultationHandler
	Analyses      *LessonAnalysisHandler
	Tests         *MockTestHandler
	Ratings       *RatingHandler
	Approvals     *ApprovalHandler
	Assistant     *AIHandler
	Exports       *ExportHandler
	Library       *LibraryHandler
	Metrics       *MetricsHandler
}

// RouterConfig carries the cross-cutting dependencies routes need.
type RouterConfig struct {
	AuthService *service.AuthService
	Metrics     *service.MetricsService
	AuditRepo   *repository.AuditRepository
	EnableDocs  bool
}

// RegisterRoutes attaches all API routes to the engine.
func RegisterRoutes(r *gin.Engine, h Handlers, cfg RouterConfig) {
	r.Use(middleware.Metrics(cfg.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(cfg.AuthService))
	{
		authed.GET("/auth/me", h.Auth.Me)
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.POST("/auth/change-password", h.Auth.ChangePassword)

		authed.GET("/teachers", h.Teachers.List)
		authed.GET("/teachers/me", h.Teachers.Me)
		authed.GET("/teachers/:id", h.Teachers.Get)
		authed.GET("/teachers/:id/activities", h.Teachers.Activities)
		authed.GET("/teachers/:id/rank", h.Teachers.Rank)

		authed.GET("/schools", h.Schools.List)
		authed.GET("/schools/:id", h.Schools.Get)

		authed.GET("/materials", h.Materials.List)
		authed.GET("/materials/mine", h.Materials.Mine)
		authed.GET("/materials/:id", h.Materials.Get)
		authed.POST("/materials", h.Materials.Upload)
		authed.PUT("/materials/:id", h.Materials.Update)
		authed.DELETE("/materials/:id", h.Materials.Delete)
		authed.GET("/materials/:id/download", h.Materials.Download)

		authed.GET("/videos", h.Videos.List)
		authed.GET("/videos/mine", h.Videos.Mine)
		authed.GET("/videos/:id", h.Videos.Get)
		authed.POST("/videos", h.Videos.Upload)
		authed.POST("/videos/:id/like", h.Videos.Like)

		authed.GET("/consultations", h.Consultations.List)
		authed.GET("/consultations/stats", h.Consultations.Stats)
		authed.GET("/consultations/:id", h.Consultations.Get)
		authed.POST("/consultations", h.Consultations.Create)
		authed.POST("/consultations/:id/accept", h.Consultations.Accept)
		authed.POST("/consultations/:id/reject", h.Consultations.Reject)
		authed.POST("/consultations/:id/complete", h.Consultations.Complete)

		authed.GET("/analyses", h.Analyses.List)
		authed.GET("/analyses/stats", h.Analyses.Stats)
		authed.GET("/analyses/:id", h.Analyses.Get)
		authed.POST("/analyses", h.Analyses.Create)
		authed.PUT("/analyses/:id", h.Analyses.Update)
		authed.POST("/analyses/:id/submit", h.Analyses.Submit)
		authed.POST("/analyses/:id/approve", h.Analyses.Approve)
		authed.POST("/analyses/:id/reject", h.Analyses.Reject)
		authed.GET("/analyses/:id/comments", h.Analyses.Comments)
		authed.POST("/analyses/:id/comments", h.Analyses.Comment)

		authed.GET("/tests", h.Tests.List)
		authed.GET("/tests/:id", h.Tests.Get)
		authed.POST("/tests/:id/attempts", h.Tests.Submit)
		authed.GET("/attempts", h.Tests.MyAttempts)
		authed.GET("/attempts/:id/review", h.Tests.Review)

		authed.GET("/ratings/teachers", h.Ratings.TopTeachers)
		authed.GET("/ratings/schools", h.Ratings.TopSchools)
		authed.GET("/ratings/teachers/:id/history", h.Ratings.TeacherHistory)
		authed.GET("/ratings/schools/:id/history", h.Ratings.SchoolHistory)

		authed.POST("/assistant/lesson-plan", h.Assistant.LessonPlan)
		authed.POST("/assistant/quiz", h.Assistant.Quiz)
		authed.POST("/assistant/ask", h.Assistant.Ask)

		authed.GET("/library", h.Library.List)
		authed.GET("/library/:id", h.Library.Get)
	}

	// Signed token carries its own authorization.
	api.GET("/exports/download", h.Exports.Download)

	staff := api.Group("")
	staff.Use(middleware.JWT(cfg.AuthService), middleware.RequireStaff())
	{
		staff.POST("/teachers", h.Teachers.Create)
		staff.PUT("/teachers/:id", h.Teachers.Update)

		staff.POST("/materials/:id/approve", h.Materials.Approve)
		staff.POST("/materials/:id/reject", h.Materials.Reject)
		staff.POST("/videos/:id/approve", h.Videos.Approve)
		staff.POST("/videos/:id/reject", h.Videos.Reject)

		staff.GET("/approvals/pending", h.Approvals.PendingQueue)
		staff.POST("/approvals/bulk",
			middleware.Audit(cfg.AuditRepo, models.AuditActionBulkApproval, "approvals"),
			h.Approvals.BulkApprove)

		staff.POST("/tests", h.Tests.Create)

		staff.POST("/ratings/snapshots", h.Ratings.Snapshot)
		staff.POST("/exports/teachers", h.Exports.Teachers)
		staff.POST("/exports/schools", h.Exports.Schools)

		staff.POST("/library", h.Library.Create)
		staff.DELETE("/library/:id", h.Library.Delete)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(cfg.AuthService), middleware.RequireRoles(models.RoleSuperAdmin))
	{
		admin.GET("/users", h.Users.List)
		admin.POST("/users", h.Users.Create)
		admin.PUT("/users/:id", h.Users.Update)
		admin.DELETE("/users/:id", h.Users.Delete)

		admin.POST("/schools", h.Schools.Create)
		admin.PUT("/schools/:id/director", h.Schools.AssignDirector)

		admin.POST("/teachers/reset-monthly-points", h.Teachers.ResetMonthlyPoints)
	}

	api.GET("/users/:id", middleware.JWT(cfg.AuthService), middleware.RBAC("SUPERADMIN", "ADMIN", "SELF"), h.Users.Get)
}
