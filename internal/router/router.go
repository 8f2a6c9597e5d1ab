package router

import (
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/handler"
	"github.com/dlms/dlms-backend/internal/middleware"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/response"
	"github.com/dlms/dlms-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	AdminExam *handler.AdminExamHandler
	Question  *handler.QuestionHandler
	License   *handler.LicenseHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// loginLimiter throttles the login endpoint per client IP.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	loginLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restrict to AllowedOrigins when set, allow all otherwise.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.GET("/health", handlers.Health.Health)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Citizen Group ──────────────────────────────────────────────
	exams := router.Group("/api/v1/exams")
	exams.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRole(model.RoleCitizen),
	)
	{
		exams.GET("/take/:exam_id", handlers.Exam.TakeExam)
		exams.POST("/take/:exam_id/submit", handlers.Exam.SubmitExam)
		exams.GET("/take/:exam_id/state", handlers.Exam.GetExamState)
		exams.POST("/schedule", handlers.Exam.BookExam)
		exams.GET("/my", handlers.Exam.ListMyExams)
		exams.GET("/results", handlers.Exam.ListResults)
		exams.GET("/trial", handlers.Exam.StartTrial)
		exams.POST("/trial/:trial_id/submit", handlers.Exam.SubmitTrial)
	}

	// ─── 3. WebSocket Group (Query Token) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.RequireRole(model.RoleCitizen),
	)
	{
		ws.GET("/exams/:exam_id/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Traffic Police Group ───────────────────────────────────────
	police := router.Group("/api/v1/traffic-police")
	police.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRole(model.RoleTrafficPolice),
	)
	{
		police.POST("/violations", handlers.License.RecordViolation)
		police.GET("/license/:license_number", handlers.License.GetLicense)
		police.GET("/violation-types",
			middleware.CacheControl(10*time.Minute, true),
			handlers.License.ListViolationTypes,
		)
	}

	// ─── 5. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireJWT(authService),
		middleware.RequireRole(model.RoleAdmin),
	)
	{
		adminAPI.GET("/questions", handlers.Question.ListQuestions)
		adminAPI.GET("/questions/:id", handlers.Question.GetQuestion)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)

		adminAPI.GET("/exams", handlers.AdminExam.ListExams)
		adminAPI.POST("/exams/:exam_id/approve", handlers.AdminExam.ApproveExam)
		adminAPI.POST("/exams/:exam_id/cancel", handlers.AdminExam.CancelExam)
		adminAPI.GET("/examiners/workload", handlers.AdminExam.ExaminerWorkload)
	}

	return router
}
