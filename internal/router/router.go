package router

import (
	"net/http"
	"time"

	"github.com/biletnik/biletnik-backend/internal/config"
	"github.com/biletnik/biletnik-backend/internal/handler"
	"github.com/biletnik/biletnik-backend/internal/middleware"
	"github.com/biletnik/biletnik-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Student *handler.StudentHandler
	Subject *handler.SubjectHandler
	Work    *handler.WorkHandler
	Review  *handler.ReviewHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter on the draw route (10 draws per minute per IP).
	drawLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	{
		studentAPI.POST("/exams", drawLimiter.Middleware(), handlers.Student.Draw)
		studentAPI.GET("/exams/:session_id", handlers.Student.GetState)
		studentAPI.POST("/exams/:session_id/submit", handlers.Student.Submit)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/student/sessions/:session_id/stream", handlers.WS.SessionStream)
		ws.GET("/updates", handlers.WS.UpdatesStream)
	}

	// ─── 3. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	{
		subjectsGroup := adminAPI.Group("/subjects")
		{
			subjectsGroup.GET("", handlers.Subject.GetAll)
			subjectsGroup.POST("", handlers.Subject.Create)
			subjectsGroup.DELETE("/:index", handlers.Subject.Delete)
			subjectsGroup.POST("/:index/questions", handlers.Subject.AddQuestion)
			subjectsGroup.DELETE("/:index/questions/:question_index", handlers.Subject.DeleteQuestion)
		}

		worksGroup := adminAPI.Group("/works")
		{
			worksGroup.GET("", handlers.Work.GetAll)
			worksGroup.POST("/delete", handlers.Work.DeleteMany)
			worksGroup.GET("/report", handlers.Work.Report)
			worksGroup.GET("/archive/stats", handlers.Work.ArchiveStats)
		}
	}

	// ─── 4. Reviewer Group ─────────────────────────────────────────────
	reviewerAPI := router.Group("/api/v1/reviewer")
	{
		reviewerAPI.GET("/works", handlers.Review.GetAll)
		reviewerAPI.PUT("/works/:index/grade", handlers.Review.SaveGrade)
	}

	return router
}
