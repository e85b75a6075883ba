package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/fieldlog-backend/internal/http/handlers"
	"github.com/yungbote/fieldlog-backend/internal/http/middleware"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	JobHandler   *handlers.JobHandler
	CodexHandler *handlers.CodexHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Jobs
		api.POST("/jobs", cfg.JobHandler.Create)
		api.GET("/jobs", cfg.JobHandler.List)
		api.GET("/jobs/:id", cfg.JobHandler.Get)
		api.POST("/jobs/:id/pause", cfg.JobHandler.Pause)
		api.POST("/jobs/:id/resume", cfg.JobHandler.Resume)
		api.POST("/jobs/:id/cancel", cfg.JobHandler.Cancel)

		// Maintenance
		api.POST("/jobs/maintenance/recover-stalled", cfg.JobHandler.RecoverStalled)
		api.POST("/jobs/maintenance/pause-all", cfg.JobHandler.PauseAll)
		api.POST("/jobs/maintenance/cancel-all", cfg.JobHandler.CancelAll)

		// Summaries
		api.GET("/summaries", cfg.CodexHandler.ListSummaries)
		api.GET("/summaries/:id", cfg.CodexHandler.GetSummary)
		api.DELETE("/summaries/:id", cfg.CodexHandler.DeleteSummary)

		// Audio logs
		api.GET("/audio", cfg.CodexHandler.ListAudioLogs)
		api.GET("/audio/:id", cfg.CodexHandler.GetAudioLog)
		api.DELETE("/audio/:id", cfg.CodexHandler.DeleteAudioLog)

		// Prompt overrides
		api.GET("/prompts/:type", cfg.CodexHandler.GetPrompt)
		api.PUT("/prompts/:type", cfg.CodexHandler.SetPrompt)
		api.DELETE("/prompts/:type", cfg.CodexHandler.DeletePrompt)
	}

	return router
}
