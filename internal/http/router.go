package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/studyarc/resourcebank-backend/internal/http/handlers"
	httpMW "github.com/studyarc/resourcebank-backend/internal/http/middleware"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	ResourceHandler   *httpH.ResourceHandler
	TopicHandler      *httpH.TopicHandler
	ModerationHandler *httpH.ModerationHandler
	SyncHandler       *httpH.SyncHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Resources
		if cfg.ResourceHandler != nil {
			protected.POST("/resources/upload", cfg.ResourceHandler.Upload)
			protected.GET("/resources", cfg.ResourceHandler.List)
			protected.GET("/resources/:id", cfg.ResourceHandler.GetMetadata)
			protected.GET("/resources/:id/content", cfg.ResourceHandler.GetContent)
			protected.GET("/resources/:id/jobs", cfg.ResourceHandler.ListJobs)
			protected.DELETE("/resources/:id", cfg.ResourceHandler.Delete)
		}

		// Topics
		if cfg.TopicHandler != nil {
			protected.GET("/topics/:id/resources", cfg.TopicHandler.SelectResources)
			protected.POST("/topics/:id/links", cfg.TopicHandler.LinkResource)
			protected.POST("/topics/:id/contributions", cfg.TopicHandler.RecordContribution)
			protected.PUT("/topics/:id/explanations", cfg.TopicHandler.UpsertExplanation)
			protected.GET("/topics/:id/explanations/:version", cfg.TopicHandler.GetExplanation)
		}

		// Admin
		admin := protected.Group("/admin")
		{
			if cfg.AuthMiddleware != nil {
				admin.Use(cfg.AuthMiddleware.RequireAdmin())
			}
			if cfg.ModerationHandler != nil {
				admin.GET("/pending", cfg.ModerationHandler.ListPending)
				admin.POST("/resources/:id/approve", cfg.ModerationHandler.Approve)
				admin.POST("/resources/:id/reject", cfg.ModerationHandler.Reject)
				admin.GET("/resources/:id/preview", cfg.ModerationHandler.Preview)
			}
			if cfg.SyncHandler != nil {
				admin.POST("/sync/trigger", cfg.SyncHandler.Trigger)
				admin.GET("/sync/status", cfg.SyncHandler.Status)
				admin.POST("/backups/retry", cfg.SyncHandler.RetryFailedBackups)
			}
		}
	}

	return r
}
