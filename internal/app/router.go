package app

import (
	"github.com/gin-gonic/gin"

	resthttp "github.com/studyarc/resourcebank-backend/internal/http"
)

func wireRouter(cfg Config, h Handlers, mw Middleware) *gin.Engine {
	return resthttp.NewRouter(resthttp.RouterConfig{
		ServiceName: "resourcebank",
		CORSOrigins: cfg.CORSOrigins,

		AuthMiddleware: mw.Auth,

		ResourceHandler:   h.Resource,
		TopicHandler:      h.Topic,
		ModerationHandler: h.Moderation,
		SyncHandler:       h.Sync,
		HealthHandler:     h.Health,
	})
}
