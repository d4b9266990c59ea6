package app

import (
	httpH "github.com/studyarc/resourcebank-backend/internal/http/handlers"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type Handlers struct {
	Resource   *httpH.ResourceHandler
	Topic      *httpH.TopicHandler
	Moderation *httpH.ModerationHandler
	Sync       *httpH.SyncHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, r Repos, s Services) Handlers {
	h := Handlers{
		Resource:   httpH.NewResourceHandler(log, s.Ingestion, s.Cache, s.Jobs, r.Resources),
		Topic:      httpH.NewTopicHandler(log, s.Relevance, s.Explanations, s.Cache),
		Moderation: httpH.NewModerationHandler(log, s.Moderation),
		Health:     httpH.NewHealthHandler(),
	}
	if s.Sync != nil {
		h.Sync = httpH.NewSyncHandler(log, s.Sync, s.Backup)
	}
	return h
}
