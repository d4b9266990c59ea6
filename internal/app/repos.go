package app

import (
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type Repos struct {
	Resources    repos.ResourceRepo
	Explanations repos.ExplanationRepo
	TopicLinks   repos.TopicLinkRepo
	Quotas       repos.QuotaRepo
	SyncRuns     repos.SyncRunRepo
	JobRuns      repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Resources:    repos.NewResourceRepo(db, log),
		Explanations: repos.NewExplanationRepo(db, log),
		TopicLinks:   repos.NewTopicLinkRepo(db, log),
		Quotas:       repos.NewQuotaRepo(db, log),
		SyncRuns:     repos.NewSyncRunRepo(db, log),
		JobRuns:      repos.NewJobRunRepo(db, log),
	}
}
