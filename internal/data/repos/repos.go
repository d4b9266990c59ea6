package repos

import (
	"gorm.io/gorm"

	jobsrepo "github.com/studyarc/resourcebank-backend/internal/data/repos/jobs"
	resourcesrepo "github.com/studyarc/resourcebank-backend/internal/data/repos/resources"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Facade aliases so services import a single repos package.

type (
	ResourceRepo    = resourcesrepo.ResourceRepo
	ExplanationRepo = resourcesrepo.ExplanationRepo
	TopicLinkRepo   = resourcesrepo.TopicLinkRepo
	QuotaRepo       = resourcesrepo.QuotaRepo
	SyncRunRepo     = resourcesrepo.SyncRunRepo
	JobRunRepo      = jobsrepo.JobRunRepo
)

func NewResourceRepo(db *gorm.DB, log *logger.Logger) ResourceRepo {
	return resourcesrepo.NewResourceRepo(db, log)
}

func NewExplanationRepo(db *gorm.DB, log *logger.Logger) ExplanationRepo {
	return resourcesrepo.NewExplanationRepo(db, log)
}

func NewTopicLinkRepo(db *gorm.DB, log *logger.Logger) TopicLinkRepo {
	return resourcesrepo.NewTopicLinkRepo(db, log)
}

func NewQuotaRepo(db *gorm.DB, log *logger.Logger) QuotaRepo {
	return resourcesrepo.NewQuotaRepo(db, log)
}

func NewSyncRunRepo(db *gorm.DB, log *logger.Logger) SyncRunRepo {
	return resourcesrepo.NewSyncRunRepo(db, log)
}

func NewJobRunRepo(db *gorm.DB, log *logger.Logger) JobRunRepo {
	return jobsrepo.NewJobRunRepo(db, log)
}
