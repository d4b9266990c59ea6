package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
	"github.com/studyarc/resourcebank-backend/internal/services"
)

type Services struct {
	LocalFiles services.LocalFileStore
	Quota      services.QuotaGuard
	Jobs       services.JobService

	Ingestion    services.IngestionService
	Backup       services.BackupService
	Cache        services.CacheService
	Extraction   services.ExtractionService
	Transcripts  services.TranscriptService
	Moderation   services.ModerationService
	Relevance    services.RelevanceService
	Explanations services.ExplanationService
	Sync         services.SyncService

	JobWorker *services.JobWorker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	var s Services

	localFiles, err := services.NewLocalFileStore(log, cfg.LocalStoreRoot)
	if err != nil {
		return s, fmt.Errorf("init local file store: %w", err)
	}
	s.LocalFiles = localFiles

	s.Quota = services.NewQuotaGuard(log, r.Resources, r.Quotas, cfg.QuotaLimit)
	s.Jobs = services.NewJobService(log, r.JobRuns)

	s.Ingestion = services.NewIngestionService(db, log, r.Resources, s.Quota, s.Jobs, localFiles, c.Scanner)

	backup, err := services.NewBackupService(
		db, log, r.Resources, s.Jobs, localFiles, c.Bucket,
		cfg.BackupEncryptionKey, cfg.BackupMaxAttempts, cfg.BackupBaseBackoff,
	)
	if err != nil {
		return s, fmt.Errorf("init backup service: %w", err)
	}
	s.Backup = backup

	cache, err := services.NewCacheService(log, r.Resources, r.Explanations, localFiles, backup, cfg.CacheDir)
	if err != nil {
		return s, fmt.Errorf("init cache service: %w", err)
	}
	s.Cache = cache

	s.Transcripts = services.NewTranscriptService(log, r.Resources, localFiles, c.Speech)
	s.Extraction = services.NewExtractionService(
		db, log, r.Resources, localFiles, c.Document, c.Vision, s.Transcripts,
		cfg.ExtractionMinChars, cfg.ExtractionMaxAttempts, cfg.ExtractionBaseBackoff,
	)

	s.Moderation = services.NewModerationService(
		db, log, r.Resources, r.TopicLinks, s.Quota, localFiles, c.Bucket, nil,
	)
	s.Relevance = services.NewRelevanceService(log, r.Resources, r.TopicLinks)
	s.Explanations = services.NewExplanationService(db, log, r.Explanations)

	if c.Catalog != nil {
		s.Sync = services.NewSyncService(
			db, log, c.Catalog, c.Locks, r.Resources, r.TopicLinks, r.SyncRuns,
			s.Ingestion, localFiles,
			cfg.SyncLockTTL, cfg.SyncListDelay, cfg.SyncWorkers,
		)
	}

	s.JobWorker = services.NewJobWorker(log, r.JobRuns, s.Backup, s.Extraction, cfg.JobWorkers, cfg.JobPollInterval)
	return s, nil
}
