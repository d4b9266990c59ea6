package app

import (
	"github.com/studyarc/resourcebank-backend/internal/clients/catalog"
	"github.com/studyarc/resourcebank-backend/internal/clients/clamav"
	"github.com/studyarc/resourcebank-backend/internal/clients/gcp"
	"github.com/studyarc/resourcebank-backend/internal/clients/redis"
	"github.com/studyarc/resourcebank-backend/internal/platform/envutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type Clients struct {
	Bucket   gcp.BucketService
	Document gcp.Document
	Vision   gcp.Vision
	Speech   gcp.Speech
	Scanner  clamav.Scanner
	Locks    redis.LockService
	Catalog  catalog.Source
}

// wireClients builds external collaborators. The GCP clients are optional in
// development; a nil client downgrades the feature rather than blocking boot.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	var c Clients

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("bucket service unavailable, backups degraded", "error", err)
	}
	c.Bucket = bucket

	doc, err := gcp.NewDocument(log)
	if err != nil {
		log.Warn("documentai unavailable, extraction degraded", "error", err)
	}
	c.Document = doc

	vision, err := gcp.NewVision(log)
	if err != nil {
		log.Warn("vision unavailable, OCR fallback disabled", "error", err)
	}
	c.Vision = vision

	speech, err := gcp.NewSpeech(log)
	if err != nil {
		log.Warn("speech unavailable, transcripts disabled", "error", err)
	}
	c.Speech = speech

	if envutil.String("CLAMD_ADDR", "") != "" {
		c.Scanner = clamav.NewScanner(log)
	} else {
		log.Warn("CLAMD_ADDR unset, uploads are not scanned")
		c.Scanner = clamav.NoopScanner{}
	}

	locks, err := redis.NewLockService(log)
	if err != nil {
		return c, err
	}
	c.Locks = locks

	if cfg.CatalogListURL != "" {
		c.Catalog = catalog.NewHTTPSource(log, cfg.CatalogName, cfg.CatalogListURL)
	}
	return c, nil
}
