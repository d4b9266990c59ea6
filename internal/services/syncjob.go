package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/clients/catalog"
	"github.com/studyarc/resourcebank-backend/internal/clients/redis"
	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

const syncLockName = "catalog-sync"

// SyncService runs the differential catalog sync: list the remote catalog,
// skip entries whose signature we already hold, ingest the rest as official
// content, and supersede changed versions. A redis lease guarantees at most
// one run at a time across processes; starting while one runs is an error,
// never a queued second run.
type SyncService interface {
	Trigger(ctx context.Context) (*types.SyncRun, error)
	Status(ctx context.Context) (*types.SyncRun, error)
	StartScheduler(ctx context.Context, interval time.Duration)
}

type syncService struct {
	db  *gorm.DB
	log *logger.Logger

	source       catalog.Source
	locks        redis.LockService
	resourceRepo repos.ResourceRepo
	topicLinks   repos.TopicLinkRepo
	syncRuns     repos.SyncRunRepo
	ingestion    IngestionService
	localFiles   LocalFileStore

	lockTTL      time.Duration
	listAttempts int
	listDelay    time.Duration
	concurrency  int
}

func NewSyncService(
	db *gorm.DB,
	baseLog *logger.Logger,
	source catalog.Source,
	locks redis.LockService,
	resourceRepo repos.ResourceRepo,
	topicLinks repos.TopicLinkRepo,
	syncRuns repos.SyncRunRepo,
	ingestion IngestionService,
	localFiles LocalFileStore,
	lockTTL time.Duration,
	listDelay time.Duration,
	concurrency int,
) SyncService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &syncService{
		db:           db,
		log:          baseLog.With("service", "SyncService"),
		source:       source,
		locks:        locks,
		resourceRepo: resourceRepo,
		topicLinks:   topicLinks,
		syncRuns:     syncRuns,
		ingestion:    ingestion,
		localFiles:   localFiles,
		lockTTL:      lockTTL,
		listAttempts: 3,
		listDelay:    listDelay,
		concurrency:  concurrency,
	}
}

func (s *syncService) Trigger(ctx context.Context) (*types.SyncRun, error) {
	token := uuid.NewString()
	ok, err := s.locks.Acquire(ctx, syncLockName, token, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, types.ErrSyncRunning
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), syncLockName, token); err != nil {
			s.log.Error("sync lock release failed", "error", err)
		}
	}()

	// Runs may outlast the lease TTL, so the lease is renewed for the whole
	// duration of the run.
	renewCtx, stopRenew := context.WithCancel(ctx)
	defer stopRenew()
	go s.renewLease(renewCtx, token)

	dbc := dbctx.New(ctx)
	run := &types.SyncRun{
		ID:        uuid.New(),
		Source:    s.source.Name(),
		Status:    types.SyncStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.syncRuns.Create(dbc, run); err != nil {
		return nil, fmt.Errorf("record sync run: %w", err)
	}

	downloaded, skipped, failed, runErr := s.execute(ctx)

	status := types.SyncStatusSucceeded
	errMsg := ""
	if runErr != nil {
		status = types.SyncStatusFailed
		errMsg = runErr.Error()
	}
	if err := s.syncRuns.Finish(dbc, run.ID, status, downloaded, skipped, failed, errMsg); err != nil {
		s.log.Error("finish sync run failed", "error", err)
	}
	run.Status = status
	run.Downloaded = downloaded
	run.Skipped = skipped
	run.Failed = failed
	run.Error = errMsg

	s.log.Info("sync run finished",
		"source", run.Source, "status", status,
		"downloaded", downloaded, "skipped", skipped, "failed", failed)
	return run, runErr
}

func (s *syncService) renewLease(ctx context.Context, token string) {
	interval := s.lockTTL / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := s.locks.Extend(ctx, syncLockName, token, s.lockTTL)
			if err != nil {
				s.log.Warn("sync lease renewal failed", "error", err)
				continue
			}
			if !ok {
				s.log.Error("sync lease expired mid-run, mutual exclusion lost")
				return
			}
		}
	}
}

func (s *syncService) execute(ctx context.Context) (downloaded, skipped, failed int, err error) {
	entries, err := s.listWithRetry(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, entry := range entries {
		entry := entry
		if entry.Identifier == "" || entry.DownloadURL == "" {
			mu.Lock()
			failed++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			outcome, err := s.syncEntry(gctx, entry)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				// One bad entry never aborts the run.
				failed++
				s.log.Error("sync entry failed", "identifier", entry.Identifier, "error", err)
			case outcome:
				downloaded++
			default:
				skipped++
			}
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		return downloaded, skipped, failed, werr
	}
	if ctx.Err() != nil {
		return downloaded, skipped, failed, ctx.Err()
	}
	return downloaded, skipped, failed, nil
}

// listWithRetry retries the whole catalog listing; a partial listing could
// silently skip entries, so only a complete response counts.
func (s *syncService) listWithRetry(ctx context.Context) ([]catalog.Entry, error) {
	var lastErr error
	for attempt := 1; attempt <= s.listAttempts; attempt++ {
		entries, err := s.source.List(ctx)
		if err == nil {
			return entries, nil
		}
		lastErr = err
		s.log.Warn("catalog listing failed", "attempt", attempt, "error", err)
		if attempt < s.listAttempts {
			select {
			case <-time.After(s.listDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("catalog listing exhausted %d attempts: %w", s.listAttempts, lastErr)
}

// syncEntry returns true when the entry was downloaded and ingested, false
// when the local copy was already current.
func (s *syncService) syncEntry(ctx context.Context, entry catalog.Entry) (bool, error) {
	existing, err := s.resourceRepo.GetByCatalogID(dbctx.New(ctx), entry.Identifier)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", entry.Identifier, err)
	}
	if existing != nil && entry.Signature != "" && existing.Signature == entry.Signature {
		return false, nil
	}

	data, err := s.source.Download(ctx, entry)
	if err != nil {
		return false, err
	}
	signature := ContentSignature(data)
	if existing != nil && existing.Signature == signature {
		// Catalog omitted or changed the advertised signature but the bytes
		// are the ones we already hold.
		return false, nil
	}

	resource, err := s.ingestion.Submit(ctx, SubmitInput{
		Data:         data,
		ResourceType: entryType(entry.Kind),
		OwnerID:      nil,
		Metadata: map[string]any{
			"title":      entry.Title,
			"source_url": entry.DownloadURL,
		},
		CatalogID: entry.Identifier,
	})
	if err != nil {
		return false, fmt.Errorf("ingest %s: %w", entry.Identifier, err)
	}

	if existing != nil {
		if err := s.supersede(ctx, existing, resource.ID); err != nil {
			return true, fmt.Errorf("supersede %s: %w", entry.Identifier, err)
		}
	}
	return true, nil
}

// supersede re-points topic links at the replacement, then removes the old
// version from every tier. Links first so they never dangle.
func (s *syncService) supersede(ctx context.Context, old *types.Resource, newID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := s.topicLinks.RepointResource(dbc, old.ID, newID); err != nil {
			return fmt.Errorf("repoint links: %w", err)
		}
		return s.resourceRepo.DeleteByID(dbc, old.ID)
	})
	if err != nil {
		return err
	}
	if err := s.localFiles.Remove(old.LocalPath); err != nil {
		s.log.Warn("superseded file removal failed", "path", old.LocalPath, "error", err)
	}
	s.log.Info("resource superseded", "catalog_id", old.CatalogID, "old", old.ID, "new", newID)
	return nil
}

func entryType(kind string) types.ResourceType {
	switch kind {
	case "syllabus":
		return types.TypeSyllabus
	case "mark_scheme":
		return types.TypeMarkScheme
	case "textbook_excerpt":
		return types.TypeTextbookExcerpt
	default:
		return types.TypePastPaper
	}
}

func (s *syncService) Status(ctx context.Context) (*types.SyncRun, error) {
	run, err := s.syncRuns.Latest(dbctx.New(ctx), s.source.Name())
	if err != nil {
		return nil, err
	}
	if run == nil {
		// No run yet recorded for this source.
		return &types.SyncRun{Source: s.source.Name(), Status: types.SyncStatusIdle}, nil
	}
	return run, nil
}

// StartScheduler triggers a sync every interval until the context ends.
// ErrSyncRunning just means another process got there first.
func (s *syncService) StartScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Trigger(ctx); err != nil && err != types.ErrSyncRunning {
					s.log.Error("scheduled sync failed", "error", err)
				}
			}
		}
	}()
}
