package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// JobWorker polls for queued job rows and dispatches them. Claims go through
// a guarded update, so any number of workers across any number of processes
// can poll the same table without double-running a job.
type JobWorker struct {
	log *logger.Logger

	jobRuns    repos.JobRunRepo
	backup     BackupService
	extraction ExtractionService

	workers      int
	pollInterval time.Duration
}

func NewJobWorker(
	baseLog *logger.Logger,
	jobRuns repos.JobRunRepo,
	backup BackupService,
	extraction ExtractionService,
	workers int,
	pollInterval time.Duration,
) *JobWorker {
	if workers <= 0 {
		workers = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &JobWorker{
		log:          baseLog.With("service", "JobWorker"),
		jobRuns:      jobRuns,
		backup:       backup,
		extraction:   extraction,
		workers:      workers,
		pollInterval: pollInterval,
	}
}

// Start launches the worker goroutines and blocks until the context ends and
// in-flight jobs finish.
func (w *JobWorker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	w.log.Info("job workers started", "count", w.workers)
	wg.Wait()
}

func (w *JobWorker) loop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.jobRuns.ClaimNextQueued(dbctx.New(ctx))
		if err != nil {
			w.log.Error("claim failed", "worker", id, "error", err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
			continue
		}

		w.run(ctx, job)
	}
}

func (w *JobWorker) run(ctx context.Context, job *types.JobRun) {
	err := w.dispatch(ctx, job)
	dbc := dbctx.New(context.WithoutCancel(ctx))
	if err != nil {
		w.log.Error("job failed",
			"job_id", job.ID, "job_type", job.JobType, "resource_id", job.ResourceID,
			"attempt", job.Attempts, "error", err)
		if merr := w.jobRuns.MarkFailed(dbc, job.ID, err.Error()); merr != nil {
			w.log.Error("mark failed errored", "job_id", job.ID, "error", merr)
		}
		return
	}
	if merr := w.jobRuns.MarkSucceeded(dbc, job.ID, nil); merr != nil {
		w.log.Error("mark succeeded errored", "job_id", job.ID, "error", merr)
		return
	}
	w.log.Info("job done", "job_id", job.ID, "job_type", job.JobType, "resource_id", job.ResourceID)
}

func (w *JobWorker) dispatch(ctx context.Context, job *types.JobRun) error {
	switch job.JobType {
	case types.JobTypeRemoteBackup:
		return w.backup.Backup(ctx, job.ResourceID)
	case types.JobTypeTextExtraction:
		return w.extraction.Extract(ctx, job.ResourceID)
	default:
		return fmt.Errorf("unknown job type %q", job.JobType)
	}
}
