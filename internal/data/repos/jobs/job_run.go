package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, job *types.JobRun) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)
	ListByResource(dbc dbctx.Context, resourceID uuid.UUID) ([]*types.JobRun, error)
	CountByStatus(dbc dbctx.Context, status string) (int64, error)
	ClaimNextQueued(dbc dbctx.Context) (*types.JobRun, error)
	MarkSucceeded(dbc dbctx.Context, id uuid.UUID, result []byte) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, errMsg string) error
	Requeue(dbc dbctx.Context, id uuid.UUID) error
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{db: db, log: baseLog.With("repo", "JobRunRepo")}
}

func (r *jobRunRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *jobRunRepo) Create(dbc dbctx.Context, job *types.JobRun) error {
	return r.conn(dbc).Create(job).Error
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	var job types.JobRun
	err := r.conn(dbc).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRunRepo) ListByResource(dbc dbctx.Context, resourceID uuid.UUID) ([]*types.JobRun, error) {
	var results []*types.JobRun
	err := r.conn(dbc).Where("resource_id = ?", resourceID).Order("created_at ASC").Find(&results).Error
	return results, err
}

func (r *jobRunRepo) CountByStatus(dbc dbctx.Context, status string) (int64, error) {
	var count int64
	err := r.conn(dbc).Model(&types.JobRun{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ClaimNextQueued flips the oldest queued job to running. The guarded update
// makes the claim atomic; a concurrent worker that lost the race gets zero
// rows affected and reports no job.
func (r *jobRunRepo) ClaimNextQueued(dbc dbctx.Context) (*types.JobRun, error) {
	var job types.JobRun
	err := r.conn(dbc).
		Where("status = ?", types.JobStatusQueued).
		Order("created_at ASC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res := r.conn(dbc).Model(&types.JobRun{}).
		Where("id = ? AND status = ?", job.ID, types.JobStatusQueued).
		Updates(map[string]any{
			"status":    types.JobStatusRunning,
			"attempts":  gorm.Expr("attempts + 1"),
			"locked_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	job.Status = types.JobStatusRunning
	job.Attempts++
	job.LockedAt = &now
	return &job, nil
}

func (r *jobRunRepo) MarkSucceeded(dbc dbctx.Context, id uuid.UUID, result []byte) error {
	updates := map[string]any{"status": types.JobStatusSucceeded, "error": ""}
	if len(result) > 0 {
		updates["result"] = result
	}
	return r.conn(dbc).Model(&types.JobRun{}).Where("id = ?", id).Updates(updates).Error
}

func (r *jobRunRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, errMsg string) error {
	return r.conn(dbc).Model(&types.JobRun{}).Where("id = ?", id).Updates(map[string]any{
		"status": types.JobStatusFailed,
		"error":  errMsg,
	}).Error
}

func (r *jobRunRepo) Requeue(dbc dbctx.Context, id uuid.UUID) error {
	return r.conn(dbc).Model(&types.JobRun{}).Where("id = ?", id).Updates(map[string]any{
		"status":    types.JobStatusQueued,
		"locked_at": nil,
	}).Error
}
