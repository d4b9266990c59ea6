package resources

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type SyncRunRepo interface {
	Create(dbc dbctx.Context, run *types.SyncRun) error
	Finish(dbc dbctx.Context, id uuid.UUID, status types.SyncStatus, downloaded, skipped, failed int, errMsg string) error
	Latest(dbc dbctx.Context, source string) (*types.SyncRun, error)
}

type syncRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyncRunRepo(db *gorm.DB, baseLog *logger.Logger) SyncRunRepo {
	return &syncRunRepo{db: db, log: baseLog.With("repo", "SyncRunRepo")}
}

func (r *syncRunRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *syncRunRepo) Create(dbc dbctx.Context, run *types.SyncRun) error {
	return r.conn(dbc).Create(run).Error
}

func (r *syncRunRepo) Finish(dbc dbctx.Context, id uuid.UUID, status types.SyncStatus, downloaded, skipped, failed int, errMsg string) error {
	now := time.Now().UTC()
	return r.conn(dbc).Model(&types.SyncRun{}).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"downloaded":  downloaded,
		"skipped":     skipped,
		"failed":      failed,
		"error":       errMsg,
		"finished_at": now,
	}).Error
}

func (r *syncRunRepo) Latest(dbc dbctx.Context, source string) (*types.SyncRun, error) {
	var run types.SyncRun
	q := r.conn(dbc)
	if source != "" {
		q = q.Where("source = ?", source)
	}
	err := q.Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
