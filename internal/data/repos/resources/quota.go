package resources

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type QuotaRepo interface {
	Get(dbc dbctx.Context, tenantID uuid.UUID) (*types.TenantQuota, error)
	Increment(dbc dbctx.Context, tenantID uuid.UUID) error
	Decrement(dbc dbctx.Context, tenantID uuid.UUID) error
}

type quotaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuotaRepo(db *gorm.DB, baseLog *logger.Logger) QuotaRepo {
	return &quotaRepo{db: db, log: baseLog.With("repo", "QuotaRepo")}
}

func (r *quotaRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *quotaRepo) Get(dbc dbctx.Context, tenantID uuid.UUID) (*types.TenantQuota, error) {
	var q types.TenantQuota
	err := r.conn(dbc).Where("tenant_id = ?", tenantID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotaRepo) Increment(dbc dbctx.Context, tenantID uuid.UUID) error {
	now := time.Now().UTC()
	return r.conn(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.Assignments(map[string]any{"used": gorm.Expr("tenant_quota.used + 1"), "updated_at": now}),
	}).Create(&types.TenantQuota{TenantID: tenantID, Used: 1, CreatedAt: now, UpdatedAt: now}).Error
}

func (r *quotaRepo) Decrement(dbc dbctx.Context, tenantID uuid.UUID) error {
	return r.conn(dbc).Model(&types.TenantQuota{}).
		Where("tenant_id = ? AND used > 0", tenantID).
		Updates(map[string]any{"used": gorm.Expr("used - 1"), "updated_at": time.Now().UTC()}).Error
}
