package resources

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type ResourceRepo interface {
	Create(dbc dbctx.Context, r *types.Resource) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Resource, error)
	GetByCatalogID(dbc dbctx.Context, catalogID string) (*types.Resource, error)
	ExistsByOwnerSignature(dbc dbctx.Context, ownerID uuid.UUID, signature string) (bool, error)
	CountUserUploadsByOwner(dbc dbctx.Context, ownerID uuid.UUID) (int64, error)
	ListPending(dbc dbctx.Context) ([]*types.Resource, error)
	ListVisibleToTenant(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.Resource, error)
	ListByRemoteSyncStatus(dbc dbctx.Context, status types.RemoteSyncStatus) ([]*types.Resource, error)
	UpdateRemoteSync(dbc dbctx.Context, id uuid.UUID, status types.RemoteSyncStatus, remoteKey string) error
	UpdateExtractedText(dbc dbctx.Context, id uuid.UUID, text string) error
	UpdateVisibilityAndMetadata(dbc dbctx.Context, id uuid.UUID, visibility types.Visibility, metadata []byte) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: baseLog.With("repo", "ResourceRepo")}
}

func (r *resourceRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *resourceRepo) Create(dbc dbctx.Context, res *types.Resource) error {
	return r.conn(dbc).Create(res).Error
}

func (r *resourceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Resource, error) {
	var res types.Resource
	err := r.conn(dbc).Where("id = ?", id).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepo) GetByCatalogID(dbc dbctx.Context, catalogID string) (*types.Resource, error) {
	var res types.Resource
	err := r.conn(dbc).Where("catalog_id = ?", catalogID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepo) ExistsByOwnerSignature(dbc dbctx.Context, ownerID uuid.UUID, signature string) (bool, error) {
	var count int64
	err := r.conn(dbc).Model(&types.Resource{}).
		Where("owner_id = ? AND signature = ?", ownerID, signature).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *resourceRepo) CountUserUploadsByOwner(dbc dbctx.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(dbc).Model(&types.Resource{}).
		Where("owner_id = ? AND resource_type = ?", ownerID, types.TypeUserUpload).
		Where("visibility <> ?", types.VisibilityPublic).
		Count(&count).Error
	return count, err
}

func (r *resourceRepo) ListPending(dbc dbctx.Context) ([]*types.Resource, error) {
	var results []*types.Resource
	err := r.conn(dbc).
		Where("visibility = ?", types.VisibilityPendingReview).
		Order("created_at ASC").
		Find(&results).Error
	return results, err
}

// ListVisibleToTenant returns public resources plus the tenant's own private
// and pending ones. Visibility is filtered here, never by the caller, so
// other tenants' non-public rows never leave the store.
func (r *resourceRepo) ListVisibleToTenant(dbc dbctx.Context, tenantID uuid.UUID) ([]*types.Resource, error) {
	var results []*types.Resource
	q := r.conn(dbc)
	if tenantID == uuid.Nil {
		q = q.Where("visibility = ?", types.VisibilityPublic)
	} else {
		q = q.Where("visibility = ? OR owner_id = ?", types.VisibilityPublic, tenantID)
	}
	err := q.Order("created_at DESC").Find(&results).Error
	return results, err
}

func (r *resourceRepo) ListByRemoteSyncStatus(dbc dbctx.Context, status types.RemoteSyncStatus) ([]*types.Resource, error) {
	var results []*types.Resource
	err := r.conn(dbc).Where("remote_sync_status = ?", status).Find(&results).Error
	return results, err
}

func (r *resourceRepo) UpdateRemoteSync(dbc dbctx.Context, id uuid.UUID, status types.RemoteSyncStatus, remoteKey string) error {
	updates := map[string]any{"remote_sync_status": status}
	if remoteKey != "" {
		updates["remote_key"] = remoteKey
	}
	return r.conn(dbc).Model(&types.Resource{}).Where("id = ?", id).Updates(updates).Error
}

func (r *resourceRepo) UpdateExtractedText(dbc dbctx.Context, id uuid.UUID, text string) error {
	return r.conn(dbc).Model(&types.Resource{}).Where("id = ?", id).
		Update("extracted_text", text).Error
}

func (r *resourceRepo) UpdateVisibilityAndMetadata(dbc dbctx.Context, id uuid.UUID, visibility types.Visibility, metadata []byte) error {
	updates := map[string]any{"visibility": visibility}
	if len(metadata) > 0 {
		updates["metadata"] = metadata
	}
	return r.conn(dbc).Model(&types.Resource{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteByID removes the row permanently. Rejection and supersession are hard
// deletes; the file tiers are cleaned up by the calling service.
func (r *resourceRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	return r.conn(dbc).Where("id = ?", id).Delete(&types.Resource{}).Error
}
