package resources

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type TopicLinkRepo interface {
	Upsert(dbc dbctx.Context, link *types.TopicResourceLink) error
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.TopicResourceLink, error)
	RepointResource(dbc dbctx.Context, oldResourceID, newResourceID uuid.UUID) error
	DeleteByResource(dbc dbctx.Context, resourceID uuid.UUID) error
	SetContributionWeight(dbc dbctx.Context, topicID, resourceID uuid.UUID, weight float64) error
}

type topicLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicLinkRepo(db *gorm.DB, baseLog *logger.Logger) TopicLinkRepo {
	return &topicLinkRepo{db: db, log: baseLog.With("repo", "TopicLinkRepo")}
}

func (r *topicLinkRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *topicLinkRepo) Upsert(dbc dbctx.Context, link *types.TopicResourceLink) error {
	return r.conn(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "topic_id"}, {Name: "resource_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"relevance_score", "origin", "updated_at"}),
	}).Create(link).Error
}

func (r *topicLinkRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.TopicResourceLink, error) {
	var results []*types.TopicResourceLink
	err := r.conn(dbc).Where("topic_id = ?", topicID).Find(&results).Error
	return results, err
}

// RepointResource moves every link from a superseded official resource to its
// replacement so topic links never dangle across a sync supersession.
func (r *topicLinkRepo) RepointResource(dbc dbctx.Context, oldResourceID, newResourceID uuid.UUID) error {
	return r.conn(dbc).Model(&types.TopicResourceLink{}).
		Where("resource_id = ?", oldResourceID).
		Update("resource_id", newResourceID).Error
}

func (r *topicLinkRepo) DeleteByResource(dbc dbctx.Context, resourceID uuid.UUID) error {
	return r.conn(dbc).Where("resource_id = ?", resourceID).Delete(&types.TopicResourceLink{}).Error
}

func (r *topicLinkRepo) SetContributionWeight(dbc dbctx.Context, topicID, resourceID uuid.UUID, weight float64) error {
	return r.conn(dbc).Model(&types.TopicResourceLink{}).
		Where("topic_id = ? AND resource_id = ?", topicID, resourceID).
		Update("contribution_weight", weight).Error
}
