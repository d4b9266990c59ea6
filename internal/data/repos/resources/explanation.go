package resources

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type ExplanationRepo interface {
	Upsert(dbc dbctx.Context, e *types.GeneratedExplanation) error
	GetByTopicVersion(dbc dbctx.Context, topicID uuid.UUID, version int) (*types.GeneratedExplanation, error)
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.GeneratedExplanation, error)
}

type explanationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExplanationRepo(db *gorm.DB, baseLog *logger.Logger) ExplanationRepo {
	return &explanationRepo{db: db, log: baseLog.With("repo", "ExplanationRepo")}
}

func (r *explanationRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

// Upsert writes the single row for (topic_id, version), replacing content and
// signature when the row already exists.
func (r *explanationRepo) Upsert(dbc dbctx.Context, e *types.GeneratedExplanation) error {
	return r.conn(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "topic_id"}, {Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "signature", "updated_at"}),
	}).Create(e).Error
}

func (r *explanationRepo) GetByTopicVersion(dbc dbctx.Context, topicID uuid.UUID, version int) (*types.GeneratedExplanation, error) {
	var e types.GeneratedExplanation
	err := r.conn(dbc).Where("topic_id = ? AND version = ?", topicID, version).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *explanationRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.GeneratedExplanation, error) {
	var results []*types.GeneratedExplanation
	err := r.conn(dbc).Where("topic_id = ?", topicID).Order("version ASC").Find(&results).Error
	return results, err
}
