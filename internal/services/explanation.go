package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// ExplanationService stores versioned generated explanations. Version 1 is
// the canonical system instance; higher versions are tenant-personalized and
// writable only by the tenant that owns them.
type ExplanationService interface {
	UpsertCanonical(ctx context.Context, topicID uuid.UUID, content string) (*types.GeneratedExplanation, error)
	UpsertPersonalized(ctx context.Context, topicID, ownerID uuid.UUID, version int, content string) (*types.GeneratedExplanation, error)
	Get(ctx context.Context, topicID uuid.UUID, version int) (*types.GeneratedExplanation, error)
	ListVersions(ctx context.Context, topicID uuid.UUID) ([]*types.GeneratedExplanation, error)
}

type explanationService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.ExplanationRepo
}

func NewExplanationService(db *gorm.DB, baseLog *logger.Logger, repo repos.ExplanationRepo) ExplanationService {
	return &explanationService{
		db:   db,
		log:  baseLog.With("service", "ExplanationService"),
		repo: repo,
	}
}

func (s *explanationService) UpsertCanonical(ctx context.Context, topicID uuid.UUID, content string) (*types.GeneratedExplanation, error) {
	return s.upsert(ctx, topicID, nil, types.CanonicalVersion, content)
}

func (s *explanationService) UpsertPersonalized(ctx context.Context, topicID, ownerID uuid.UUID, version int, content string) (*types.GeneratedExplanation, error) {
	if version <= types.CanonicalVersion {
		return nil, fmt.Errorf("personalized version must be greater than %d", types.CanonicalVersion)
	}
	return s.upsert(ctx, topicID, &ownerID, version, content)
}

func (s *explanationService) upsert(ctx context.Context, topicID uuid.UUID, ownerID *uuid.UUID, version int, content string) (*types.GeneratedExplanation, error) {
	if content == "" {
		return nil, fmt.Errorf("empty explanation content")
	}
	now := time.Now().UTC()
	e := &types.GeneratedExplanation{
		ID:      uuid.New(),
		TopicID: topicID,
		Version: version,
		OwnerID: ownerID,
		Content: content,
		// Signature covers content and write time so an in-place regeneration
		// with identical text still invalidates cache entries.
		Signature: ContentSignature([]byte(content + now.Format(time.RFC3339Nano))),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		// A personalized version belongs to exactly one tenant. A write from
		// anyone else sees the slot as nonexistent, never as overwritable.
		if ownerID != nil {
			existing, err := s.repo.GetByTopicVersion(dbc, topicID, version)
			if err != nil {
				return err
			}
			if existing != nil && (existing.OwnerID == nil || *existing.OwnerID != *ownerID) {
				return types.ErrNotFound
			}
		}
		return s.repo.Upsert(dbc, e)
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("upsert explanation: %w", err)
	}
	s.log.Info("explanation stored", "topic_id", topicID, "version", version)
	return e, nil
}

func (s *explanationService) Get(ctx context.Context, topicID uuid.UUID, version int) (*types.GeneratedExplanation, error) {
	e, err := s.repo.GetByTopicVersion(dbctx.New(ctx), topicID, version)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, types.ErrNotFound
	}
	return e, nil
}

func (s *explanationService) ListVersions(ctx context.Context, topicID uuid.UUID) ([]*types.GeneratedExplanation, error) {
	return s.repo.ListByTopic(dbctx.New(ctx), topicID)
}
