package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

const defaultSelectionLimit = 5

// ScoredResource is one ranked candidate returned by selection.
type ScoredResource struct {
	Resource *types.Resource `json:"resource"`
	Score    float64         `json:"score"`
}

// RelevanceService ranks topic-linked resources for a tenant. Visibility is
// filtered before ranking so a private resource can never influence another
// tenant's selection, not even as a discarded candidate.
type RelevanceService interface {
	SelectForTopic(ctx context.Context, tenantID, topicID uuid.UUID, limit int) ([]ScoredResource, error)
	LinkResource(ctx context.Context, topicID, resourceID uuid.UUID, score float64, origin types.LinkOrigin) error
	RecordContribution(ctx context.Context, topicID, resourceID uuid.UUID, weight float64) error
}

type relevanceService struct {
	log *logger.Logger

	resourceRepo repos.ResourceRepo
	topicLinks   repos.TopicLinkRepo
}

func NewRelevanceService(
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	topicLinks repos.TopicLinkRepo,
) RelevanceService {
	return &relevanceService{
		log:          baseLog.With("service", "RelevanceService"),
		resourceRepo: resourceRepo,
		topicLinks:   topicLinks,
	}
}

func (s *relevanceService) SelectForTopic(ctx context.Context, tenantID, topicID uuid.UUID, limit int) ([]ScoredResource, error) {
	if limit <= 0 {
		limit = defaultSelectionLimit
	}
	dbc := dbctx.New(ctx)

	links, err := s.topicLinks.ListByTopic(dbc, topicID)
	if err != nil {
		return nil, fmt.Errorf("list topic links: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	visible, err := s.resourceRepo.ListVisibleToTenant(dbc, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list visible resources: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Resource, len(visible))
	for _, r := range visible {
		byID[r.ID] = r
	}

	candidates := make([]ScoredResource, 0, len(links))
	for _, link := range links {
		r, ok := byID[link.ResourceID]
		if !ok {
			continue
		}
		score := link.RelevanceScore
		// Syllabus documents define the topic; they always rank first.
		if r.ResourceType == types.TypeSyllabus {
			score = 1.0
		}
		candidates = append(candidates, ScoredResource{Resource: r, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return types.TypePriority(candidates[i].Resource.ResourceType) <
			types.TypePriority(candidates[j].Resource.ResourceType)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *relevanceService) LinkResource(ctx context.Context, topicID, resourceID uuid.UUID, score float64, origin types.LinkOrigin) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("relevance score must be in [0,1], got %v", score)
	}
	now := time.Now().UTC()
	return s.topicLinks.Upsert(dbctx.New(ctx), &types.TopicResourceLink{
		ID:             uuid.New(),
		TopicID:        topicID,
		ResourceID:     resourceID,
		RelevanceScore: score,
		Origin:         origin,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

// RecordContribution stores the weight generation reports after actually
// consuming a resource; feedback for future ranking.
func (s *relevanceService) RecordContribution(ctx context.Context, topicID, resourceID uuid.UUID, weight float64) error {
	if weight < 0 || weight > 1 {
		return fmt.Errorf("contribution weight must be in [0,1], got %v", weight)
	}
	return s.topicLinks.SetContributionWeight(dbctx.New(ctx), topicID, resourceID, weight)
}
