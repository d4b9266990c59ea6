package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/clients/gcp"
	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/apierr"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// PageRenderer is the external PDF-render collaborator used for moderation
// previews.
type PageRenderer interface {
	RenderPages(ctx context.Context, data []byte, maxPages int) ([][]byte, error)
}

// ModerationService drives the one-way state machine for tenant uploads:
// pending_review to public, or pending_review to gone. Neither transition can
// be undone.
type ModerationService interface {
	ListPending(ctx context.Context) ([]*types.Resource, error)
	Approve(ctx context.Context, resourceID uuid.UUID, metadataEdits map[string]any) (*types.Resource, error)
	Reject(ctx context.Context, resourceID uuid.UUID) error
	Preview(ctx context.Context, resourceID uuid.UUID, maxPages int) ([][]byte, error)
}

type moderationService struct {
	db  *gorm.DB
	log *logger.Logger

	resourceRepo repos.ResourceRepo
	topicLinks   repos.TopicLinkRepo
	quotaGuard   QuotaGuard
	localFiles   LocalFileStore
	bucket       gcp.BucketService
	renderer     PageRenderer
}

func NewModerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	topicLinks repos.TopicLinkRepo,
	quotaGuard QuotaGuard,
	localFiles LocalFileStore,
	bucket gcp.BucketService,
	renderer PageRenderer,
) ModerationService {
	return &moderationService{
		db:           db,
		log:          baseLog.With("service", "ModerationService"),
		resourceRepo: resourceRepo,
		topicLinks:   topicLinks,
		quotaGuard:   quotaGuard,
		localFiles:   localFiles,
		bucket:       bucket,
		renderer:     renderer,
	}
}

func (s *moderationService) ListPending(ctx context.Context) ([]*types.Resource, error) {
	return s.resourceRepo.ListPending(dbctx.New(ctx))
}

// Approve flips visibility to public, applies metadata edits in the same
// transaction and releases the owner's quota slot: once public, ownership no
// longer constrains the tenant.
func (s *moderationService) Approve(ctx context.Context, resourceID uuid.UUID, metadataEdits map[string]any) (*types.Resource, error) {
	var approved *types.Resource
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		resource, err := s.resourceRepo.GetByID(dbc, resourceID)
		if err != nil {
			return err
		}
		if resource == nil {
			return types.ErrNotFound
		}
		if resource.Visibility != types.VisibilityPendingReview || resource.ResourceType != types.TypeUserUpload {
			return types.ErrNotPending
		}

		var metaJSON []byte
		if len(metadataEdits) > 0 {
			meta := map[string]any{}
			if len(resource.Metadata) > 0 {
				_ = json.Unmarshal(resource.Metadata, &meta)
			}
			for k, v := range metadataEdits {
				meta[k] = v
			}
			metaJSON, _ = json.Marshal(meta)
		}

		if err := s.resourceRepo.UpdateVisibilityAndMetadata(dbc, resourceID, types.VisibilityPublic, metaJSON); err != nil {
			return fmt.Errorf("approve: %w", err)
		}
		if resource.OwnerID != nil {
			if err := s.quotaGuard.Release(dbc, *resource.OwnerID); err != nil {
				return fmt.Errorf("release quota: %w", err)
			}
		}

		approved, err = s.resourceRepo.GetByID(dbc, resourceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("resource approved", "resource_id", resourceID)
	return approved, nil
}

// Reject deletes the row and the file together. No soft delete: after this
// the resource is gone from every tier.
func (s *moderationService) Reject(ctx context.Context, resourceID uuid.UUID) error {
	var localPath, remoteKey string
	var ownerID *uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		resource, err := s.resourceRepo.GetByID(dbc, resourceID)
		if err != nil {
			return err
		}
		if resource == nil {
			return types.ErrNotFound
		}
		if resource.Visibility != types.VisibilityPendingReview || resource.ResourceType != types.TypeUserUpload {
			return types.ErrNotPending
		}
		localPath = resource.LocalPath
		remoteKey = resource.RemoteKey
		ownerID = resource.OwnerID

		if err := s.topicLinks.DeleteByResource(dbc, resourceID); err != nil {
			return fmt.Errorf("delete topic links: %w", err)
		}
		if err := s.resourceRepo.DeleteByID(dbc, resourceID); err != nil {
			return fmt.Errorf("delete resource: %w", err)
		}
		if ownerID != nil {
			if err := s.quotaGuard.Release(dbc, *ownerID); err != nil {
				return fmt.Errorf("release quota: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.localFiles.Remove(localPath); err != nil {
		s.log.Error("reject: local file removal failed", "path", localPath, "error", err)
	}
	if remoteKey != "" && s.bucket != nil {
		if err := s.bucket.Delete(ctx, remoteKey); err != nil {
			s.log.Warn("reject: remote object removal failed", "remote_key", remoteKey, "error", err)
		}
	}
	s.log.Info("resource rejected", "resource_id", resourceID)
	return nil
}

// Preview renders the first pages of a pending upload. Available only while
// the resource is still pending_review.
func (s *moderationService) Preview(ctx context.Context, resourceID uuid.UUID, maxPages int) ([][]byte, error) {
	if s.renderer == nil {
		return nil, apierr.New(http.StatusNotImplemented, "preview_unavailable",
			fmt.Errorf("page renderer not configured"))
	}
	resource, err := s.resourceRepo.GetByID(dbctx.New(ctx), resourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, types.ErrNotFound
	}
	if resource.Visibility != types.VisibilityPendingReview {
		return nil, types.ErrNotPending
	}
	data, err := s.localFiles.Read(resource.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("read local file: %w", err)
	}
	return s.renderer.RenderPages(ctx, data, maxPages)
}
