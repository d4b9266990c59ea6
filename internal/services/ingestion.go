package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/clients/clamav"
	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type SubmitInput struct {
	Data         []byte
	ResourceType types.ResourceType
	// OwnerID nil means system/official content: public immediately, no quota,
	// no moderation.
	OwnerID   *uuid.UUID
	Metadata  map[string]any
	CatalogID string
}

// IngestionService is the synchronous upload path. Any failure aborts with no
// partial state: the local file and the database row are written as one
// logical unit. Backup and extraction are enqueued as job rows in the same
// transaction and never block or fail the caller.
type IngestionService interface {
	Submit(ctx context.Context, in SubmitInput) (*types.Resource, error)
	DeleteOwnUpload(ctx context.Context, tenantID, resourceID uuid.UUID) error
}

type ingestionService struct {
	db  *gorm.DB
	log *logger.Logger

	resourceRepo repos.ResourceRepo
	quotaGuard   QuotaGuard
	jobService   JobService
	localFiles   LocalFileStore
	scanner      clamav.Scanner
}

func NewIngestionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	quotaGuard QuotaGuard,
	jobService JobService,
	localFiles LocalFileStore,
	scanner clamav.Scanner,
) IngestionService {
	return &ingestionService{
		db:           db,
		log:          baseLog.With("service", "IngestionService"),
		resourceRepo: resourceRepo,
		quotaGuard:   quotaGuard,
		jobService:   jobService,
		localFiles:   localFiles,
		scanner:      scanner,
	}
}

func ContentSignature(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *ingestionService) Submit(ctx context.Context, in SubmitInput) (*types.Resource, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}
	if in.Metadata == nil {
		in.Metadata = map[string]any{}
	}
	if err := validateMetadata(in.ResourceType, in.Metadata); err != nil {
		return nil, err
	}
	// Tenant submissions always enter as user_upload: quota counting and the
	// moderation state machine key on that type.
	if in.OwnerID != nil && in.ResourceType != types.TypeUserUpload {
		return nil, fmt.Errorf("%w: tenant submissions must use resource type %q",
			types.ErrInvalidMetadata, types.TypeUserUpload)
	}

	signature := ContentSignature(in.Data)

	// Fast-path duplicate and quota checks before paying for the scan. The
	// authoritative checks are repeated inside the insert transaction.
	if in.OwnerID != nil {
		exists, err := s.resourceRepo.ExistsByOwnerSignature(dbctx.New(ctx), *in.OwnerID, signature)
		if err != nil {
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
		if exists {
			return nil, types.ErrDuplicateResource
		}
		if err := s.quotaGuard.Check(dbctx.New(ctx), *in.OwnerID); err != nil {
			return nil, err
		}
	}

	clean, err := s.scanner.Scan(ctx, in.Data)
	if err != nil {
		return nil, fmt.Errorf("virus scan: %w", err)
	}
	if !clean {
		s.log.Warn("upload rejected by scanner", "type", in.ResourceType, "size", len(in.Data))
		return nil, types.ErrUnsafeContent
	}

	id := uuid.New()
	localPath, err := s.localFiles.Write(in.ResourceType, id, in.Data)
	if err != nil {
		return nil, fmt.Errorf("local write: %w", err)
	}

	visibility := types.VisibilityPublic
	if in.OwnerID != nil {
		visibility = types.VisibilityPendingReview
	}

	metaJSON, _ := json.Marshal(in.Metadata)
	now := time.Now().UTC()
	resource := &types.Resource{
		ID:               id,
		ResourceType:     in.ResourceType,
		Visibility:       visibility,
		OwnerID:          in.OwnerID,
		Signature:        signature,
		LocalPath:        localPath,
		RemoteSyncStatus: types.RemoteSyncNotQueued,
		SizeBytes:        int64(len(in.Data)),
		CatalogID:        in.CatalogID,
		Metadata:         datatypes.JSON(metaJSON),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		if in.OwnerID != nil {
			exists, err := s.resourceRepo.ExistsByOwnerSignature(dbc, *in.OwnerID, signature)
			if err != nil {
				return fmt.Errorf("duplicate check: %w", err)
			}
			if exists {
				return types.ErrDuplicateResource
			}
			if err := s.quotaGuard.CheckAndConsume(dbc, *in.OwnerID); err != nil {
				return err
			}
		}

		if err := s.resourceRepo.Create(dbc, resource); err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}

		if _, err := s.jobService.Enqueue(dbc, types.JobTypeRemoteBackup, id, nil); err != nil {
			return fmt.Errorf("enqueue backup: %w", err)
		}
		if in.ResourceType.IsDocument() || in.ResourceType == types.TypeVideo {
			if _, err := s.jobService.Enqueue(dbc, types.JobTypeTextExtraction, id, nil); err != nil {
				return fmt.Errorf("enqueue extraction: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// The row never landed, so the local file must not persist either.
		if rmErr := s.localFiles.Remove(localPath); rmErr != nil {
			s.log.Error("orphan cleanup failed", "path", localPath, "error", rmErr)
		}
		return nil, err
	}

	s.log.Info("resource ingested",
		"resource_id", id, "type", in.ResourceType, "visibility", visibility, "size", len(in.Data))
	return resource, nil
}

// DeleteOwnUpload removes an unapproved upload and frees the quota slot.
// Approved (public) resources are no longer the tenant's to delete.
func (s *ingestionService) DeleteOwnUpload(ctx context.Context, tenantID, resourceID uuid.UUID) error {
	var localPath string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		resource, err := s.resourceRepo.GetByID(dbc, resourceID)
		if err != nil {
			return err
		}
		if resource == nil || resource.OwnerID == nil || *resource.OwnerID != tenantID {
			return types.ErrNotFound
		}
		if resource.Visibility == types.VisibilityPublic {
			return types.ErrNotFound
		}
		localPath = resource.LocalPath

		if err := s.resourceRepo.DeleteByID(dbc, resourceID); err != nil {
			return fmt.Errorf("delete resource: %w", err)
		}
		if err := s.quotaGuard.Release(dbc, tenantID); err != nil {
			return fmt.Errorf("release quota: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.localFiles.Remove(localPath); err != nil {
		s.log.Error("delete local file failed", "path", localPath, "error", err)
	}
	return nil
}
