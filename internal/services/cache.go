package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// CacheService is the read-through local cache. An entry is valid iff its
// signature matches the store's current signature; there are no TTLs and no
// invalidation messages. Losing the whole cache directory costs latency, not
// correctness.
type CacheService interface {
	Read(ctx context.Context, resourceID uuid.UUID) ([]byte, error)
	ReadExplanation(ctx context.Context, topicID uuid.UUID, version int, tenantID uuid.UUID, isAdmin bool) ([]byte, error)
}

type cacheService struct {
	log *logger.Logger

	resourceRepo    repos.ResourceRepo
	explanationRepo repos.ExplanationRepo
	localFiles      LocalFileStore
	backup          BackupService

	dir string
}

func NewCacheService(
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	explanationRepo repos.ExplanationRepo,
	localFiles LocalFileStore,
	backup BackupService,
	dir string,
) (CacheService, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &cacheService{
		log:             baseLog.With("service", "CacheService"),
		resourceRepo:    resourceRepo,
		explanationRepo: explanationRepo,
		localFiles:      localFiles,
		backup:          backup,
		dir:             dir,
	}, nil
}

func (s *cacheService) entryPath(kind, name string) string {
	return filepath.Join(s.dir, kind, name)
}

// readEntry returns cached bytes when the sidecar signature matches.
func (s *cacheService) readEntry(path, wantSignature string) ([]byte, bool) {
	sig, err := os.ReadFile(path + ".sig")
	if err != nil || string(sig) != wantSignature {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *cacheService) writeEntry(path, signature string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.log.Warn("cache write skipped", "path", path, "error", err)
		return
	}
	// Data first, signature last: a crash in between leaves a mismatched
	// entry that the next read treats as a miss.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("cache write failed", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path+".sig", []byte(signature), 0o644); err != nil {
		s.log.Warn("cache signature write failed", "path", path, "error", err)
	}
}

func (s *cacheService) Read(ctx context.Context, resourceID uuid.UUID) ([]byte, error) {
	resource, err := s.resourceRepo.GetByID(dbctx.New(ctx), resourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, types.ErrNotFound
	}

	path := s.entryPath("resources", resourceID.String())
	if data, ok := s.readEntry(path, resource.Signature); ok {
		return data, nil
	}

	data, err := s.localFiles.Read(resource.LocalPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read primary copy: %w", err)
		}
		// Local tier lost the file; the remote backup rebuilds it.
		data, err = s.backup.Restore(ctx, resourceID)
		if err != nil {
			return nil, fmt.Errorf("restore from backup: %w", err)
		}
		if _, werr := s.localFiles.Write(resource.ResourceType, resource.ID, data); werr != nil {
			s.log.Warn("local rehydrate failed", "resource_id", resourceID, "error", werr)
		}
	}

	s.writeEntry(path, resource.Signature, data)
	return data, nil
}

func (s *cacheService) ReadExplanation(ctx context.Context, topicID uuid.UUID, version int, tenantID uuid.UUID, isAdmin bool) ([]byte, error) {
	e, err := s.explanationRepo.GetByTopicVersion(dbctx.New(ctx), topicID, version)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, types.ErrNotFound
	}
	// A personalized version reads as nonexistent to everyone but its owner.
	if e.OwnerID != nil && !isAdmin && *e.OwnerID != tenantID {
		return nil, types.ErrNotFound
	}

	path := s.entryPath("explanations", topicID.String()+"-v"+strconv.Itoa(version))
	if data, ok := s.readEntry(path, e.Signature); ok {
		return data, nil
	}

	data := []byte(e.Content)
	s.writeEntry(path, e.Signature, data)
	return data, nil
}
