package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// LocalFileStore owns the local disk tier. Only the ingestion pipeline and
// the cache manager write through it; paths are derived from resource type
// and id so the tree stays rebuildable from the database.
type LocalFileStore interface {
	Write(resourceType types.ResourceType, id uuid.UUID, data []byte) (string, error)
	Read(path string) ([]byte, error)
	Remove(path string) error
	PathFor(resourceType types.ResourceType, id uuid.UUID) string
}

type localFileStore struct {
	log  *logger.Logger
	root string
}

func NewLocalFileStore(baseLog *logger.Logger, root string) (LocalFileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local file store root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create local store root: %w", err)
	}
	return &localFileStore{
		log:  baseLog.With("service", "LocalFileStore"),
		root: root,
	}, nil
}

func (s *localFileStore) PathFor(resourceType types.ResourceType, id uuid.UUID) string {
	return filepath.Join(s.root, string(resourceType), id.String())
}

func (s *localFileStore) Write(resourceType types.ResourceType, id uuid.UUID, data []byte) (string, error) {
	path := s.PathFor(resourceType, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", path, err)
	}
	// Write to a temp name then rename so a crash never leaves a torn file at
	// the canonical path.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return path, nil
}

func (s *localFileStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *localFileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
