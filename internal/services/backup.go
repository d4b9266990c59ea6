package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/secretbox"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/clients/gcp"
	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// BackupService copies resources to the remote object store. Blobs are
// secretbox-encrypted before transfer; plaintext never crosses the boundary.
// Remote-store unavailability never blocks ingestion or reads: a resource
// whose backup exhausts its retry budget is left remote_sync_status=failed
// and keeps serving from the local tier.
type BackupService interface {
	Backup(ctx context.Context, resourceID uuid.UUID) error
	Restore(ctx context.Context, resourceID uuid.UUID) ([]byte, error)
	BatchRetry(ctx context.Context) (int, error)
}

type backupService struct {
	db  *gorm.DB
	log *logger.Logger

	resourceRepo repos.ResourceRepo
	jobService   JobService
	localFiles   LocalFileStore
	bucket       gcp.BucketService

	key         [32]byte
	maxAttempts int
	baseBackoff time.Duration
}

func NewBackupService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	jobService JobService,
	localFiles LocalFileStore,
	bucket gcp.BucketService,
	encryptionKey string,
	maxAttempts int,
	baseBackoff time.Duration,
) (BackupService, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(encryptionKey)
	if err != nil || len(keyBytes) != 32 {
		return nil, fmt.Errorf("backup encryption key must be 32 bytes base64")
	}
	s := &backupService{
		db:           db,
		log:          baseLog.With("service", "BackupService"),
		resourceRepo: resourceRepo,
		jobService:   jobService,
		localFiles:   localFiles,
		bucket:       bucket,
		maxAttempts:  maxAttempts,
		baseBackoff:  baseBackoff,
	}
	copy(s.key[:], keyBytes)
	return s, nil
}

func (s *backupService) seal(plaintext []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *backupService) open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 24 {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])
	plaintext, ok := secretbox.Open(nil, ciphertext[24:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("decrypt failed")
	}
	return plaintext, nil
}

func (s *backupService) Backup(ctx context.Context, resourceID uuid.UUID) error {
	dbc := dbctx.New(ctx)
	resource, err := s.resourceRepo.GetByID(dbc, resourceID)
	if err != nil {
		return fmt.Errorf("load resource: %w", err)
	}
	if resource == nil {
		// Deleted between enqueue and execution; nothing to do.
		return nil
	}
	if resource.RemoteSyncStatus == types.RemoteSyncSucceeded {
		return nil
	}
	if s.bucket == nil {
		if err := s.resourceRepo.UpdateRemoteSync(dbc, resourceID, types.RemoteSyncFailed, resource.RemoteKey); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		return fmt.Errorf("remote store not configured")
	}

	data, err := s.localFiles.Read(resource.LocalPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}

	sealed, err := s.seal(data)
	if err != nil {
		return err
	}

	remoteKey := resource.RemoteKey
	if remoteKey == "" {
		remoteKey = "backups/" + uuid.NewString()
	}

	if err := s.resourceRepo.UpdateRemoteSync(dbc, resourceID, types.RemoteSyncPending, remoteKey); err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		putCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		lastErr = s.bucket.Put(putCtx, remoteKey, bytes.NewReader(sealed))
		cancel()
		if lastErr == nil {
			if err := s.resourceRepo.UpdateRemoteSync(dbc, resourceID, types.RemoteSyncSucceeded, remoteKey); err != nil {
				return fmt.Errorf("mark succeeded: %w", err)
			}
			s.log.Info("backup complete", "resource_id", resourceID, "remote_key", remoteKey, "attempts", attempt)
			return nil
		}
		s.log.Warn("backup attempt failed",
			"resource_id", resourceID, "attempt", attempt, "error", lastErr)
		if attempt < s.maxAttempts {
			select {
			case <-time.After(s.baseBackoff << (attempt - 1)):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = s.maxAttempts
			}
		}
	}

	if err := s.resourceRepo.UpdateRemoteSync(dbc, resourceID, types.RemoteSyncFailed, remoteKey); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return fmt.Errorf("backup exhausted %d attempts: %w", s.maxAttempts, lastErr)
}

// Restore fetches and decrypts the remote copy; used when the local tier has
// lost a file the database still knows about.
func (s *backupService) Restore(ctx context.Context, resourceID uuid.UUID) ([]byte, error) {
	dbc := dbctx.New(ctx)
	resource, err := s.resourceRepo.GetByID(dbc, resourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, types.ErrNotFound
	}
	if resource.RemoteKey == "" || resource.RemoteSyncStatus != types.RemoteSyncSucceeded {
		return nil, fmt.Errorf("no remote copy for resource %s", resourceID)
	}
	if s.bucket == nil {
		return nil, fmt.Errorf("remote store not configured")
	}

	rc, err := s.bucket.Get(ctx, resource.RemoteKey)
	if err != nil {
		return nil, fmt.Errorf("fetch remote copy: %w", err)
	}
	defer rc.Close()
	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read remote copy: %w", err)
	}
	return s.open(sealed)
}

// BatchRetry re-queues a backup job for every resource stuck in failed.
// Invoked by operators or on a schedule.
func (s *backupService) BatchRetry(ctx context.Context) (int, error) {
	dbc := dbctx.New(ctx)
	failed, err := s.resourceRepo.ListByRemoteSyncStatus(dbc, types.RemoteSyncFailed)
	if err != nil {
		return 0, fmt.Errorf("list failed backups: %w", err)
	}
	requeued := 0
	for _, r := range failed {
		if _, err := s.jobService.Enqueue(dbc, types.JobTypeRemoteBackup, r.ID, map[string]any{"batch_retry": true}); err != nil {
			s.log.Error("batch retry enqueue failed", "resource_id", r.ID, "error", err)
			continue
		}
		requeued++
	}
	s.log.Info("batch retry queued", "count", requeued)
	return requeued, nil
}
