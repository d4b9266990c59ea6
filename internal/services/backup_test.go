package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"testing"
	"time"

	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
)

var testEncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))

func newBackupForTest(t *testing.T, env *testEnv, bucket *fakeBucket, maxAttempts int) BackupService {
	t.Helper()
	b, err := NewBackupService(
		env.db, testutil.Logger(t), env.resources, env.jobs, env.localFiles, bucket,
		testEncryptionKey, maxAttempts, time.Millisecond,
	)
	if err != nil {
		t.Fatalf("backup service: %v", err)
	}
	return b
}

func TestBackupRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	ctx := context.Background()

	data := []byte("paper bytes to protect")
	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypePastPaper})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := backup.Backup(ctx, resource.ID); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	stored, err := env.resources.GetByID(dbctx.New(ctx), resource.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.RemoteSyncStatus != types.RemoteSyncSucceeded || stored.RemoteKey == "" {
		t.Fatalf("expected succeeded with remote key, got %+v", stored)
	}

	// The stored object must be ciphertext, never the raw bytes.
	obj := bucket.objects[stored.RemoteKey]
	if len(obj) == 0 || bytes.Contains(obj, data) {
		t.Fatal("remote object must be encrypted")
	}

	restored, err := backup.Restore(ctx, resource.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !bytes.Equal(restored, data) {
		t.Fatal("restore must return the original bytes")
	}
}

func TestBackupRetriesTransientFailures(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	bucket.failPuts = 2
	backup := newBackupForTest(t, env, bucket, 3)
	ctx := context.Background()

	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: []byte("flaky store"), ResourceType: types.TypePastPaper})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := backup.Backup(ctx, resource.ID); err != nil {
		t.Fatalf("Backup should succeed on third attempt: %v", err)
	}
	if bucket.putCalls != 3 {
		t.Fatalf("expected 3 put attempts, got %d", bucket.putCalls)
	}
}

func TestBackupExhaustionDegradesGracefully(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	bucket.failPuts = 10
	backup := newBackupForTest(t, env, bucket, 3)
	ctx := context.Background()

	data := []byte("store is down")
	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypePastPaper})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := backup.Backup(ctx, resource.ID); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}

	stored, _ := env.resources.GetByID(dbctx.New(ctx), resource.ID)
	if stored.RemoteSyncStatus != types.RemoteSyncFailed {
		t.Fatalf("expected remote_sync_status=failed, got %s", stored.RemoteSyncStatus)
	}

	// The resource keeps serving from the local tier.
	if _, err := os.Stat(stored.LocalPath); err != nil {
		t.Fatalf("local copy must survive backup failure: %v", err)
	}
}

func TestBatchRetryRequeuesFailedBackups(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	ctx := context.Background()

	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: []byte("stuck"), ResourceType: types.TypePastPaper})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := env.resources.UpdateRemoteSync(dbctx.New(ctx), resource.ID, types.RemoteSyncFailed, ""); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	count, err := backup.BatchRetry(ctx)
	if err != nil {
		t.Fatalf("BatchRetry: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 requeued, got %d", count)
	}
	jobs, _ := env.jobs.ListByResource(dbctx.New(ctx), resource.ID)
	backups := 0
	for _, j := range jobs {
		if j.JobType == types.JobTypeRemoteBackup && j.Status == types.JobStatusQueued {
			backups++
		}
	}
	if backups < 1 {
		t.Fatalf("expected a queued backup job, got %+v", jobs)
	}
}
