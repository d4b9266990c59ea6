package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
)

func newCacheForTest(t *testing.T, env *testEnv, backup BackupService) CacheService {
	t.Helper()
	cache, err := NewCacheService(
		testutil.Logger(t), env.resources, env.explanations, env.localFiles, backup, t.TempDir(),
	)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	return cache
}

func TestCacheReadThrough(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	cache := newCacheForTest(t, env, backup)
	ctx := context.Background()

	data := []byte("cached content")
	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypePastPaper})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, err := cache.Read(ctx, resource.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("first read must return the stored bytes")
	}

	// Corrupt the primary copy; the still-valid cache entry keeps serving the
	// original bytes without touching it.
	if err := os.WriteFile(resource.LocalPath, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("corrupt local: %v", err)
	}
	got, err = cache.Read(ctx, resource.ID)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("second read must come from the cache entry")
	}
}

func TestCacheInvalidatedBySignatureChange(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	cache := newCacheForTest(t, env, backup)
	ctx := context.Background()

	data := []byte("version one")
	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypeSyllabus})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := cache.Read(ctx, resource.ID); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	// Content changed in the store of record: new bytes, new signature.
	newData := []byte("version two")
	if _, err := env.localFiles.Write(resource.ResourceType, resource.ID, newData); err != nil {
		t.Fatalf("rewrite local: %v", err)
	}
	if err := env.db.Model(&types.Resource{}).Where("id = ?", resource.ID).
		Update("signature", ContentSignature(newData)).Error; err != nil {
		t.Fatalf("update signature: %v", err)
	}

	got, err := cache.Read(ctx, resource.ID)
	if err != nil {
		t.Fatalf("read after change: %v", err)
	}
	if !bytes.Equal(got, newData) {
		t.Fatal("stale cache entry must be replaced when the signature changes")
	}
}

func TestCacheRestoresFromBackupWhenLocalLost(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	cache := newCacheForTest(t, env, backup)
	ctx := context.Background()

	data := []byte("only remote survives")
	resource, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypePastPaper})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := backup.Backup(ctx, resource.ID); err != nil {
		t.Fatalf("backup: %v", err)
	}

	// Simulate losing the local tier.
	if err := os.Remove(resource.LocalPath); err != nil {
		t.Fatalf("remove local: %v", err)
	}

	got, err := cache.Read(ctx, resource.ID)
	if err != nil {
		t.Fatalf("read with lost local: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("read must restore the original bytes from backup")
	}
	// The local tier is rehydrated for the next reader.
	if _, err := os.Stat(resource.LocalPath); err != nil {
		t.Fatalf("local copy not rehydrated: %v", err)
	}
}

func TestCacheReadUnknownResource(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	cache := newCacheForTest(t, env, backup)

	_, err := cache.Read(context.Background(), uuid.New())
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheReadExplanation(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	cache := newCacheForTest(t, env, backup)
	ctx := context.Background()

	explanations := NewExplanationService(env.db, testutil.Logger(t), env.explanations)
	topicID := uuid.New()
	reader := uuid.New()
	e, err := explanations.UpsertCanonical(ctx, topicID, "photosynthesis overview")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := cache.ReadExplanation(ctx, topicID, e.Version, reader, false)
	if err != nil {
		t.Fatalf("ReadExplanation: %v", err)
	}
	if string(got) != "photosynthesis overview" {
		t.Fatalf("unexpected content %q", got)
	}

	// Regeneration changes the signature; the next read must see new content.
	if _, err := explanations.UpsertCanonical(ctx, topicID, "revised overview"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	got, err = cache.ReadExplanation(ctx, topicID, types.CanonicalVersion, reader, false)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if string(got) != "revised overview" {
		t.Fatalf("stale explanation served: %q", got)
	}
}

func TestCacheReadExplanationOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	backup := newBackupForTest(t, env, bucket, 3)
	cache := newCacheForTest(t, env, backup)
	ctx := context.Background()

	explanations := NewExplanationService(env.db, testutil.Logger(t), env.explanations)
	topicID := uuid.New()
	owner := uuid.New()
	if _, err := explanations.UpsertCanonical(ctx, topicID, "for everyone"); err != nil {
		t.Fatalf("canonical upsert: %v", err)
	}
	if _, err := explanations.UpsertPersonalized(ctx, topicID, owner, 2, "just for me"); err != nil {
		t.Fatalf("personalized upsert: %v", err)
	}

	// Canonical stays open to any tenant.
	if _, err := cache.ReadExplanation(ctx, topicID, types.CanonicalVersion, uuid.New(), false); err != nil {
		t.Fatalf("canonical read: %v", err)
	}

	// The personalized version reads as missing for anyone but its owner.
	if _, err := cache.ReadExplanation(ctx, topicID, 2, uuid.New(), false); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign read, got %v", err)
	}
	got, err := cache.ReadExplanation(ctx, topicID, 2, owner, false)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if string(got) != "just for me" {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := cache.ReadExplanation(ctx, topicID, 2, uuid.New(), true); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}
