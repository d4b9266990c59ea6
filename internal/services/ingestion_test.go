package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
)

type testEnv struct {
	db *gorm.DB

	resources    repos.ResourceRepo
	explanations repos.ExplanationRepo
	topicLinks   repos.TopicLinkRepo
	quotas       repos.QuotaRepo
	syncRuns     repos.SyncRunRepo
	jobRuns      repos.JobRunRepo

	localFiles LocalFileStore
	quota      QuotaGuard
	jobs       JobService
	scanner    *fakeScanner
	ingestion  IngestionService
}

const testQuotaLimit = 3

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := testutil.Logger(t)
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)

	localFiles, err := NewLocalFileStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("local file store: %v", err)
	}

	env := &testEnv{
		db:           tx,
		resources:    repos.NewResourceRepo(tx, log),
		explanations: repos.NewExplanationRepo(tx, log),
		topicLinks:   repos.NewTopicLinkRepo(tx, log),
		quotas:       repos.NewQuotaRepo(tx, log),
		syncRuns:     repos.NewSyncRunRepo(tx, log),
		jobRuns:      repos.NewJobRunRepo(tx, log),
		localFiles:   localFiles,
		scanner:      &fakeScanner{clean: true},
	}
	env.quota = NewQuotaGuard(log, env.resources, env.quotas, testQuotaLimit)
	env.jobs = NewJobService(log, env.jobRuns)
	env.ingestion = NewIngestionService(tx, log, env.resources, env.quota, env.jobs, localFiles, env.scanner)
	return env
}

func TestSubmitOfficialContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := []byte("june 2024 physics paper 1")
	resource, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         data,
		ResourceType: types.TypePastPaper,
		CatalogID:    "aqa-2024-p1",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resource.Visibility != types.VisibilityPublic {
		t.Fatalf("official content must be public immediately, got %s", resource.Visibility)
	}
	if resource.Signature != ContentSignature(data) {
		t.Fatalf("signature mismatch")
	}

	// The file must exist at the recorded path.
	if _, err := os.Stat(resource.LocalPath); err != nil {
		t.Fatalf("local file missing: %v", err)
	}

	jobs, err := env.jobs.ListByResource(dbctx.New(ctx), resource.ID)
	if err != nil {
		t.Fatalf("ListByResource: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected backup + extraction jobs, got %d", len(jobs))
	}
}

func TestSubmitTenantUploadIsPendingReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()

	resource, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("my class notes"),
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resource.Visibility != types.VisibilityPendingReview {
		t.Fatalf("tenant upload must await moderation, got %s", resource.Visibility)
	}
	used, err := env.quota.Used(dbctx.New(ctx), tenant)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != 1 {
		t.Fatalf("expected quota used=1, got %d", used)
	}
}

func TestSubmitDuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()
	data := []byte("identical bytes")

	if _, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypeUserUpload, OwnerID: &tenant}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypeUserUpload, OwnerID: &tenant})
	if !errors.Is(err, types.ErrDuplicateResource) {
		t.Fatalf("expected ErrDuplicateResource, got %v", err)
	}

	// The same bytes from a different tenant are independent.
	other := uuid.New()
	if _, err := env.ingestion.Submit(ctx, SubmitInput{Data: data, ResourceType: types.TypeUserUpload, OwnerID: &other}); err != nil {
		t.Fatalf("other tenant submit: %v", err)
	}
}

func TestSubmitQuotaBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()

	var last *types.Resource
	for i := 0; i < testQuotaLimit; i++ {
		r, err := env.ingestion.Submit(ctx, SubmitInput{
			Data:         []byte(fmt.Sprintf("upload %d", i)),
			ResourceType: types.TypeUserUpload,
			OwnerID:      &tenant,
		})
		if err != nil {
			t.Fatalf("submit %d within quota: %v", i, err)
		}
		last = r
	}

	over, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("one too many"),
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	})
	if !errors.Is(err, types.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v (%+v)", err, over)
	}

	// No partial state: the rejected upload left no row and no file.
	count, err := env.resources.CountUserUploadsByOwner(dbctx.New(ctx), tenant)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != testQuotaLimit {
		t.Fatalf("expected %d rows, got %d", testQuotaLimit, count)
	}

	// Deleting one frees a slot.
	if err := env.ingestion.DeleteOwnUpload(ctx, tenant, last.ID); err != nil {
		t.Fatalf("DeleteOwnUpload: %v", err)
	}
	if _, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("fits again"),
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	}); err != nil {
		t.Fatalf("submit after delete: %v", err)
	}
}

func TestSubmitUnsafeContentRejected(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.clean = false
	ctx := context.Background()
	tenant := uuid.New()

	_, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("eicar-like payload"),
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	})
	if !errors.Is(err, types.ErrUnsafeContent) {
		t.Fatalf("expected ErrUnsafeContent, got %v", err)
	}
	count, _ := env.resources.CountUserUploadsByOwner(dbctx.New(ctx), tenant)
	if count != 0 {
		t.Fatalf("rejected upload must leave no row, got %d", count)
	}
}

func TestSubmitScanErrorFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.err = fmt.Errorf("clamd unreachable")
	ctx := context.Background()

	_, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("anything"),
		ResourceType: types.TypePastPaper,
	})
	if err == nil {
		t.Fatal("scan failure must abort the submission")
	}
}

func TestSubmitInvalidMetadataRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("a video"),
		ResourceType: types.TypeVideo,
		Metadata:     map[string]any{},
	})
	if !errors.Is(err, types.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for video without url, got %v", err)
	}
	if env.scanner.calls != 0 {
		t.Fatal("invalid metadata must be rejected before scanning")
	}
}

func TestSubmitRejectsUnknownResourceType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()

	_, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("whatever"),
		ResourceType: types.ResourceType("junk"),
		OwnerID:      &tenant,
	})
	if !errors.Is(err, types.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for unknown type, got %v", err)
	}
	if env.scanner.calls != 0 {
		t.Fatal("unknown type must be rejected before scanning")
	}
}

func TestSubmitTenantUploadsForcedToUserUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()

	// An owner-set submission under an official type would dodge both the
	// quota count and the moderation state machine.
	_, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("not actually a past paper"),
		ResourceType: types.TypePastPaper,
		OwnerID:      &tenant,
	})
	if !errors.Is(err, types.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for typed tenant upload, got %v", err)
	}
	count, _ := env.resources.CountUserUploadsByOwner(dbctx.New(ctx), tenant)
	if count != 0 {
		t.Fatalf("rejected upload must leave no row, got %d", count)
	}
}

func TestSubmitQuotaCheckedBeforeScan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()

	for i := 0; i < testQuotaLimit; i++ {
		if _, err := env.ingestion.Submit(ctx, SubmitInput{
			Data:         []byte(fmt.Sprintf("upload %d", i)),
			ResourceType: types.TypeUserUpload,
			OwnerID:      &tenant,
		}); err != nil {
			t.Fatalf("submit %d within quota: %v", i, err)
		}
	}
	scansBefore := env.scanner.calls

	_, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("over the line"),
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	})
	if !errors.Is(err, types.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if env.scanner.calls != scansBefore {
		t.Fatal("an at-limit tenant must be rejected before the scan runs")
	}
}

func TestDeleteOwnUploadGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := uuid.New()

	r, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("pending upload"),
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Another tenant cannot delete it.
	if err := env.ingestion.DeleteOwnUpload(ctx, uuid.New(), r.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	// Once public, the owner cannot delete it either.
	if err := env.resources.UpdateVisibilityAndMetadata(dbctx.New(ctx), r.ID, types.VisibilityPublic, nil); err != nil {
		t.Fatalf("update visibility: %v", err)
	}
	if err := env.ingestion.DeleteOwnUpload(ctx, tenant, r.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for public delete, got %v", err)
	}
}
