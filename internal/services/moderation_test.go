package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
)

func newModerationForTest(t *testing.T, env *testEnv, bucket *fakeBucket, renderer PageRenderer) ModerationService {
	t.Helper()
	return NewModerationService(
		env.db, testutil.Logger(t), env.resources, env.topicLinks, env.quota,
		env.localFiles, bucket, renderer,
	)
}

func submitPending(t *testing.T, env *testEnv, tenant uuid.UUID, data []byte) *types.Resource {
	t.Helper()
	r, err := env.ingestion.Submit(context.Background(), SubmitInput{
		Data:         data,
		ResourceType: types.TypeUserUpload,
		OwnerID:      &tenant,
	})
	if err != nil {
		t.Fatalf("submit pending upload: %v", err)
	}
	return r
}

func TestApproveMakesPublicAndFreesQuota(t *testing.T) {
	env := newTestEnv(t)
	moderation := newModerationForTest(t, env, newFakeBucket(), nil)
	ctx := context.Background()
	tenant := uuid.New()

	r := submitPending(t, env, tenant, []byte("good notes"))

	approved, err := moderation.Approve(ctx, r.ID, map[string]any{"subject": "physics"})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Visibility != types.VisibilityPublic {
		t.Fatalf("expected public, got %s", approved.Visibility)
	}

	var meta map[string]any
	if err := json.Unmarshal(approved.Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["subject"] != "physics" {
		t.Fatalf("metadata edit not applied: %+v", meta)
	}

	used, err := env.quota.Used(dbctx.New(ctx), tenant)
	if err != nil {
		t.Fatalf("Used: %v", err)
	}
	if used != 0 {
		t.Fatalf("approval must release the quota slot, used=%d", used)
	}
}

func TestModerationIsIrreversible(t *testing.T) {
	env := newTestEnv(t)
	moderation := newModerationForTest(t, env, newFakeBucket(), nil)
	ctx := context.Background()
	tenant := uuid.New()

	r := submitPending(t, env, tenant, []byte("approved once"))
	if _, err := moderation.Approve(ctx, r.ID, nil); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// Neither transition applies to an already-public resource.
	if _, err := moderation.Approve(ctx, r.ID, nil); !errors.Is(err, types.ErrNotPending) {
		t.Fatalf("expected ErrNotPending on re-approve, got %v", err)
	}
	if err := moderation.Reject(ctx, r.ID); !errors.Is(err, types.ErrNotPending) {
		t.Fatalf("expected ErrNotPending on reject-after-approve, got %v", err)
	}
}

func TestRejectRemovesEveryTier(t *testing.T) {
	env := newTestEnv(t)
	bucket := newFakeBucket()
	moderation := newModerationForTest(t, env, bucket, nil)
	ctx := context.Background()
	tenant := uuid.New()

	r := submitPending(t, env, tenant, []byte("not acceptable"))

	if err := moderation.Reject(ctx, r.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	gone, err := env.resources.GetByID(dbctx.New(ctx), r.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if gone != nil {
		t.Fatalf("rejected resource must be hard-deleted, got %+v", gone)
	}
	if _, err := os.Stat(r.LocalPath); !os.IsNotExist(err) {
		t.Fatal("rejected file must be removed from disk")
	}
	used, _ := env.quota.Used(dbctx.New(ctx), tenant)
	if used != 0 {
		t.Fatalf("rejection must release the quota slot, used=%d", used)
	}

	// Rejecting again is not found, not a repeatable action.
	if err := moderation.Reject(ctx, r.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPreviewOnlyWhilePending(t *testing.T) {
	env := newTestEnv(t)
	renderer := &fakeRenderer{pages: [][]byte{[]byte("page1"), []byte("page2"), []byte("page3")}}
	moderation := newModerationForTest(t, env, newFakeBucket(), renderer)
	ctx := context.Background()
	tenant := uuid.New()

	r := submitPending(t, env, tenant, []byte("pdf bytes"))

	pages, err := moderation.Preview(ctx, r.ID, 2)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	if _, err := moderation.Approve(ctx, r.ID, nil); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := moderation.Preview(ctx, r.ID, 2); !errors.Is(err, types.ErrNotPending) {
		t.Fatalf("preview after approval must fail, got %v", err)
	}
}

func TestListPendingOrdersOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	moderation := newModerationForTest(t, env, newFakeBucket(), nil)
	ctx := context.Background()

	a := submitPending(t, env, uuid.New(), []byte("first"))
	b := submitPending(t, env, uuid.New(), []byte("second"))

	pending, err := moderation.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	ids := map[uuid.UUID]bool{pending[0].ID: true, pending[1].ID: true}
	if !ids[a.ID] || !ids[b.ID] {
		t.Fatalf("expected both pending uploads, got %v", ids)
	}
}
