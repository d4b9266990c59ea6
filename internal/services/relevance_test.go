package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
)

func newRelevanceForTest(t *testing.T, env *testEnv) RelevanceService {
	t.Helper()
	return NewRelevanceService(testutil.Logger(t), env.resources, env.topicLinks)
}

func TestSelectForTopicFiltersVisibilityBeforeRanking(t *testing.T) {
	env := newTestEnv(t)
	relevance := newRelevanceForTest(t, env)
	ctx := context.Background()
	topicID := uuid.New()
	tenant := uuid.New()
	stranger := uuid.New()

	public := testutil.SeedResource(t, ctx, env.db, types.TypePastPaper, types.VisibilityPublic, nil)
	// A stranger's private resource with the best score must never appear.
	private := testutil.SeedResource(t, ctx, env.db, types.TypeUserUpload, types.VisibilityPrivate, &stranger)
	testutil.SeedTopicLink(t, ctx, env.db, topicID, public.ID, 0.5)
	testutil.SeedTopicLink(t, ctx, env.db, topicID, private.ID, 0.99)

	got, err := relevance.SelectForTopic(ctx, tenant, topicID, 10)
	if err != nil {
		t.Fatalf("SelectForTopic: %v", err)
	}
	if len(got) != 1 || got[0].Resource.ID != public.ID {
		t.Fatalf("expected only the public resource, got %+v", got)
	}
}

func TestSelectForTopicSyllabusAlwaysFirst(t *testing.T) {
	env := newTestEnv(t)
	relevance := newRelevanceForTest(t, env)
	ctx := context.Background()
	topicID := uuid.New()
	tenant := uuid.New()

	syllabus := testutil.SeedResource(t, ctx, env.db, types.TypeSyllabus, types.VisibilityPublic, nil)
	paper := testutil.SeedResource(t, ctx, env.db, types.TypePastPaper, types.VisibilityPublic, nil)
	// Syllabus linked with a low stored score still ranks at the top.
	testutil.SeedTopicLink(t, ctx, env.db, topicID, syllabus.ID, 0.1)
	testutil.SeedTopicLink(t, ctx, env.db, topicID, paper.ID, 0.95)

	got, err := relevance.SelectForTopic(ctx, tenant, topicID, 10)
	if err != nil {
		t.Fatalf("SelectForTopic: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Resource.ID != syllabus.ID || got[0].Score != 1.0 {
		t.Fatalf("syllabus must rank first at score 1.0, got %+v", got[0])
	}
}

func TestSelectForTopicTieBreaksOnTypePriority(t *testing.T) {
	env := newTestEnv(t)
	relevance := newRelevanceForTest(t, env)
	ctx := context.Background()
	topicID := uuid.New()
	tenant := uuid.New()

	upload := testutil.SeedResource(t, ctx, env.db, types.TypeUserUpload, types.VisibilityPublic, nil)
	markScheme := testutil.SeedResource(t, ctx, env.db, types.TypeMarkScheme, types.VisibilityPublic, nil)
	testutil.SeedTopicLink(t, ctx, env.db, topicID, upload.ID, 0.8)
	testutil.SeedTopicLink(t, ctx, env.db, topicID, markScheme.ID, 0.8)

	got, err := relevance.SelectForTopic(ctx, tenant, topicID, 10)
	if err != nil {
		t.Fatalf("SelectForTopic: %v", err)
	}
	if got[0].Resource.ID != markScheme.ID {
		t.Fatalf("equal scores must break by type priority, got %+v", got)
	}
}

func TestSelectForTopicDefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	relevance := newRelevanceForTest(t, env)
	ctx := context.Background()
	topicID := uuid.New()
	tenant := uuid.New()

	for i := 0; i < defaultSelectionLimit+3; i++ {
		r := testutil.SeedResource(t, ctx, env.db, types.TypePastPaper, types.VisibilityPublic, nil)
		testutil.SeedTopicLink(t, ctx, env.db, topicID, r.ID, 0.5)
	}

	got, err := relevance.SelectForTopic(ctx, tenant, topicID, 0)
	if err != nil {
		t.Fatalf("SelectForTopic: %v", err)
	}
	if len(got) != defaultSelectionLimit {
		t.Fatalf("expected default limit %d, got %d", defaultSelectionLimit, len(got))
	}
}

func TestLinkResourceValidatesScore(t *testing.T) {
	env := newTestEnv(t)
	relevance := newRelevanceForTest(t, env)
	ctx := context.Background()

	if err := relevance.LinkResource(ctx, uuid.New(), uuid.New(), 1.2, types.LinkOriginAuto); err == nil {
		t.Fatal("score above 1 must be rejected")
	}
	if err := relevance.RecordContribution(ctx, uuid.New(), uuid.New(), -0.1); err == nil {
		t.Fatal("negative weight must be rejected")
	}
}

func TestRecordContribution(t *testing.T) {
	env := newTestEnv(t)
	relevance := newRelevanceForTest(t, env)
	ctx := context.Background()
	topicID := uuid.New()

	r := testutil.SeedResource(t, ctx, env.db, types.TypeTextbookExcerpt, types.VisibilityPublic, nil)
	if err := relevance.LinkResource(ctx, topicID, r.ID, 0.7, types.LinkOriginAuto); err != nil {
		t.Fatalf("LinkResource: %v", err)
	}
	if err := relevance.RecordContribution(ctx, topicID, r.ID, 0.4); err != nil {
		t.Fatalf("RecordContribution: %v", err)
	}
}
