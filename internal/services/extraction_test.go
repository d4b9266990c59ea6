package services

import (
	"context"
	"testing"
	"time"

	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
)

func newExtractionForTest(t *testing.T, env *testEnv, extractor *fakeExtractor) ExtractionService {
	t.Helper()
	return NewExtractionService(
		env.db, testutil.Logger(t), env.resources, env.localFiles,
		extractor, nil, nil, 1, 3, time.Millisecond,
	)
}

func TestExtractionRetriesTransientOracleFailures(t *testing.T) {
	env := newTestEnv(t)
	extractor := &fakeExtractor{text: "recovered text", fails: 2}
	extraction := newExtractionForTest(t, env, extractor)
	ctx := context.Background()

	resource, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("june 2024 paper"),
		ResourceType: types.TypePastPaper,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := extraction.Extract(ctx, resource.ID); err != nil {
		t.Fatalf("Extract with flaky oracle: %v", err)
	}
	if extractor.calls != 3 {
		t.Fatalf("expected 3 oracle attempts, got %d", extractor.calls)
	}
	stored, err := env.resources.GetByID(dbctx.New(ctx), resource.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ExtractedText != "recovered text" {
		t.Fatalf("expected text after retries, got %q", stored.ExtractedText)
	}
}

func TestExtractionFailsAfterRetryBudget(t *testing.T) {
	env := newTestEnv(t)
	extractor := &fakeExtractor{text: "never reached", fails: 5}
	extraction := newExtractionForTest(t, env, extractor)
	ctx := context.Background()

	resource, err := env.ingestion.Submit(ctx, SubmitInput{
		Data:         []byte("june 2024 mark scheme"),
		ResourceType: types.TypeMarkScheme,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := extraction.Extract(ctx, resource.ID); err == nil {
		t.Fatal("exhausted retries must surface as a job failure")
	}
	if extractor.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", extractor.calls)
	}
	stored, _ := env.resources.GetByID(dbctx.New(ctx), resource.ID)
	if stored.ExtractedText != "" {
		t.Fatalf("no text must be recorded on failure, got %q", stored.ExtractedText)
	}
}
