package resources_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	resourcesrepo "github.com/studyarc/resourcebank-backend/internal/data/repos/resources"
	"github.com/studyarc/resourcebank-backend/internal/data/repos/testutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
)

func TestQuotaRepoIncrementDecrement(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := resourcesrepo.NewQuotaRepo(gdb, testutil.Logger(t))
	dbc := dbctx.WithTx(ctx, tx)

	tenant := uuid.New()

	got, err := repo.Get(dbc, tenant)
	if err != nil || got != nil {
		t.Fatalf("expected no quota row yet, got %+v, %v", got, err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.Increment(dbc, tenant); err != nil {
			t.Fatalf("Increment %d: %v", i, err)
		}
	}
	got, err = repo.Get(dbc, tenant)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Used != 3 {
		t.Fatalf("expected used=3, got %+v", got)
	}

	if err := repo.Decrement(dbc, tenant); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	got, _ = repo.Get(dbc, tenant)
	if got.Used != 2 {
		t.Fatalf("expected used=2, got %d", got.Used)
	}
}

func TestQuotaRepoDecrementNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	repo := resourcesrepo.NewQuotaRepo(gdb, testutil.Logger(t))
	dbc := dbctx.WithTx(ctx, tx)

	tenant := uuid.New()
	if err := repo.Increment(dbc, tenant); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.Decrement(dbc, tenant); err != nil {
			t.Fatalf("Decrement %d: %v", i, err)
		}
	}
	got, err := repo.Get(dbc, tenant)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Used != 0 {
		t.Fatalf("expected used to floor at 0, got %d", got.Used)
	}
}
