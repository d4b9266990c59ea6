package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// QuotaGuard enforces the per-tenant upload limit. Check is the cheap
// fast-path rejection before the expensive ingestion steps; CheckAndConsume
// must run inside the same transaction as the Resource insert, where the
// count is re-read so concurrent submissions cannot push a tenant over the
// limit.
type QuotaGuard interface {
	Check(dbc dbctx.Context, tenantID uuid.UUID) error
	CheckAndConsume(dbc dbctx.Context, tenantID uuid.UUID) error
	Release(dbc dbctx.Context, tenantID uuid.UUID) error
	Used(dbc dbctx.Context, tenantID uuid.UUID) (int, error)
}

type quotaGuard struct {
	log          *logger.Logger
	resourceRepo repos.ResourceRepo
	quotaRepo    repos.QuotaRepo
	limit        int
}

func NewQuotaGuard(baseLog *logger.Logger, resourceRepo repos.ResourceRepo, quotaRepo repos.QuotaRepo, limit int) QuotaGuard {
	return &quotaGuard{
		log:          baseLog.With("service", "QuotaGuard"),
		resourceRepo: resourceRepo,
		quotaRepo:    quotaRepo,
		limit:        limit,
	}
}

func (g *quotaGuard) Check(dbc dbctx.Context, tenantID uuid.UUID) error {
	count, err := g.resourceRepo.CountUserUploadsByOwner(dbc, tenantID)
	if err != nil {
		return fmt.Errorf("count uploads: %w", err)
	}
	if count >= int64(g.limit) {
		return types.ErrQuotaExceeded
	}
	return nil
}

func (g *quotaGuard) CheckAndConsume(dbc dbctx.Context, tenantID uuid.UUID) error {
	if err := g.Check(dbc, tenantID); err != nil {
		return err
	}
	if err := g.quotaRepo.Increment(dbc, tenantID); err != nil {
		return fmt.Errorf("consume quota: %w", err)
	}
	return nil
}

func (g *quotaGuard) Release(dbc dbctx.Context, tenantID uuid.UUID) error {
	return g.quotaRepo.Decrement(dbc, tenantID)
}

func (g *quotaGuard) Used(dbc dbctx.Context, tenantID uuid.UUID) (int, error) {
	q, err := g.quotaRepo.Get(dbc, tenantID)
	if err != nil {
		return 0, err
	}
	if q == nil {
		return 0, nil
	}
	return q.Used, nil
}
