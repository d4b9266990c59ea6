package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
)

func Signature(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func SeedResource(tb testing.TB, ctx context.Context, tx *gorm.DB, rt types.ResourceType, vis types.Visibility, ownerID *uuid.UUID) *types.Resource {
	tb.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	r := &types.Resource{
		ID:               id,
		ResourceType:     rt,
		Visibility:       vis,
		OwnerID:          ownerID,
		Signature:        Signature(id[:]),
		LocalPath:        "/tmp/resourcebank/" + string(rt) + "/" + id.String(),
		RemoteSyncStatus: types.RemoteSyncNotQueued,
		SizeBytes:        64,
		Metadata:         datatypes.JSON([]byte(`{}`)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed resource: %v", err)
	}
	return r
}

func SeedTopicLink(tb testing.TB, ctx context.Context, tx *gorm.DB, topicID, resourceID uuid.UUID, score float64) *types.TopicResourceLink {
	tb.Helper()
	now := time.Now().UTC()
	l := &types.TopicResourceLink{
		ID:             uuid.New(),
		TopicID:        topicID,
		ResourceID:     resourceID,
		RelevanceScore: score,
		Origin:         types.LinkOriginAuto,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed topic link: %v", err)
	}
	return l
}

func SeedJobRun(tb testing.TB, ctx context.Context, tx *gorm.DB, jobType string, resourceID uuid.UUID, status string) *types.JobRun {
	tb.Helper()
	now := time.Now().UTC()
	j := &types.JobRun{
		ID:         uuid.New(),
		JobType:    jobType,
		ResourceID: resourceID,
		Status:     status,
		Payload:    datatypes.JSON([]byte(`{}`)),
		Result:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return j
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
