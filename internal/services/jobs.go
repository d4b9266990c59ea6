package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// JobService creates durable job records. Enqueueing is just a row insert, so
// callers can enqueue inside the transaction that creates the resource; the
// polling worker picks the row up after commit.
type JobService interface {
	Enqueue(dbc dbctx.Context, jobType string, resourceID uuid.UUID, payload map[string]any) (*types.JobRun, error)
	GetByID(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	ListByResource(dbc dbctx.Context, resourceID uuid.UUID) ([]*types.JobRun, error)
}

type jobService struct {
	log  *logger.Logger
	repo repos.JobRunRepo
}

func NewJobService(baseLog *logger.Logger, repo repos.JobRunRepo) JobService {
	return &jobService{
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, jobType string, resourceID uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if resourceID == uuid.Nil {
		return nil, fmt.Errorf("missing resource_id")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	b, _ := json.Marshal(payload)

	now := time.Now().UTC()
	job := &types.JobRun{
		ID:         uuid.New(),
		JobType:    jobType,
		ResourceID: resourceID,
		Status:     types.JobStatusQueued,
		Payload:    datatypes.JSON(b),
		Result:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(dbc, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (s *jobService) GetByID(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	return s.repo.GetByID(dbc, jobID)
}

func (s *jobService) ListByResource(dbc dbctx.Context, resourceID uuid.UUID) ([]*types.JobRun, error) {
	return s.repo.ListByResource(dbc, resourceID)
}
