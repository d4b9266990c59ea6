package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studyarc/resourcebank-backend/internal/clients/gcp"
	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// TranscriptService fills extracted_text and timestamp metadata for video
// resources from the transcript oracle.
type TranscriptService interface {
	AttachTranscript(ctx context.Context, resource *types.Resource) error
}

type transcriptService struct {
	log          *logger.Logger
	resourceRepo repos.ResourceRepo
	localFiles   LocalFileStore
	speech       gcp.Speech
}

func NewTranscriptService(
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	localFiles LocalFileStore,
	speech gcp.Speech,
) TranscriptService {
	return &transcriptService{
		log:          baseLog.With("service", "TranscriptService"),
		resourceRepo: resourceRepo,
		localFiles:   localFiles,
		speech:       speech,
	}
}

func (s *transcriptService) AttachTranscript(ctx context.Context, resource *types.Resource) error {
	if resource.ResourceType != types.TypeVideo {
		return nil
	}
	if s.speech == nil {
		s.log.Warn("no transcript provider configured, skipping", "resource_id", resource.ID)
		return nil
	}
	data, err := s.localFiles.Read(resource.LocalPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}

	result, err := s.speech.TranscribeBytes(ctx, data, mimeFromMetadata(resource.Metadata))
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	dbc := dbctx.New(ctx)
	if err := s.resourceRepo.UpdateExtractedText(dbc, resource.ID, result.Text); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}

	if len(result.Words) > 0 {
		var meta map[string]any
		if len(resource.Metadata) > 0 {
			_ = json.Unmarshal(resource.Metadata, &meta)
		}
		if meta == nil {
			meta = map[string]any{}
		}
		meta["timestamps"] = result.Words
		metaJSON, _ := json.Marshal(meta)
		if err := s.resourceRepo.UpdateVisibilityAndMetadata(dbc, resource.ID, resource.Visibility, metaJSON); err != nil {
			return fmt.Errorf("store timestamps: %w", err)
		}
	}
	s.log.Info("transcript attached", "resource_id", resource.ID, "words", len(result.Words))
	return nil
}
