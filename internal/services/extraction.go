package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyarc/resourcebank-backend/internal/data/repos"
	types "github.com/studyarc/resourcebank-backend/internal/domain"
	"github.com/studyarc/resourcebank-backend/internal/platform/dbctx"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// TextExtractor is the native-extraction oracle (DocumentAI in production).
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// OCRExtractor is the fallback oracle for scanned documents (Vision).
type OCRExtractor interface {
	OCRBytes(ctx context.Context, data []byte) (string, error)
}

// ExtractionService runs as a background job after ingestion. Native
// extraction first; when the result is shorter than minChars the document is
// assumed scanned and OCR runs instead. Video resources go to the transcript
// provider. Oracle timeouts and other transient failures are retried with
// exponential backoff before the job is marked failed. An empty result is
// recorded as-is, not treated as a job failure.
type ExtractionService interface {
	Extract(ctx context.Context, resourceID uuid.UUID) error
}

type extractionService struct {
	db  *gorm.DB
	log *logger.Logger

	resourceRepo repos.ResourceRepo
	localFiles   LocalFileStore
	extractor    TextExtractor
	ocr          OCRExtractor
	transcripts  TranscriptService

	minChars    int
	maxAttempts int
	baseBackoff time.Duration
}

func NewExtractionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resourceRepo repos.ResourceRepo,
	localFiles LocalFileStore,
	extractor TextExtractor,
	ocr OCRExtractor,
	transcripts TranscriptService,
	minChars int,
	maxAttempts int,
	baseBackoff time.Duration,
) ExtractionService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &extractionService{
		db:           db,
		log:          baseLog.With("service", "ExtractionService"),
		resourceRepo: resourceRepo,
		localFiles:   localFiles,
		extractor:    extractor,
		ocr:          ocr,
		transcripts:  transcripts,
		minChars:     minChars,
		maxAttempts:  maxAttempts,
		baseBackoff:  baseBackoff,
	}
}

func (s *extractionService) Extract(ctx context.Context, resourceID uuid.UUID) error {
	dbc := dbctx.New(ctx)
	resource, err := s.resourceRepo.GetByID(dbc, resourceID)
	if err != nil {
		return fmt.Errorf("load resource: %w", err)
	}
	if resource == nil {
		return nil
	}

	if resource.ResourceType == types.TypeVideo {
		return s.transcripts.AttachTranscript(ctx, resource)
	}
	if !resource.ResourceType.IsDocument() {
		return nil
	}
	if s.extractor == nil {
		s.log.Warn("no extractor configured, skipping", "resource_id", resourceID)
		return nil
	}

	data, err := s.localFiles.Read(resource.LocalPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}

	mimeType := mimeFromMetadata(resource.Metadata)
	text, err := s.withRetry(ctx, "native extraction", func(callCtx context.Context) (string, error) {
		return s.extractor.ExtractText(callCtx, data, mimeType)
	})
	if err != nil {
		return fmt.Errorf("native extraction: %w", err)
	}

	if len(text) < s.minChars && s.ocr != nil {
		s.log.Info("native extraction below threshold, trying OCR",
			"resource_id", resourceID, "chars", len(text))
		ocrText, ocrErr := s.withRetry(ctx, "ocr fallback", func(callCtx context.Context) (string, error) {
			return s.ocr.OCRBytes(callCtx, data)
		})
		if ocrErr != nil {
			return fmt.Errorf("ocr fallback: %w", ocrErr)
		}
		if len(ocrText) > len(text) {
			text = ocrText
		}
	}

	if err := s.resourceRepo.UpdateExtractedText(dbc, resourceID, text); err != nil {
		return fmt.Errorf("store extracted text: %w", err)
	}
	s.log.Info("extraction complete", "resource_id", resourceID, "chars", len(text))
	return nil
}

// withRetry calls the oracle up to maxAttempts times with a bounded
// per-attempt timeout.
func (s *extractionService) withRetry(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		text, err := fn(callCtx)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err
		s.log.Warn("extraction attempt failed", "op", op, "attempt", attempt, "error", err)
		if attempt < s.maxAttempts {
			select {
			case <-time.After(s.baseBackoff << (attempt - 1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("exhausted %d attempts: %w", s.maxAttempts, lastErr)
}

func mimeFromMetadata(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	s, _ := m["mime_type"].(string)
	return s
}
