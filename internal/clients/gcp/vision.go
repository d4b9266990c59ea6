package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Vision is the OCR fallback for scanned documents whose native extraction
// yields too little text.
type Vision interface {
	OCRBytes(ctx context.Context, data []byte) (string, error)
	Close() error
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	vClient, err := vision.NewImageAnnotatorClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionService{log: slog, visionClient: vClient}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionService) OCRBytes(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: data},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}
	return collapseWhitespace(r0.FullTextAnnotation.Text), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
