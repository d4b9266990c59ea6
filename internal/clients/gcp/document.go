package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Document wraps the DocumentAI processor used for native PDF text
// extraction. OCR-less: scanned documents come back near-empty and the
// extraction service falls through to Vision.
type Document interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
	Close() error
}

type documentService struct {
	log       *logger.Logger
	docClient *documentai.DocumentProcessorClient

	projectID   string
	location    string
	processorID string
}

func NewDocument(log *logger.Logger) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Document")

	projectID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if projectID == "" || processorID == "" {
		return nil, fmt.Errorf("missing DOCUMENTAI_PROJECT_ID or DOCUMENTAI_PROCESSOR_ID")
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}

	// DocumentAI is a regional endpoint; Storage and Vision are not.
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)

	c, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	slog.Info("Document AI initialized", "endpoint", endpoint)

	return &documentService{
		log:         slog,
		docClient:   c,
		projectID:   projectID,
		location:    location,
		processorID: processorID,
	}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", s.projectID, s.location, s.processorID)
	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := s.docClient.ProcessDocument(ctx, req)
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Document.Text), nil
}
