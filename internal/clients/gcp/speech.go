package gcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Speech is the transcript oracle for video resources: text plus word-level
// timestamps.
type Speech interface {
	TranscribeBytes(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error)
	Close() error
}

type TranscriptResult struct {
	Text  string           `json:"text"`
	Words []TranscriptWord `json:"words,omitempty"`
}

type TranscriptWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start_sec"`
	End   float64 `json:"end_sec"`
}

type speechService struct {
	log        *logger.Logger
	client     *speech.Client
	maxRetries int
}

func NewSpeech(log *logger.Logger) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Speech")

	c, err := speech.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &speechService{log: slog, client: c, maxRetries: 4}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) TranscribeBytes(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error) {
	if len(audio) == 0 {
		return &TranscriptResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               "en-US",
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      true,
			Encoding:                   inferEncoding(mimeType),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	var resp *speechpb.LongRunningRecognizeResponse
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var op *speech.LongRunningRecognizeOperation
		op, err = s.client.LongRunningRecognize(ctx, req)
		if err == nil {
			resp, err = op.Wait(ctx)
		}
		if err == nil {
			break
		}
		if !isRetryableGRPC(err) {
			return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
		}
		s.log.Warn("speech transient error, retrying", "attempt", attempt+1, "error", err)
		time.Sleep(time.Duration(attempt+1) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("speech longrunningrecognize: %w", err)
	}

	out := &TranscriptResult{}
	var sb strings.Builder
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		best := alts[0]
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.TrimSpace(best.GetTranscript()))
		for _, w := range best.GetWords() {
			out.Words = append(out.Words, TranscriptWord{
				Word:  w.GetWord(),
				Start: w.GetStartTime().AsDuration().Seconds(),
				End:   w.GetEndTime().AsDuration().Seconds(),
			})
		}
	}
	out.Text = sb.String()
	return out, nil
}

func inferEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	ext := filepath.Ext(m)
	switch {
	case strings.Contains(m, "wav") || ext == ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac") || ext == ".flac":
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3") || ext == ".mp3":
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg") || ext == ".ogg" || ext == ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func isRetryableGRPC(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}
