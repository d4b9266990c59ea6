package services

import (
	"fmt"
	"net/url"
	"strings"

	types "github.com/studyarc/resourcebank-backend/internal/domain"
)

// Metadata is an open key/value map whose required keys vary by resource
// type. Validation happens once, at the ingestion boundary.
func validateMetadata(rt types.ResourceType, metadata map[string]any) error {
	if !rt.Valid() {
		return fmt.Errorf("%w: unknown resource type %q", types.ErrInvalidMetadata, rt)
	}
	switch rt {
	case types.TypeVideo:
		raw, ok := metadata["video_url"].(string)
		if !ok || strings.TrimSpace(raw) == "" {
			return fmt.Errorf("%w: video requires video_url", types.ErrInvalidMetadata)
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("%w: video_url: %v", types.ErrInvalidMetadata, err)
		}
	case types.TypeTextbookExcerpt:
		if v, ok := metadata["page_start"]; ok {
			start, okS := asInt(v)
			end, okE := asInt(metadata["page_end"])
			if !okS || !okE || start < 1 || end < start {
				return fmt.Errorf("%w: page range must satisfy 1 <= page_start <= page_end", types.ErrInvalidMetadata)
			}
		}
	case types.TypePastPaper, types.TypeMarkScheme, types.TypeSyllabus:
		if v, ok := metadata["source_url"]; ok {
			raw, okStr := v.(string)
			if !okStr {
				return fmt.Errorf("%w: source_url must be a string", types.ErrInvalidMetadata)
			}
			if _, err := url.ParseRequestURI(raw); err != nil {
				return fmt.Errorf("%w: source_url: %v", types.ErrInvalidMetadata, err)
			}
		}
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
