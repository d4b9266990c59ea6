package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studyarc/resourcebank-backend/internal/platform/envutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Entry is one official item in the remote catalog. Signature may be empty;
// the sync job then hashes the download itself.
type Entry struct {
	Identifier  string `json:"identifier"`
	DownloadURL string `json:"download_url"`
	Signature   string `json:"signature,omitempty"`
	Title       string `json:"title,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// Source enumerates a remote past-paper catalog and downloads entries.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Entry, error)
	Download(ctx context.Context, e Entry) ([]byte, error)
}

type httpSource struct {
	log      *logger.Logger
	name     string
	listURL  string
	client   *http.Client
	maxBytes int64
}

func NewHTTPSource(log *logger.Logger, name, listURL string) Source {
	return &httpSource{
		log:     log.With("service", "CatalogSource", "source", name),
		name:    name,
		listURL: listURL,
		client: &http.Client{
			Timeout: envutil.Duration("CATALOG_HTTP_TIMEOUT", 60*time.Second),
		},
		maxBytes: int64(envutil.Int("CATALOG_MAX_DOWNLOAD_MB", 128)) << 20,
	}
}

func (s *httpSource) Name() string { return s.name }

func (s *httpSource) List(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list catalog: unexpected status %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog listing: %w", err)
	}
	return entries, nil
}

func (s *httpSource) Download(ctx context.Context, e Entry) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.DownloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", e.Identifier, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %d", e.Identifier, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", e.Identifier, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("download %s: exceeds %d byte limit", e.Identifier, s.maxBytes)
	}
	return data, nil
}
