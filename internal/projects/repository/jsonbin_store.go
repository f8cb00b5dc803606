package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ntuthuko-dev/Web-Solution/config"
	"github.com/Ntuthuko-dev/Web-Solution/internal/metrics"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

const maxErrorBody = 512

// JSONBinStore keeps the collection in a single JSONBin v3 bin.
type JSONBinStore struct {
	baseURL    string
	binID      string
	apiKey     string
	configured bool
	httpClient *http.Client
}

// NewJSONBinStore creates a store for the given bin. Whether the bin is usable
// is decided here, once.
func NewJSONBinStore(cfg config.StoreConfig) *JSONBinStore {
	return &JSONBinStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		binID:      cfg.BinID,
		apiKey:     cfg.APIKey,
		configured: cfg.Driver != "postgres" && cfg.Configured(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *JSONBinStore) Configured() bool { return s.configured }
func (s *JSONBinStore) Name() string     { return "jsonbin" }

type binReadResponse struct {
	Record domain.Document `json:"record"`
}

// FetchAll returns the latest snapshot stored in the bin.
func (s *JSONBinStore) FetchAll(ctx context.Context) (projects domain.Snapshot, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreCall(s.Name(), "fetch_all", err, time.Since(start)) }()

	url := fmt.Sprintf("%s/b/%s/latest", s.baseURL, s.binID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var out binReadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode bin: %v", domain.ErrRemoteUnavailable, err)
	}
	if out.Record.Projects == nil {
		return domain.Snapshot{}, nil
	}
	return out.Record.Projects, nil
}

// ReplaceAll overwrites the bin with the given snapshot.
func (s *JSONBinStore) ReplaceAll(ctx context.Context, projects domain.Snapshot) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreCall(s.Name(), "replace_all", err, time.Since(start)) }()

	jsonData, err := json.Marshal(domain.NewDocument(projects))
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}

	url := fmt.Sprintf("%s/b/%s", s.baseURL, s.binID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	_, err = s.do(req)
	return err
}

func (s *JSONBinStore) setHeaders(req *http.Request) {
	req.Header.Set("X-Master-Key", s.apiKey)
	req.Header.Set("X-Bin-Versioning", "false")
}

func (s *JSONBinStore) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call jsonbin: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: jsonbin returned status %d: %s", domain.ErrRemoteUnavailable, resp.StatusCode, string(body))
	}

	return body, nil
}
