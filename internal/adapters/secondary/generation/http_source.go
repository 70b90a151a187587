package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

// maxStatusBody bounds a status response; results carry whole slide decks
const maxStatusBody = 16 << 20

// HTTPStatusSource reads job status from GET {base}/{jobID}
type HTTPStatusSource struct {
	client  ports.HTTPClient
	baseURL string
}

// NewHTTPStatusSource creates a source for the status endpoint at baseURL
func NewHTTPStatusSource(client ports.HTTPClient, baseURL string) *HTTPStatusSource {
	return &HTTPStatusSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Status fetches the current status of jobID
func (s *HTTPStatusSource) Status(ctx context.Context, jobID string) (ports.JobStatus, error) {
	endpoint := s.baseURL + "/" + url.PathEscape(jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.JobStatus{}, fmt.Errorf("creating status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ports.JobStatus{}, fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ports.JobStatus{}, fmt.Errorf("requesting %s: status %d", endpoint, resp.StatusCode)
	}

	var status ports.JobStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxStatusBody)).Decode(&status); err != nil {
		return ports.JobStatus{}, fmt.Errorf("decoding job status: %w", err)
	}
	status.State = ports.JobState(strings.ToUpper(string(status.State)))

	return status, nil
}

var _ ports.JobStatusSource = (*HTTPStatusSource)(nil)
