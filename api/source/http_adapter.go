// api/source/http_adapter.go
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
)

// HTTPAdapter fetches snapshots from a source connector exposing the common
// snapshot endpoint: GET {baseURL}/snapshot?application=&frequency=&period=.
type HTTPAdapter struct {
	name    model.Source
	baseURL string
	client  *http.Client
}

func NewDirectoryGroupAdapter(baseURL string) *HTTPAdapter {
	return newHTTPAdapter(model.SourceDirectoryGroup, baseURL)
}

func NewCodeHostAdapter(baseURL string) *HTTPAdapter {
	return newHTTPAdapter(model.SourceCodeHost, baseURL)
}

func NewDirectoryServiceAdapter(baseURL string) *HTTPAdapter {
	return newHTTPAdapter(model.SourceDirectoryService, baseURL)
}

func newHTTPAdapter(name model.Source, baseURL string) *HTTPAdapter {
	return &HTTPAdapter{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *HTTPAdapter) Name() model.Source {
	return a.name
}

func (a *HTTPAdapter) FetchSnapshot(ctx context.Context, app, frequency, period string) ([]model.FreshRecord, error) {
	start := time.Now()

	params := url.Values{}
	params.Set("application", app)
	params.Set("frequency", frequency)
	params.Set("period", period)
	endpoint := fmt.Sprintf("%s/snapshot?%s", a.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot from %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s returned status %d", a.name, resp.StatusCode)
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot from %s: %w", a.name, err)
	}

	now := time.Now()
	records := make([]model.FreshRecord, 0, len(entries))
	for _, entry := range entries {
		record := Classify(entry, a.name, app, frequency, period)
		if record == nil {
			logger.Warn("Skipping snapshot entry with no identifier",
				zap.String("source", string(a.name)),
				zap.String("application", app))
			continue
		}
		record.FetchedAt = now
		records = append(records, *record)
	}

	logger.Info("Fetched source snapshot",
		zap.String("source", string(a.name)),
		zap.String("application", app),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)))

	return records, nil
}
