package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/careerpilot/backend/internal/entities"
	"golang.org/x/time/rate"
)

// RawPosting is one unnormalized posting as a worker fetched it. It lives
// only until the normalizer has consumed it.
type RawPosting struct {
	SourceKey string
	SourceURL string
	Fields    map[string]any
}

// IngestResult reports one source fetch. Per-item failures accumulate in
// Errors; Success flips to false only when the source as a whole could not
// be reached or parsed.
type IngestResult struct {
	Success     bool
	JobsFetched int
	Postings    []RawPosting
	Errors      []string
}

// Worker fetches raw postings from one external source. A malformed item
// never aborts the whole fetch.
type Worker interface {
	SourceKey() string
	Ingest(ctx context.Context) IngestResult
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Factory builds the right worker variant for a source's type.
type Factory struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	maxPages    int
}

func NewFactory(maxPages int) *Factory {
	return &Factory{httpClient: &http.Client{}, maxPages: maxPages}
}

func (f *Factory) SetHTTPClient(client HTTPClient) {
	f.httpClient = client
}

func (f *Factory) SetRateLimit(maxRequestsPerSecond float32) {
	f.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (f *Factory) WorkerFor(source entities.JobSource) (Worker, error) {

	settings, err := source.ParsedSettings()
	if err != nil {
		return nil, err
	}

	switch source.Type {
	case entities.SourceAPI:
		return newAPIWorker(source.SourceKey, settings, f), nil
	case entities.SourceRSS:
		return newRSSWorker(source.SourceKey, settings, f), nil
	case entities.SourceScraper:
		return newScraperWorker(source.SourceKey, settings, f), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", source.Type)
	}
}

func (f *Factory) fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {

	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}

func failedResult(err error) IngestResult {
	return IngestResult{Success: false, Errors: []string{err.Error()}}
}
