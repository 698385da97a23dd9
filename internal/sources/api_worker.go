package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/careerpilot/backend/internal/entities"
)

// itemsKeys are tried in order when a response is a JSON object and the
// source config doesn't name the collection field.
var itemsKeys = []string{"jobs", "items", "results", "data"}

// apiWorker pulls postings from a structured job-board API, paginating
// until the source is exhausted or the safety cap is hit.
type apiWorker struct {
	sourceKey string
	settings  entities.SourceSettings
	factory   *Factory
}

func newAPIWorker(sourceKey string, settings entities.SourceSettings, factory *Factory) *apiWorker {
	return &apiWorker{sourceKey: sourceKey, settings: settings, factory: factory}
}

func (w *apiWorker) SourceKey() string {
	return w.sourceKey
}

func (w *apiWorker) Ingest(ctx context.Context) IngestResult {

	result := IngestResult{Success: true}

	maxPages := w.settings.MaxPages
	if maxPages <= 0 || maxPages > w.factory.maxPages {
		maxPages = w.factory.maxPages
	}

	for page := 1; page <= maxPages; page++ {

		body, err := w.factory.fetch(ctx, w.pageURL(page), w.settings.Headers)
		if err != nil {
			if page == 1 {
				return failedResult(fmt.Errorf("api fetch for %s: %w", w.sourceKey, err))
			}
			result.Errors = append(result.Errors, fmt.Sprintf("page %d: %v", page, err))
			break
		}

		items, err := w.decodeItems(body)
		if err != nil {
			if page == 1 {
				return failedResult(fmt.Errorf("api decode for %s: %w", w.sourceKey, err))
			}
			result.Errors = append(result.Errors, fmt.Sprintf("page %d: %v", page, err))
			break
		}

		if len(items) == 0 {
			break
		}

		for _, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("page %d: non-object item skipped", page))
				continue
			}
			result.Postings = append(result.Postings, RawPosting{
				SourceKey: w.sourceKey,
				SourceURL: w.settings.URL,
				Fields:    fields,
			})
		}

		// single-page feed, nothing left to paginate
		if maxPages == 1 {
			break
		}
	}

	result.JobsFetched = len(result.Postings)
	return result
}

func (w *apiWorker) pageURL(page int) string {

	if page == 1 && w.settings.PageParam == "" {
		return w.settings.URL
	}

	parsed, err := url.Parse(w.settings.URL)
	if err != nil {
		return w.settings.URL
	}

	pageParam := w.settings.PageParam
	if pageParam == "" {
		pageParam = "page"
	}

	query := parsed.Query()
	query.Set(pageParam, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// decodeItems accepts either a top-level array or an object holding the
// collection under a known key; the source schema stays otherwise opaque.
func (w *apiWorker) decodeItems(body []byte) ([]any, error) {

	var asArray []any
	if err := json.Unmarshal(body, &asArray); err == nil {
		return asArray, nil
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err != nil {
		return nil, fmt.Errorf("response is neither a JSON array nor an object: %v", err)
	}

	keys := itemsKeys
	if w.settings.ItemsKey != "" {
		keys = []string{w.settings.ItemsKey}
	}

	for _, key := range keys {
		if value, found := asObject[key]; found {
			items, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("field %q is not an array", key)
			}
			return items, nil
		}
	}

	return nil, fmt.Errorf("no items collection found in response")
}
