package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/mmcdole/gofeed"
)

// rssWorker turns each feed item into one raw posting. Items missing a
// title or link are counted as errors and skipped, never fatal.
type rssWorker struct {
	sourceKey string
	settings  entities.SourceSettings
	factory   *Factory
	parser    *gofeed.Parser
}

func newRSSWorker(sourceKey string, settings entities.SourceSettings, factory *Factory) *rssWorker {
	return &rssWorker{
		sourceKey: sourceKey,
		settings:  settings,
		factory:   factory,
		parser:    gofeed.NewParser(),
	}
}

func (w *rssWorker) SourceKey() string {
	return w.sourceKey
}

func (w *rssWorker) Ingest(ctx context.Context) IngestResult {

	result := IngestResult{Success: true}

	body, err := w.factory.fetch(ctx, w.settings.URL, w.settings.Headers)
	if err != nil {
		return failedResult(fmt.Errorf("rss fetch for %s: %w", w.sourceKey, err))
	}

	feed, err := w.parser.ParseString(string(body))
	if err != nil {
		return failedResult(fmt.Errorf("rss parse for %s: %w", w.sourceKey, err))
	}

	for i, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("item %d has no title", i))
			continue
		}
		if item.Link == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("item %d (%s) has no link", i, item.Title))
			continue
		}

		fields := map[string]any{
			"title":       item.Title,
			"url":         item.Link,
			"description": item.Description,
		}
		if item.Content != "" {
			fields["description"] = item.Content
		}
		if item.Published != "" {
			fields["published"] = item.Published
		}
		if item.PublishedParsed != nil {
			fields["published"] = item.PublishedParsed.Format("2006-01-02T15:04:05Z07:00")
		}
		if len(item.Categories) > 0 {
			fields["tags"] = strings.Join(item.Categories, ",")
		}
		if item.Author != nil && item.Author.Name != "" {
			fields["company"] = item.Author.Name
		}
		if company, jobTitle, location, ok := splitFeedTitle(item.Title); ok {
			fields["company"] = company
			fields["title"] = jobTitle
			if location != "" {
				fields["location"] = location
			}
		}
		if w.settings.DefaultCompany != "" {
			if _, found := fields["company"]; !found {
				fields["company"] = w.settings.DefaultCompany
			}
		}

		result.Postings = append(result.Postings, RawPosting{
			SourceKey: w.sourceKey,
			SourceURL: item.Link,
			Fields:    fields,
		})
	}

	result.JobsFetched = len(result.Postings)
	return result
}

// splitFeedTitle handles the common "Company: Job Title (Location)" feed
// convention used by remote-job boards.
func splitFeedTitle(title string) (company string, jobTitle string, location string, ok bool) {

	parts := strings.SplitN(title, ":", 2)
	if len(parts) != 2 {
		return "", "", "", false
	}

	company = strings.TrimSpace(parts[0])
	jobTitle = strings.TrimSpace(parts[1])
	if company == "" || jobTitle == "" {
		return "", "", "", false
	}

	if open := strings.LastIndex(jobTitle, "("); open >= 0 && strings.HasSuffix(jobTitle, ")") {
		location = strings.TrimSpace(jobTitle[open+1 : len(jobTitle)-1])
		jobTitle = strings.TrimSpace(jobTitle[:open])
	}

	return company, jobTitle, location, true
}
