package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/careerpilot/backend/internal/entities"
)

// scraperWorker extracts postings from a page using the selectors stored in
// the source settings. Markup drifts upstream all the time, so a selector
// that matches nothing degrades to zero jobs plus an error instead of
// failing the run. All markup-coupled logic stays inside this file.
type scraperWorker struct {
	sourceKey string
	settings  entities.SourceSettings
	factory   *Factory
}

func newScraperWorker(sourceKey string, settings entities.SourceSettings, factory *Factory) *scraperWorker {
	return &scraperWorker{sourceKey: sourceKey, settings: settings, factory: factory}
}

func (w *scraperWorker) SourceKey() string {
	return w.sourceKey
}

func (w *scraperWorker) Ingest(ctx context.Context) IngestResult {

	result := IngestResult{Success: true}

	body, err := w.factory.fetch(ctx, w.settings.URL, w.settings.Headers)
	if err != nil {
		return failedResult(fmt.Errorf("scrape fetch for %s: %w", w.sourceKey, err))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return failedResult(fmt.Errorf("scrape parse for %s: %w", w.sourceKey, err))
	}

	nodes := doc.Find(w.settings.JobSelector)
	if nodes.Length() == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("selector %q matched nothing; markup may have changed", w.settings.JobSelector))
		return result
	}

	nodes.Each(func(i int, node *goquery.Selection) {

		title := w.selectText(node, w.settings.TitleSelector)
		if title == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("node %d has no title", i))
			return
		}

		fields := map[string]any{"title": title}

		if company := w.selectText(node, w.settings.CompanySelector); company != "" {
			fields["company"] = company
		} else if w.settings.DefaultCompany != "" {
			fields["company"] = w.settings.DefaultCompany
		}

		if location := w.selectText(node, w.settings.LocationSelector); location != "" {
			fields["location"] = location
		}

		link := w.selectLink(node)
		if link != "" {
			fields["url"] = w.absoluteURL(link)
		}

		result.Postings = append(result.Postings, RawPosting{
			SourceKey: w.sourceKey,
			SourceURL: w.settings.URL,
			Fields:    fields,
		})
	})

	result.JobsFetched = len(result.Postings)
	return result
}

func (w *scraperWorker) selectText(node *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(node.Find(selector).First().Text())
}

func (w *scraperWorker) selectLink(node *goquery.Selection) string {

	target := node
	if w.settings.LinkSelector != "" {
		target = node.Find(w.settings.LinkSelector).First()
	} else if !node.Is("a") {
		target = node.Find("a").First()
	}

	href, _ := target.Attr("href")
	return strings.TrimSpace(href)
}

func (w *scraperWorker) absoluteURL(href string) string {

	link, err := url.Parse(href)
	if err != nil {
		return href
	}
	if link.IsAbs() {
		return href
	}

	base, err := url.Parse(w.settings.URL)
	if err != nil {
		return href
	}
	return base.ResolveReference(link).String()
}
