package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/sources"
)

// Raw sources disagree on field names; each canonical field is looked up
// under its known aliases in order.
var (
	titleKeys       = []string{"title", "name", "position", "job_title"}
	companyKeys     = []string{"company", "company_name", "employer", "organization"}
	locationKeys    = []string{"location", "candidate_required_location", "job_location", "region"}
	urlKeys         = []string{"url", "apply_url", "link", "absolute_url", "job_url"}
	dateKeys        = []string{"published", "published_at", "posted_at", "publication_date", "date", "created_at"}
	descriptionKeys = []string{"description", "summary", "content", "text"}
	skillsKeys      = []string{"skills", "tags", "keywords", "key_skills"}
	salaryKeys      = []string{"salary", "compensation", "salary_range", "pay"}
	employmentKeys  = []string{"employment_type", "job_type", "contract_type", "type"}
	seniorityKeys   = []string{"seniority", "experience_level", "level"}
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize maps one raw posting into the canonical job shape. It returns
// nil for postings that cannot be matched or displayed meaningfully (no
// title or no company); that is an expected silent drop, not an error.
func (n *Normalizer) Normalize(posting sources.RawPosting, now time.Time) *entities.Job {

	title := collapseWhitespace(stringField(posting.Fields, titleKeys))
	if title == "" {
		return nil
	}

	company := collapseWhitespace(stringField(posting.Fields, companyKeys))
	if company == "" {
		return nil
	}

	applyURL := strings.TrimSpace(stringField(posting.Fields, urlKeys))

	locationRaw := collapseWhitespace(stringField(posting.Fields, locationKeys))
	remoteType, region, locations := classifyLocation(locationRaw)

	salaryMin, salaryMax, currency := extractSalary(posting.Fields)

	postedAt := parsePostedAt(fieldValue(posting.Fields, dateKeys), now)

	description := extractText(stringField(posting.Fields, descriptionKeys))

	skills := normalizeSkills(fieldValue(posting.Fields, skillsKeys))

	normalizedTitle := strings.ToLower(title)
	seniority := stringField(posting.Fields, seniorityKeys)
	if seniority == "" {
		seniority = inferSeniority(normalizedTitle)
	}

	return &entities.Job{
		Fingerprint:     Fingerprint(applyURL, normalizedTitle, company, posting.SourceKey),
		Title:           title,
		NormalizedTitle: normalizedTitle,
		CompanyName:     company,
		Locations:       entities.JoinList(locations),
		LocationRaw:     locationRaw,
		RemoteType:      remoteType,
		RemoteRegion:    region,
		EmploymentType:  strings.ToLower(strings.TrimSpace(stringField(posting.Fields, employmentKeys))),
		Seniority:       strings.ToLower(strings.TrimSpace(seniority)),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		SalaryCurrency:  currency,
		PostedAt:        postedAt,
		Description:     description,
		ApplyURL:        applyURL,
		Skills:          entities.JoinList(skills),
		SourceKey:       posting.SourceKey,
		Status:          entities.JobActive,
		LastSeenAt:      now,
	}
}

// Fingerprint derives the dedup identity of a posting. The apply URL is
// authoritative when present; otherwise identity falls back to the
// (normalized title, company, source) tuple, which keeps the same job from
// two sources as two rows rather than silently merging them.
func Fingerprint(applyURL, normalizedTitle, company, sourceKey string) string {

	var material string
	if applyURL != "" {
		material = "url|" + applyURL
	} else {
		material = fmt.Sprintf("tcs|%s|%s|%s", normalizedTitle, strings.ToLower(company), sourceKey)
	}

	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts HTML or HTML-encoded descriptions to plain text:
// unescape entities, strip tags, collapse whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return collapseWhitespace(plain)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stringField(fields map[string]any, keys []string) string {
	value := fieldValue(fields, keys)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func fieldValue(fields map[string]any, keys []string) any {
	for _, key := range keys {
		if value, found := fields[key]; found && value != nil {
			return value
		}
	}
	return nil
}

func inferSeniority(normalizedTitle string) string {
	switch {
	case strings.Contains(normalizedTitle, "intern"):
		return "intern"
	case strings.Contains(normalizedTitle, "principal"):
		return "principal"
	case strings.Contains(normalizedTitle, "staff"):
		return "staff"
	case strings.Contains(normalizedTitle, "lead"):
		return "lead"
	case strings.Contains(normalizedTitle, "senior"), strings.Contains(normalizedTitle, "sr."):
		return "senior"
	case strings.Contains(normalizedTitle, "junior"), strings.Contains(normalizedTitle, "jr."):
		return "junior"
	default:
		return ""
	}
}
