package ingest

import (
	"testing"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/careerpilot/backend/internal/sources"
	"github.com/stretchr/testify/assert"
)

var ingestedAt = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func rawPosting(fields map[string]any) sources.RawPosting {
	return sources.RawPosting{SourceKey: "remoteok", SourceURL: "https://remoteok.com/api", Fields: fields}
}

func Test_Normalize_WhenTitleMissing_ShouldDropPosting(t *testing.T) {

	normalizer := NewNormalizer()

	job := normalizer.Normalize(rawPosting(map[string]any{
		"company": "Acme",
		"url":     "https://acme.example/jobs/1",
	}), ingestedAt)

	assert.Nil(t, job)
}

func Test_Normalize_WhenCompanyMissing_ShouldDropPosting(t *testing.T) {

	normalizer := NewNormalizer()

	job := normalizer.Normalize(rawPosting(map[string]any{
		"title": "Go Developer",
		"url":   "https://acme.example/jobs/1",
	}), ingestedAt)

	assert.Nil(t, job)
}

func Test_Normalize_ShouldBuildCanonicalJob(t *testing.T) {

	assert := assert.New(t)
	normalizer := NewNormalizer()

	job := normalizer.Normalize(rawPosting(map[string]any{
		"position":    "  Senior   Go Developer ",
		"company":     "Acme",
		"location":    "Remote, Europe",
		"url":         "https://acme.example/jobs/1",
		"description": "Build &amp; run <b>backend</b> services",
		"tags":        []any{"Go", "PostgreSQL", "go"},
		"salary":      "$120k-$150k",
		"published":   "2025-03-08T10:00:00Z",
	}), ingestedAt)

	assert.NotNil(job)
	assert.Equal("Senior Go Developer", job.Title)
	assert.Equal("senior go developer", job.NormalizedTitle)
	assert.Equal("Acme", job.CompanyName)
	assert.Equal(entities.RemoteFull, job.RemoteType)
	assert.Equal("europe", job.RemoteRegion)
	assert.Equal("senior", job.Seniority)
	assert.Equal("Build & run backend services", job.Description)
	assert.Equal([]string{"go", "postgresql"}, job.SkillsAsArray())
	assert.Equal(120000.0, *job.SalaryMin)
	assert.Equal(150000.0, *job.SalaryMax)
	assert.Equal("USD", job.SalaryCurrency)
	assert.Equal(time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC), job.PostedAt)
	assert.Equal(entities.JobActive, job.Status)
	assert.Equal(ingestedAt, job.LastSeenAt)
}

func Test_Normalize_WhenDateIsRelative_ShouldResolveAgainstIngestionTime(t *testing.T) {

	normalizer := NewNormalizer()

	job := normalizer.Normalize(rawPosting(map[string]any{
		"title":     "Go Developer",
		"company":   "Acme",
		"published": "2 days ago",
	}), ingestedAt)

	assert.NotNil(t, job)
	assert.Equal(t, ingestedAt.AddDate(0, 0, -2), job.PostedAt)
}

func Test_Normalize_WhenDateUnreadable_ShouldFallBackToIngestionTime(t *testing.T) {

	normalizer := NewNormalizer()

	job := normalizer.Normalize(rawPosting(map[string]any{
		"title":     "Go Developer",
		"company":   "Acme",
		"published": "sometime soon",
	}), ingestedAt)

	assert.NotNil(t, job)
	assert.Equal(t, ingestedAt, job.PostedAt)
}

func Test_Fingerprint_WhenApplyURLPresent_ShouldIgnoreOtherFields(t *testing.T) {

	assert := assert.New(t)

	first := Fingerprint("https://acme.example/jobs/1", "go developer", "Acme", "remoteok")
	second := Fingerprint("https://acme.example/jobs/1", "backend engineer", "Other", "remotive")
	assert.Equal(first, second)

	third := Fingerprint("https://acme.example/jobs/2", "go developer", "Acme", "remoteok")
	assert.NotEqual(first, third)
}

func Test_Fingerprint_WhenApplyURLMissing_ShouldUseTitleCompanySource(t *testing.T) {

	assert := assert.New(t)

	first := Fingerprint("", "go developer", "Acme", "remoteok")
	same := Fingerprint("", "go developer", "acme", "remoteok")
	assert.Equal(first, same)

	otherSource := Fingerprint("", "go developer", "Acme", "remotive")
	assert.NotEqual(first, otherSource)
}

func Test_ClassifyLocation_ShouldMapKnownShapes(t *testing.T) {

	assert := assert.New(t)

	cases := []struct {
		raw        string
		remoteType entities.RemoteType
		region     string
	}{
		{"Remote - Worldwide", entities.RemoteFull, "worldwide"},
		{"Remote (USA only)", entities.RemoteFull, "usa"},
		{"Hybrid, Berlin, Germany", entities.RemoteHybrid, ""},
		{"On-site, London, United Kingdom", entities.RemoteOnsite, "uk"},
		{"Springfield", entities.RemoteUnknown, ""},
		{"", entities.RemoteUnknown, ""},
	}

	for _, c := range cases {
		remoteType, region, _ := classifyLocation(c.raw)
		assert.Equal(c.remoteType, remoteType, "raw: %q", c.raw)
		assert.Equal(c.region, region, "raw: %q", c.raw)
	}
}

func Test_ParseSalaryText_ShouldHandleCommonFormats(t *testing.T) {

	assert := assert.New(t)

	min, max, currency := parseSalaryText("$120k-$150k")
	assert.Equal(120000.0, *min)
	assert.Equal(150000.0, *max)
	assert.Equal("USD", currency)

	min, max, currency = parseSalaryText("R$ 8.000")
	assert.Equal(8000.0, *min)
	assert.Equal(8000.0, *max)
	assert.Equal("BRL", currency)

	min, max, currency = parseSalaryText("€70,000 - €50,000")
	assert.Equal(50000.0, *min)
	assert.Equal(70000.0, *max)
	assert.Equal("EUR", currency)

	min, max, currency = parseSalaryText("competitive")
	assert.Nil(min)
	assert.Nil(max)
	assert.Equal("", currency)
}

func Test_ExtractSalary_WhenStructuredFieldsPresent_ShouldPreferThem(t *testing.T) {

	assert := assert.New(t)

	min, max, currency := extractSalary(map[string]any{
		"salary":          "$1 million",
		"salary_min":      90000.0,
		"salary_max":      110000.0,
		"salary_currency": "usd",
	})
	assert.Equal(90000.0, *min)
	assert.Equal(110000.0, *max)
	assert.Equal("USD", currency)
}

func Test_ParsePostedAt_WhenUnixTimestamp_ShouldDetectSecondsAndMillis(t *testing.T) {

	assert := assert.New(t)

	seconds := parsePostedAt(float64(1741428000), ingestedAt)
	assert.Equal(time.Unix(1741428000, 0).UTC(), seconds)

	millis := parsePostedAt(float64(1741428000000), ingestedAt)
	assert.Equal(time.UnixMilli(1741428000000).UTC(), millis)
}
