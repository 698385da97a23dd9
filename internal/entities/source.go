package entities

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type SourceType string

const (
	SourceAPI     SourceType = "api"
	SourceRSS     SourceType = "rss"
	SourceScraper SourceType = "scraper"
)

func ToSourceType(s string) (SourceType, error) {
	switch s {
	case string(SourceAPI):
		return SourceAPI, nil
	case string(SourceRSS):
		return SourceRSS, nil
	case string(SourceScraper):
		return SourceScraper, nil
	default:
		return "", errors.Errorf("invalid source type %q", s)
	}
}

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
)

// SourceSettings is the typed per-source configuration. Which fields are
// required depends on the source type; Validate enforces that at the
// registry boundary so workers never see a half-configured source.
type SourceSettings struct {
	URL       string            `json:"url" validate:"required,url"`
	Headers   map[string]string `json:"headers,omitempty"`
	ItemsKey  string            `json:"items_key,omitempty"`
	PageParam string            `json:"page_param,omitempty"`
	MaxPages  int               `json:"max_pages,omitempty"`

	// Scraper selectors. JobSelector is required for scraper sources.
	JobSelector      string `json:"job_selector,omitempty"`
	TitleSelector    string `json:"title_selector,omitempty"`
	CompanySelector  string `json:"company_selector,omitempty"`
	LocationSelector string `json:"location_selector,omitempty"`
	LinkSelector     string `json:"link_selector,omitempty"`

	// DefaultCompany fills the company field for boards that serve a single
	// employer and omit it per posting.
	DefaultCompany string `json:"default_company,omitempty"`
}

// JobSource is one external origin of postings: a structured API, an RSS
// feed or a scraped page. SourceKey is the stable join key and never changes
// after creation. Built-in sources can only be disabled, not deleted.
type JobSource struct {
	ID                uint   `gorm:"primaryKey"`
	SourceKey         string `gorm:"uniqueIndex"`
	Name              string
	Description       string
	Type              SourceType
	IsBuiltIn         bool
	Enabled           bool
	Settings          string
	LastSyncAt        *time.Time
	LastSyncStatus    SyncStatus
	LastSyncJobsCount int
	LastError         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s JobSource) ParsedSettings() (SourceSettings, error) {
	var settings SourceSettings
	if s.Settings == "" {
		return settings, errors.New("source has no settings")
	}
	if err := json.Unmarshal([]byte(s.Settings), &settings); err != nil {
		return settings, errors.Wrap(err, "failed to parse source settings")
	}
	return settings, nil
}

func (s *JobSource) SetSettings(settings SourceSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	s.Settings = string(raw)
	return nil
}
