package entities

import (
	"strings"
	"time"
)

type RemoteType string

const (
	RemoteFull    RemoteType = "remote"
	RemoteHybrid  RemoteType = "hybrid"
	RemoteOnsite  RemoteType = "onsite"
	RemoteUnknown RemoteType = "unknown"
)

type JobStatus string

const (
	JobActive JobStatus = "active"
	JobStale  JobStatus = "stale"
)

// Job is the canonical, source-agnostic posting kept after normalization.
// Fingerprint identifies the same real-world job across repeated syncs.
type Job struct {
	ID              uint   `gorm:"primaryKey"`
	Fingerprint     string `gorm:"uniqueIndex"`
	Title           string
	NormalizedTitle string
	CompanyName     string
	Locations       string
	LocationRaw     string
	RemoteType      RemoteType
	RemoteRegion    string
	EmploymentType  string
	Seniority       string
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryCurrency  string
	PostedAt        time.Time
	Description     string
	ApplyURL        string
	Skills          string
	SourceKey       string
	Status          JobStatus
	LastSeenAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (j Job) SkillsAsArray() []string {
	return splitList(j.Skills)
}

func (j Job) LocationsAsArray() []string {
	return splitList(j.Locations)
}

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

func JoinList(items []string) string {
	return strings.Join(items, ",")
}
