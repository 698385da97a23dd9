package entities

import "time"

// JobProfile holds one user's matching preferences. UserID comes from the
// identity provider; at most one profile exists per user. An absent profile
// is equivalent to an empty preference set.
type JobProfile struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            string `gorm:"uniqueIndex"`
	Skills            string
	RoleKeywords      string
	PreferredRegions  string
	ExcludedCompanies string
	TargetTitles      string
	Seniority         string
	SalaryMin         *float64
	SalaryCurrency    string
	ContextText       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p JobProfile) SkillsAsArray() []string            { return splitList(p.Skills) }
func (p JobProfile) RoleKeywordsAsArray() []string      { return splitList(p.RoleKeywords) }
func (p JobProfile) PreferredRegionsAsArray() []string  { return splitList(p.PreferredRegions) }
func (p JobProfile) ExcludedCompaniesAsArray() []string { return splitList(p.ExcludedCompanies) }
func (p JobProfile) TargetTitlesAsArray() []string      { return splitList(p.TargetTitles) }
