package match

import (
	"sort"
	"strings"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/samber/lo"
)

// Factor names used in score breakdowns.
const (
	FactorSkills      = "skills"
	FactorTitle       = "title_keywords"
	FactorDescription = "description_keywords"
	FactorRegion      = "region"
	FactorRecency     = "recency"
)

// Weights tune how much each factor contributes. The factor set and its
// monotonicity are fixed; the numbers are policy.
type Weights struct {
	Skills      float64
	Title       float64
	Description float64
	Region      float64
	Recency     float64
}

func DefaultWeights() Weights {
	return Weights{
		Skills:      40,
		Title:       25,
		Description: 10,
		Region:      15,
		Recency:     10,
	}
}

// recencyWindowDays is the age past which a posting earns no recency boost.
const recencyWindowDays = 30.0

type Result struct {
	Job       entities.Job       `json:"job"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

type Ranker struct {
	weights Weights
}

func NewRanker(weights Weights) *Ranker {
	return &Ranker{weights: weights}
}

// Rank scores jobs against a profile and returns them ordered by descending
// score, ties broken by more recent posting date. Jobs from excluded
// companies are dropped before scoring. An empty profile still yields a
// valid ordering driven by recency alone.
func (r *Ranker) Rank(jobs []entities.Job, profile entities.JobProfile, now time.Time, limit int) []Result {

	excluded := lo.Map(profile.ExcludedCompaniesAsArray(), func(company string, _ int) string {
		return strings.ToLower(strings.TrimSpace(company))
	})

	results := make([]Result, 0, len(jobs))
	for _, job := range jobs {

		if lo.Contains(excluded, strings.ToLower(job.CompanyName)) {
			continue
		}

		breakdown := r.score(job, profile, now)
		total := 0.0
		for _, contribution := range breakdown {
			total += contribution
		}

		results = append(results, Result{Job: job, Score: total, Breakdown: breakdown})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Job.PostedAt.Equal(results[j].Job.PostedAt) {
			return results[i].Job.PostedAt.After(results[j].Job.PostedAt)
		}
		return results[i].Job.Fingerprint < results[j].Job.Fingerprint
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (r *Ranker) score(job entities.Job, profile entities.JobProfile, now time.Time) map[string]float64 {

	breakdown := map[string]float64{}

	if contribution := r.skillOverlap(job, profile); contribution > 0 {
		breakdown[FactorSkills] = contribution
	}

	titleHit, descriptionHit := r.keywordMatch(job, profile)
	if titleHit > 0 {
		breakdown[FactorTitle] = titleHit
	} else if descriptionHit > 0 {
		breakdown[FactorDescription] = descriptionHit
	}

	if contribution := r.regionMatch(job, profile); contribution > 0 {
		breakdown[FactorRegion] = contribution
	}

	if contribution := r.recencyBoost(job, now); contribution > 0 {
		breakdown[FactorRecency] = contribution
	}

	return breakdown
}

// skillOverlap grows with the fraction of profile skills found in the job's
// skill set or description text.
func (r *Ranker) skillOverlap(job entities.Job, profile entities.JobProfile) float64 {

	profileSkills := profile.SkillsAsArray()
	if len(profileSkills) == 0 {
		return 0
	}

	jobSkills := lo.SliceToMap(job.SkillsAsArray(), func(skill string) (string, struct{}) {
		return strings.ToLower(skill), struct{}{}
	})
	description := strings.ToLower(job.Description)

	overlap := 0
	for _, skill := range profileSkills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, found := jobSkills[skill]; found {
			overlap++
		} else if strings.Contains(description, skill) {
			overlap++
		}
	}

	return r.weights.Skills * float64(overlap) / float64(len(profileSkills))
}

// keywordMatch rewards role keywords in the title more than in the
// description; only the stronger of the two counts.
func (r *Ranker) keywordMatch(job entities.Job, profile entities.JobProfile) (float64, float64) {

	keywords := append(profile.RoleKeywordsAsArray(), profile.TargetTitlesAsArray()...)
	if len(keywords) == 0 {
		return 0, 0
	}

	title := strings.ToLower(job.Title)
	description := strings.ToLower(job.Description)

	inDescription := false
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(title, keyword) {
			return r.weights.Title, 0
		}
		if strings.Contains(description, keyword) {
			inDescription = true
		}
	}

	if inDescription {
		return 0, r.weights.Description
	}
	return 0, 0
}

// regionMatch grades eligibility: an exact region match beats a worldwide
// posting, which beats no statement at all.
func (r *Ranker) regionMatch(job entities.Job, profile entities.JobProfile) float64 {

	preferred := profile.PreferredRegionsAsArray()
	if len(preferred) == 0 {
		return 0
	}

	jobRegion := strings.ToLower(job.RemoteRegion)
	if jobRegion == "" {
		return 0
	}

	for _, region := range preferred {
		if strings.EqualFold(strings.TrimSpace(region), jobRegion) {
			return r.weights.Region
		}
	}

	if jobRegion == "worldwide" {
		return r.weights.Region / 2
	}

	return 0
}

func (r *Ranker) recencyBoost(job entities.Job, now time.Time) float64 {

	if job.PostedAt.IsZero() || job.PostedAt.After(now) {
		return 0
	}

	ageDays := now.Sub(job.PostedAt).Hours() / 24
	if ageDays >= recencyWindowDays {
		return 0
	}

	return r.weights.Recency * (1 - ageDays/recencyWindowDays)
}
