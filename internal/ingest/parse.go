package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/careerpilot/backend/internal/entities"
	"github.com/samber/lo"
)

func classifyLocation(raw string) (entities.RemoteType, string, []string) {

	if raw == "" {
		return entities.RemoteUnknown, "", nil
	}

	lower := strings.ToLower(raw)

	var remoteType entities.RemoteType
	switch {
	case strings.Contains(lower, "hybrid"):
		remoteType = entities.RemoteHybrid
	case strings.Contains(lower, "remote"),
		strings.Contains(lower, "anywhere"),
		strings.Contains(lower, "work from home"),
		strings.Contains(lower, "distributed"):
		remoteType = entities.RemoteFull
	case strings.Contains(lower, "on-site"),
		strings.Contains(lower, "onsite"),
		strings.Contains(lower, "in office"):
		remoteType = entities.RemoteOnsite
	default:
		// free text we cannot classify is preserved verbatim upstream
		return entities.RemoteUnknown, regionFrom(lower), splitLocations(raw)
	}

	return remoteType, regionFrom(lower), splitLocations(raw)
}

// regionTokens map location substrings to a canonical eligibility value.
// Order matters: the first match wins.
var regionTokens = []struct {
	substrings []string
	region     string
}{
	{[]string{"worldwide", "anywhere", "global"}, "worldwide"},
	{[]string{"usa only", "us only", "united states", "usa", "u.s."}, "usa"},
	{[]string{"canada"}, "canada"},
	{[]string{"americas", "north america"}, "americas"},
	{[]string{"latam", "latin america", "south america", "brazil"}, "latam"},
	{[]string{"emea"}, "emea"},
	{[]string{"europe", "european union", " eu ", "(eu)"}, "europe"},
	{[]string{"united kingdom", " uk", "(uk"}, "uk"},
	{[]string{"apac", "asia", "australia"}, "apac"},
}

func regionFrom(lower string) string {
	for _, token := range regionTokens {
		for _, substring := range token.substrings {
			if strings.Contains(lower, substring) {
				return token.region
			}
		}
	}
	return ""
}

func splitLocations(raw string) []string {

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})

	locations := lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(part)
		return trimmed, trimmed != ""
	})
	return locations
}

// currencyMarkers are checked in order; "R$" has to come before "$".
var currencyMarkers = []struct {
	marker   string
	currency string
}{
	{"r$", "BRL"},
	{"brl", "BRL"},
	{"$", "USD"},
	{"usd", "USD"},
	{"€", "EUR"},
	{"eur", "EUR"},
	{"£", "GBP"},
	{"gbp", "GBP"},
	{"₽", "RUB"},
	{"rub", "RUB"},
	{"₹", "INR"},
	{"inr", "INR"},
}

var salaryNumberRegex = regexp.MustCompile(`(\d[\d.,]*)\s*([kK])?`)

func extractSalary(fields map[string]any) (*float64, *float64, string) {

	// structured min/max fields take precedence over free text
	min := numericField(fields, []string{"salary_min", "min_salary", "compensation_min"})
	max := numericField(fields, []string{"salary_max", "max_salary", "compensation_max"})
	if min != nil || max != nil {
		currency := strings.ToUpper(stringField(fields, []string{"salary_currency", "currency"}))
		return min, max, currency
	}

	raw := stringField(fields, salaryKeys)
	if raw == "" {
		return nil, nil, ""
	}
	return parseSalaryText(raw)
}

// parseSalaryText handles formats like "$120k-$150k", "R$ 8.000" or
// "€50,000 - €70,000". Anything it cannot read yields nil bounds; a wrong
// number is worse than no number.
func parseSalaryText(raw string) (*float64, *float64, string) {

	lower := strings.ToLower(raw)

	currency := ""
	for _, marker := range currencyMarkers {
		if strings.Contains(lower, marker.marker) {
			currency = marker.currency
			break
		}
	}

	matches := salaryNumberRegex.FindAllStringSubmatch(raw, 2)
	var amounts []float64
	for _, match := range matches {
		amount, ok := parseAmount(match[1])
		if !ok {
			continue
		}
		if match[2] != "" {
			amount *= 1000
		}
		amounts = append(amounts, amount)
	}

	switch len(amounts) {
	case 0:
		return nil, nil, ""
	case 1:
		return &amounts[0], &amounts[0], currency
	default:
		if amounts[0] > amounts[1] {
			amounts[0], amounts[1] = amounts[1], amounts[0]
		}
		return &amounts[0], &amounts[1], currency
	}
}

var thousandsGroupedRegex = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)

func parseAmount(token string) (float64, bool) {

	// "8.000" and "50,000" are thousands-grouped integers, not decimals
	if thousandsGroupedRegex.MatchString(token) {
		token = strings.NewReplacer(".", "", ",", "").Replace(token)
	} else {
		token = strings.ReplaceAll(token, ",", "")
	}

	amount, err := strconv.ParseFloat(token, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func numericField(fields map[string]any, keys []string) *float64 {
	value := fieldValue(fields, keys)
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case float64:
		if v > 0 {
			return &v
		}
	case int:
		f := float64(v)
		if f > 0 {
			return &f
		}
	case string:
		if amount, ok := parseAmount(strings.TrimSpace(v)); ok {
			return &amount
		}
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02 Jan 2006",
}

var relativeDateRegex = regexp.MustCompile(`(?i)(\d+)\s*(minute|hour|day|week|month)s?\s+ago`)

// parsePostedAt resolves both absolute timestamps and relative strings like
// "2 days ago" against the ingestion time. An unreadable date falls back to
// the ingestion time rather than rejecting the posting.
func parsePostedAt(value any, now time.Time) time.Time {

	switch v := value.(type) {
	case nil:
		return now
	case float64:
		// json numbers are unix timestamps, in seconds or milliseconds
		if v > 1e12 {
			return time.UnixMilli(int64(v)).UTC()
		}
		if v > 0 {
			return time.Unix(int64(v), 0).UTC()
		}
		return now
	case string:
		return parseDateString(v, now)
	default:
		return now
	}
}

func parseDateString(raw string, now time.Time) time.Time {

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}

	lower := strings.ToLower(raw)
	switch lower {
	case "today", "just now":
		return now
	case "yesterday":
		return now.AddDate(0, 0, -1)
	}

	if match := relativeDateRegex.FindStringSubmatch(lower); match != nil {
		amount, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "minute":
			return now.Add(-time.Duration(amount) * time.Minute)
		case "hour":
			return now.Add(-time.Duration(amount) * time.Hour)
		case "day":
			return now.AddDate(0, 0, -amount)
		case "week":
			return now.AddDate(0, 0, -amount*7)
		case "month":
			return now.AddDate(0, -amount, 0)
		}
	}

	return now
}

func normalizeSkills(value any) []string {

	var items []string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		items = strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ';'
		})
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case []string:
		items = v
	default:
		return nil
	}

	normalized := lo.FilterMap(items, func(item string, _ int) (string, bool) {
		trimmed := strings.ToLower(strings.TrimSpace(item))
		return trimmed, trimmed != ""
	})
	return lo.Uniq(normalized)
}
