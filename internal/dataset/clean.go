package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var papDistrictNames = map[string]string{
	"MUSANZE":    "Musanze",
	"KICUKIRO":   "Kicukiro",
	"Gasbo":      "Gasabo",
	"Gasabo-":    "Gasabo",
	"Nyarungege": "Nyarugenge",
}

var papSiteNames = map[string]string{
	"Gasabo- Wetland": "Gasabo-Wetland",
}

var workerPaymentFrequencies = map[string]string{
	"Monthly + 5 days":                     "Monthly",
	"Monthly + 3 days":                     "Monthly",
	"Mixed (some monthly, some bi-weekly)": "Bi-weekly",
}

// Site categories of worker interview sites
const (
	CategoryInformal  = "Informal Settlement"
	CategoryWetland   = "Wetland / Flood Risk"
	CategorySecondary = "Secondary City"
	CategoryOther     = "Other"
)

var siteCategories = map[string]string{
	"Nyagatovu":                  CategoryInformal,
	"Gatenga":                    CategoryInformal,
	"Kinyinya":                   CategoryInformal,
	"Rugunga":                    CategoryWetland,
	"Rwandex":                    CategoryWetland,
	"Gikondo":                    CategoryWetland,
	"Gasabo-kicyiru":             CategoryWetland,
	"Nyarugenge- Gasabo- Muhima": CategoryWetland,
	"Rwampala":                   CategoryWetland,
	"Cyuve":                      CategorySecondary,
	"Muhanga":                    CategorySecondary,
	"Huye":                       CategorySecondary,
	"Kigarama":                   CategorySecondary,
	"Nguga":                      CategorySecondary,
	"Outlet roundabout":          CategorySecondary,
	"Gacamahembe":                CategorySecondary,
}

var companyShortNames = map[string]string{
	"NPD LTD / Jv prominent Engineering solutions and United Contractors LTD": "NPD LTD (JV)",
	"CRB/ PROMINENT ENG SOLUTION AND UNITED CONTRACTORS":                      "CRBC (JV)",
	"CRBC china road and bridge corporation/Net consult PLC":                  "CRBC/NET",
	"CRBC /NET CONSULTANT PLC":                                                "CRBC/NET",
	"CRBC / NET consultant PLC":                                               "CRBC/NET",
	"NPD/ UNITER CONTRACTORS":                                                 "NPD (JV)",
}

func remap(s string, names map[string]string) string {
	if v, ok := names[s]; ok {
		return v
	}
	return s
}

// CleanPAPDistrict fixes the spelling variants found in PAP interviews
func CleanPAPDistrict(s string) string {
	return remap(strings.TrimSpace(s), papDistrictNames)
}

// SiteCategory classifies a worker site; unknown sites are CategoryOther
func SiteCategory(site string) string {
	if c, ok := siteCategories[strings.TrimSpace(site)]; ok {
		return c
	}
	return CategoryOther
}

// CompanyShortName maps a registered contractor name to its dashboard label
func CompanyShortName(company string) string {
	return strings.TrimSpace(remap(company, companyShortNames))
}

// NormalizePaymentFrequency folds payment schedule variants
func NormalizePaymentFrequency(s string) string {
	return remap(s, workerPaymentFrequencies)
}

// TitleCase normalises a place name to NFC title case ("GASABO " -> "Gasabo")
func TitleCase(s string) string {
	// a Caser must not be shared between goroutines
	caser := cases.Title(language.English)
	return caser.String(norm.NFC.String(strings.TrimSpace(s)))
}

// DistrictKey is the join key between PAPs, GRC and district summaries:
// lower-cased, trimmed, with any "district" suffix removed.
func DistrictKey(name string) string {
	k := strings.ToLower(strings.TrimSpace(norm.NFC.String(name)))
	k = strings.ReplaceAll(k, " district", "")
	k = strings.ReplaceAll(k, "district", "")
	return strings.TrimSpace(k)
}

// ResolutionCategory buckets the free-text GRC resolution time
func ResolutionCategory(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "day"):
		return "Within 1 day"
	case strings.Contains(t, "week") && !strings.Contains(t, "month"):
		return "1 week"
	case strings.Contains(t, "month"):
		return "1 month"
	case strings.Contains(t, "no complaint"):
		return "No complaints"
	default:
		return "Variable"
	}
}

// KnowsGRC reports whether a grievance channel answer names the committee
func KnowsGRC(channel string) bool {
	return strings.Contains(channel, "Grievance Redress") || strings.Contains(channel, "GRC")
}

// IsYes accepts the affirmative spellings used across the survey files
func IsYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "1.0":
		return true
	}
	return false
}

// IsNo accepts the negative spellings used across the survey files
func IsNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no", "false", "0", "0.0":
		return true
	}
	return false
}

func parseNumber(s string) float64 {
	v, _ := parseNumberOK(s)
	return v
}

func parseNumberOK(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2 January 2006",
	"January 2, 2006",
}

// parseDate accepts the date formats seen in interview exports.
// Unparseable values give the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func percentOf(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

func capAt(v, hi float64) float64 {
	return math.Min(v, hi)
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// shareTrue is the percentage of set flags
func shareTrue(flags []bool) float64 {
	return percentOf(float64(countTrue(flags)), float64(len(flags)))
}
