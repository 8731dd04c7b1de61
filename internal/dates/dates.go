// Package dates normalizes free-form date strings into calendar dates.
//
// The parser scans a string for date-shaped substrings and returns the first
// one that parses. ISO-shaped candidates are read year-month-day; everything
// else is read day-month-year, matching the German-language sites this
// system ingests. Parse is pure: the same input always yields the same date,
// which matters because it runs both at ingestion time and in migration
// tooling.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical is the layout used for formatted dates throughout the system.
const Canonical = "2006-01-02"

// Candidate grammars, tried in source order at each scan position:
// numeric day-month-year, ISO year-month-day, month-name-first
// ("March 3rd, 2023"), day-first with month name ("3. März 2023").
var candidatePattern = regexp.MustCompile(strings.Join([]string{
	`\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`,
	`\d{4}[./-]\d{2}[./-]\d{2}`,
	`\p{L}+[.,]?\s+\d{1,2}(?:st|nd|rd|th)?[.,]?\s*\d{4}`,
	`\d{1,2}(?:st|nd|rd|th)?[.,]?\s*\p{L}+[.,]?\s+\d{4}`,
}, "|"))

var (
	isoPattern     = regexp.MustCompile(`^\d{4}[./-]\d{2}[./-]\d{2}$`)
	numericPattern = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})$`)
	namedPattern   = regexp.MustCompile(`^(?:(\d{1,2})(?:st|nd|rd|th)?[.,]?\s*)?(\p{L}+)[.,]?\s+(?:(\d{1,2})(?:st|nd|rd|th)?[.,]?\s*)?(\d{4})$`)
)

// monthNames maps lowercased English and German month names (and common
// abbreviations) to month numbers.
var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
	"januar": 1, "februar": 2, "märz": 3, "maerz": 3, "mai": 5, "juni": 6,
	"juli": 7, "okt": 10, "oktober": 10, "dez": 12, "dezember": 12,
}

// Parse scans text for date-shaped substrings and returns the first one that
// parses as a calendar date. The boolean is false when no candidate parses.
func Parse(text string) (time.Time, bool) {
	for _, candidate := range candidatePattern.FindAllString(text, -1) {
		if date, ok := parseCandidate(candidate); ok {
			return date, true
		}
	}
	return time.Time{}, false
}

// ParseString is Parse with the result formatted as YYYY-MM-DD, or the empty
// string when no date was found.
func ParseString(text string) string {
	date, ok := Parse(text)
	if !ok {
		return ""
	}
	return date.Format(Canonical)
}

func parseCandidate(candidate string) (time.Time, bool) {
	candidate = strings.TrimSpace(candidate)

	if isoPattern.MatchString(candidate) {
		parts := strings.FieldsFunc(candidate, isDelimiter)
		return makeDate(atoi(parts[0]), atoi(parts[1]), atoi(parts[2]))
	}

	if m := numericPattern.FindStringSubmatch(candidate); m != nil {
		return makeDate(expandYear(atoi(m[3])), atoi(m[2]), atoi(m[1]))
	}

	if m := namedPattern.FindStringSubmatch(candidate); m != nil {
		month, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		day := m[1]
		if day == "" {
			day = m[3]
		}
		if day == "" {
			day = "1"
		}
		return makeDate(atoi(m[4]), month, atoi(day))
	}

	return time.Time{}, false
}

// makeDate builds a UTC midnight date, rejecting out-of-range components
// (time.Date would silently normalize 2023-02-30 into March).
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// expandYear widens two-digit years using the same pivot as the time package.
func expandYear(year int) int {
	if year >= 100 {
		return year
	}
	if year < 69 {
		return year + 2000
	}
	return year + 1900
}

func isDelimiter(r rune) bool {
	return r == '.' || r == '/' || r == '-'
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
