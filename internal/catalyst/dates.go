package catalyst

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date patterns seen in calendar event text, most specific first. Quarter and
// month-year entries have no exact day; they resolve to a mid-quarter or
// mid-month placeholder date.
var (
	reSlashDate = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	reISODate   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	reMonthDay  = regexp.MustCompile(`([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	reQuarter   = regexp.MustCompile(`Q([1-4])\s+(\d{4})`)
	reMonthYear = regexp.MustCompile(`([A-Za-z]+)\s+(\d{4})`)

	reYearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// ParseEventDate extracts a catalyst date from free-form calendar text.
// Returns a zero time when no pattern matches; callers drop such records.
func ParseEventDate(text string) time.Time {
	text = strings.TrimSpace(text)

	if m := reSlashDate.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day); ok {
			return d
		}
	}
	if m := reISODate.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day); ok {
			return d
		}
	}
	if m := reMonthDay.FindStringSubmatch(text); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if d, ok := makeDate(year, int(month), day); ok {
				return d
			}
		}
	}
	if m := reQuarter.FindStringSubmatch(text); m != nil {
		quarter, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		month := (quarter-1)*3 + 2
		return time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
	}
	if m := reMonthYear.FindStringSubmatch(text); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[2])
			return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// ParseISODate parses registry dates. Year-month precision ("2026-03") is
// normalized to the first day of the month. Returns a zero time on failure.
func ParseISODate(s string) time.Time {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	if reYearMonth.MatchString(s) {
		s += "-01"
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return d
}

func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject overflow like Feb 31 -> Mar 3.
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}
