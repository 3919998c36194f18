package normalize

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var (
	// bracketRefRe matches footnote markers such as "[13]" or "[ a ]".
	bracketRefRe = regexp.MustCompile(`(?i)\[\s*[0-9a-z]+\s*\]`)

	// relaxedMonthRe matches "june", "jun.", "june 2019" and "june, 2019".
	relaxedMonthRe = regexp.MustCompile(`^([a-z]+)\.?(?:\s*,?\s*(\d{4}))?$`)
)

// SentinelYear is the year given to dates that only name a month.
const SentinelYear = 1900

// Four digit numbers in this range are years; other four digit numbers are
// not dates at all.
const (
	minBareYear = 1900
	maxBareYear = 2100
)

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"1-2-06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/06 15:04",
	"January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-06",
	"02-Jan-2006",
}

// ParseDatetime parses a date strictly, then falls back to month-only text.
// The result is a UTC midnight.
func ParseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseStrictDate(s); ok {
		return t, true
	}
	return parseRelaxedDate(s)
}

func parseStrictDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), true
		}
	}
	// A bare year reads as January 1 of that year, never as an Excel serial.
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil {
			if y < minBareYear || y > maxBareYear {
				return time.Time{}, false
			}
			return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	// Excel serial day numbers survive CSV exports of date cells.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f < 2958466 {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

func parseRelaxedDate(s string) (time.Time, bool) {
	m := relaxedMonthRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := monthByName(m[1])
	if !ok {
		return time.Time{}, false
	}
	year := SentinelYear
	if m[2] != "" {
		y, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, false
		}
		year = y
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

// monthByName accepts full month names and their three letter abbreviations.
func monthByName(name string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) || (name == "sept" && m == time.September) {
			return m, true
		}
	}
	return 0, false
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RepairText undoes UTF-8 text that was decoded as Windows-1252, decodes HTML
// entities and applies NFKC so lookalike characters compare equal.
func RepairText(s string) string {
	s = repairMojibake(s)
	s = html.UnescapeString(s)
	return norm.NFKC.String(s)
}

func repairMojibake(s string) string {
	if !strings.ContainsAny(s, "ÃÂ") && !strings.Contains(s, "â€") {
		return s
	}
	fixed, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil || fixed == s || !utf8.ValidString(fixed) {
		return s
	}
	return fixed
}

// CollapseSpace trims s and folds every whitespace run to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalizeDelimiter rewrites every incorrect delimiter to correct, trims the
// segments and drops empty ones. A lone segment keeps one trailing delimiter,
// which marks an area listed without sub-areas. With an empty correct delimiter
// the incorrect ones are removed without splitting.
func CanonicalizeDelimiter(s, correct string, incorrect []string) string {
	if correct == "" {
		for _, d := range incorrect {
			s = strings.ReplaceAll(s, d, "")
		}
		return s
	}
	for _, d := range incorrect {
		s = strings.ReplaceAll(s, d, correct)
	}

	parts := strings.Split(s, correct)
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 1 && strings.HasSuffix(strings.TrimSpace(s), correct) {
		return kept[0] + correct
	}
	return strings.Join(kept, correct)
}

// StripBracketRefs removes footnote markers and leaves the surrounding text as is.
func StripBracketRefs(s string) string {
	return bracketRefRe.ReplaceAllString(s, "")
}

// StripQuotes removes leading and trailing double quotes, straight or curly.
func StripQuotes(s string) string {
	return strings.Trim(s, "\"“”")
}
