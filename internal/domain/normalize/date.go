package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DateKind tells a caller whether Date produced an ISO date or gave up.
type DateKind int

const (
	// DateUnchanged means the input was not recognized and is returned as-is.
	DateUnchanged DateKind = iota
	// DateNormalized means Value is an ISO YYYY-MM-DD date.
	DateNormalized
)

func (k DateKind) String() string {
	if k == DateNormalized {
		return "normalized"
	}
	return "unchanged"
}

// DateResult is the outcome of normalizing one raw date string.
type DateResult struct {
	Value string
	Kind  DateKind
}

// IsNormalized reports whether Value is an ISO date.
func (r DateResult) IsNormalized() bool {
	return r.Kind == DateNormalized
}

var (
	reISODate   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reLongDate  = regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)\s+(\d{4})$`)
	reShortDate = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// months maps English and Afrikaans month names to their number.
var months = map[string]int{
	"january": 1, "januarie": 1,
	"february": 2, "februarie": 2,
	"march": 3, "maart": 3,
	"april": 4,
	"may": 5, "mei": 5,
	"june": 6, "junie": 6,
	"july": 7, "julie": 7,
	"august": 8, "augustus": 8,
	"september": 9,
	"october": 10, "oktober": 10,
	"november": 11,
	"december": 12, "desember": 12,
}

// Date normalizes a raw date to ISO form. Recognized inputs, in order:
// "YYYY-MM-DD", "D Month YYYY" (English or Afrikaans month names) and
// "D-M-YYYY" (day first). Only four-digit years are accepted and day/month
// values must be in calendar range. Anything else comes back unchanged.
func Date(raw string) DateResult {
	s := strings.TrimSpace(raw)

	if m := reISODate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		if iso, ok := isoDate(m[1], month, m[3]); ok {
			return DateResult{Value: iso, Kind: DateNormalized}
		}
		return DateResult{Value: raw, Kind: DateUnchanged}
	}

	if m := reLongDate.FindStringSubmatch(s); m != nil {
		if month, ok := months[strings.ToLower(m[2])]; ok {
			if iso, ok := isoDate(m[3], month, m[1]); ok {
				return DateResult{Value: iso, Kind: DateNormalized}
			}
		}
	}

	if m := reShortDate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		if iso, ok := isoDate(m[3], month, m[1]); ok {
			return DateResult{Value: iso, Kind: DateNormalized}
		}
	}

	return DateResult{Value: raw, Kind: DateUnchanged}
}

// DateString is Date without the result kind.
func DateString(raw string) string {
	return Date(raw).Value
}

func isoDate(year string, month int, day string) (string, bool) {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, d), true
}
