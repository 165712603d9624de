package pull

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	daysAgoPattern = regexp.MustCompile(`^(\d+)\s+days?\s+ago$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseSince parses a cutoff date. Accepted formats: "YYYY-MM-DD",
// "yesterday", and "N days ago". The result is midnight UTC.
func ParseSince(s string) (time.Time, error) {
	return parseSinceAt(s, time.Now().UTC())
}

func parseSinceAt(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case s == "yesterday":
		return midnight.AddDate(0, 0, -1), nil

	case strings.HasSuffix(s, "ago"):
		m := daysAgoPattern.FindStringSubmatch(s)
		if m == nil {
			return time.Time{}, fmt.Errorf("invalid date %q: use 'N days ago'", s)
		}
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return midnight.AddDate(0, 0, -days), nil

	case isoDatePattern.MatchString(s):
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t, nil

	default:
		return time.Time{}, fmt.Errorf("invalid date %q: accepted formats are YYYY-MM-DD, yesterday, or 'N days ago'", s)
	}
}
