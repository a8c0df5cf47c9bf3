package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

var hhmmPattern = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), loc)
}

// NormalizeTime extracts "HH:MM" from inputs like "8:00", "08:00" or "08:00 NPT".
func NormalizeTime(t string) (string, error) {
	m := hhmmPattern.FindStringSubmatch(strings.TrimSpace(t))
	if len(m) < 3 {
		return "", errors.New("invalid time format (expected HH:MM)")
	}
	parsed, err := time.Parse("15:04", m[0])
	if err != nil {
		parsed, err = time.Parse("3:04", m[0])
		if err != nil {
			return "", errors.New("invalid time format (expected HH:MM)")
		}
	}
	return parsed.Format("15:04"), nil
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layoutDateTime)
}
