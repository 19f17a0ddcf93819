package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

var hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseTimeOfDay converts "HH:MM" into minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	m := hhmmRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("time %q must be in HH:MM format (00:00-23:59)", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}

// FormatTimeOfDay renders minutes since midnight as "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatTimeOfDay12h renders minutes since midnight as "h:mm AM".
func FormatTimeOfDay12h(minutes int) string {
	h, m := minutes/60, minutes%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be in YYYY-MM-DD format", s)
	}
	return d, nil
}
