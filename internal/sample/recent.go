package sample

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	koreanDateRe  = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	numericDateRe = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
)

// IsRecent reports whether date falls within the last months months of now.
// A missing or unparseable date counts as recent so that sources are not
// filtered out on missing metadata.
func IsRecent(date string, now time.Time, months int) bool {
	t, ok := ParseDate(date, now.Location())
	if !ok {
		return true
	}
	return !t.Before(now.AddDate(0, -months, 0))
}

// ParseDate understands RFC 3339 timestamps, Y-M-D with '-', '/' or '.'
// separators and the Korean "YYYY년 M월 D일" form.
func ParseDate(date string, loc *time.Location) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	if strings.Contains(date, "년") {
		if m := koreanDateRe.FindStringSubmatch(date); m != nil {
			return ymd(m[1], m[2], m[3], loc)
		}
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t, true
	}
	if m := numericDateRe.FindStringSubmatch(date); m != nil {
		return ymd(m[1], m[2], m[3], loc)
	}
	return time.Time{}, false
}

func ymd(y, m, d string, loc *time.Location) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}
