package transform

import (
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const compactDateLayout = "20060102"

// Epoch seconds outside [2001-09-09, 2100-01-01] are not dates either system
// produces.
const (
	minEpoch = 1_000_000_000
	maxEpoch = 4_102_444_800
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseTime reads the date and timestamp shapes seen in both remote systems,
// including Unix epoch seconds as a number or numeric string and compact
// YYYYMMDD dates. Values without
// a zone are taken as UTC.
func ParseTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if isDigits(v) {
		if len(v) == len(compactDateLayout) {
			t, err := time.Parse(compactDateLayout, v)
			return t, err == nil
		}
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil || secs < minEpoch || secs > maxEpoch {
			return time.Time{}, false
		}
		return time.Unix(secs, 0).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate is ParseTime truncated to the calendar date. It returns nil for
// anything it cannot read.
func ParseDate(v string) *time.Time {
	t, ok := ParseTime(v)
	if !ok {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// NormalizeDate returns v as YYYY-MM-DD, or false when it is not a date.
func NormalizeDate(v string) (string, bool) {
	d := ParseDate(v)
	if d == nil {
		return "", false
	}
	return d.Format(DateLayout), true
}

// FormatDate renders t as YYYY-MM-DD; nil gives nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
