package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-03-01", "2025-03-01", true},
		{"2025-03-01T10:20:30Z", "2025-03-01", true},
		{"2025-03-01T23:20:30-05:00", "2025-03-01", true},
		{"2025-03-01 10:20:30", "2025-03-01", true},
		{"2025-03-01T10:20:30", "2025-03-01", true},
		{"2025-03-01T10:20:30.123Z", "2025-03-01", true},
		{"01/03/2025", "2025-03-01", true},
		{"1740787200", "2025-03-01", true},
		{"  2025-03-01  ", "2025-03-01", true},
		{"", "", false},
		{"0", "", false},
		{"20250115", "2025-01-15", true},
		{"20251345", "", false},
		{"99999999999999", "", false},
		{"4102444801", "", false},
		{"999999999", "", false},
		{"not a date", "", false},
		{"2025-13-45", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := NormalizeDate(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTime_KeepsClock(t *testing.T) {
	got, ok := ParseTime("2025-02-03 14:30:00")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 3, 14, 30, 0, 0, time.UTC), got)
}

func TestParseDate_Truncates(t *testing.T) {
	d := ParseDate("2025-02-03 14:30:00")
	if assert.NotNil(t, d) {
		assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), *d)
	}
	assert.Nil(t, ParseDate("garbage"))
}

func TestFormatDate(t *testing.T) {
	assert.Nil(t, FormatDate(nil))
	d := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1990-05-17", *FormatDate(&d))
}
