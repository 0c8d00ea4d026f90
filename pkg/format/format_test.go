// Copyright (c) 2026 Aria. All rights reserved.

package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soramiya/aria/pkg/format"
)

/*
TestSecondsToClock verifies duration rendering across the minute/hour boundary.
*/
func TestSecondsToClock(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    string
	}{
		{"zero", 0, "0:00"},
		{"negative_clamped", -5, "0:00"},
		{"under_a_minute", 9, "0:09"},
		{"minutes", 75, "1:15"},
		{"just_under_an_hour", 3599, "59:59"},
		{"exactly_one_hour", 3600, "1:00:00"},
		{"hours", 3675, "1:01:15"},
		{"many_hours", 36615, "10:10:15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.SecondsToClock(tt.seconds))
		})
	}
}

/*
TestTruncateISO verifies that each precision keeps exactly its prefix length.
*/
func TestTruncateISO(t *testing.T) {
	const iso = "2021-05-03T12:34:56.789Z"

	tests := []struct {
		name      string
		precision format.ISOPrecision
		want      string
	}{
		{"year", format.PrecisionYear, "2021"},
		{"month", format.PrecisionMonth, "2021-05"},
		{"day", format.PrecisionDay, "2021-05-03"},
		{"minute", format.PrecisionMinute, "2021-05-03T12:34"},
		{"second", format.PrecisionSecond, "2021-05-03T12:34:56"},
		{"millisecond", format.PrecisionMillisecond, "2021-05-03T12:34:56.789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.TruncateISO(iso, tt.precision))
		})
	}

	// Shorter input than the requested precision is returned unchanged.
	assert.Equal(t, "2021", format.TruncateISO("2021", format.PrecisionDay))
}

/*
TestReleaseDate verifies display rendering of partial-precision dates.
*/
func TestReleaseDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"empty", "", format.UnknownReleaseDate},
		{"garbage", "not-a-date", format.UnknownReleaseDate},
		{"year_only", "2021", "2021"},
		{"year_month", "2021-05", "May 2021"},
		{"full_date", "2021-05-03", "May 3, 2021"},
		{"timestamp_prefix", "2021-05-03T00:00:00Z", "May 3, 2021"},
		{"bad_month", "2021-13", format.UnknownReleaseDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.ReleaseDate(tt.date))
		})
	}
}
