// Copyright (c) 2026 Aria. All rights reserved.

// Package format provides pure string formatting helpers for durations and
// partial-precision release dates.
//
// # Overview
//
// Release dates in the catalog are stored as ISO-8601 prefixes of varying
// precision ("2021", "2021-05", "2021-05-03"). These helpers render them for
// display and format track durations for the music player.
package format

import (
	"fmt"
	"time"
)

// UnknownReleaseDate is rendered when a release date is absent or unparsable.
const UnknownReleaseDate = "Unknown release date"

// ISOPrecision selects how many leading characters of an ISO-8601 string are
// significant.
type ISOPrecision int

const (
	PrecisionYear        ISOPrecision = 4
	PrecisionMonth       ISOPrecision = 7
	PrecisionDay         ISOPrecision = 10
	PrecisionMinute      ISOPrecision = 16
	PrecisionSecond      ISOPrecision = 19
	PrecisionMillisecond ISOPrecision = 23
)

// SecondsToClock renders a duration in whole seconds as a clock string.
//
//	0     → "0:00"
//	75    → "1:15"
//	3600  → "1:00:00"
//
// Negative input is clamped to "0:00".
func SecondsToClock(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// TruncateISO truncates an ISO-8601 string to the requested precision.
//
// Strings shorter than the requested precision are returned unchanged.
func TruncateISO(iso string, precision ISOPrecision) string {
	n := int(precision)
	if len(iso) <= n {
		return iso
	}
	return iso[:n]
}

// IsPartialDate reports whether a string is a well-formed partial-precision
// release date: "YYYY", "YYYY-MM" or "YYYY-MM-DD".
func IsPartialDate(date string) bool {
	switch len(date) {
	case 4:
		_, err := time.Parse("2006", date)
		return err == nil
	case 7:
		_, err := time.Parse("2006-01", date)
		return err == nil
	case 10:
		_, err := time.Parse("2006-01-02", date)
		return err == nil
	}
	return false
}

// ReleaseDate renders a partial-precision release date for display.
//
//	""            → "Unknown release date"
//	"2021"        → "2021"
//	"2021-05"     → "May 2021"
//	"2021-05-03"  → "May 3, 2021"
//
// Anything that fails to parse at its apparent precision falls back to
// [UnknownReleaseDate].
func ReleaseDate(date string) string {
	switch len(date) {
	case 4:
		if _, err := time.Parse("2006", date); err == nil {
			return date
		}
	case 7:
		if t, err := time.Parse("2006-01", date); err == nil {
			return t.Format("January 2006")
		}
	default:
		if len(date) >= 10 {
			if t, err := time.Parse("2006-01-02", date[:10]); err == nil {
				return t.Format("January 2, 2006")
			}
		}
	}
	return UnknownReleaseDate
}
