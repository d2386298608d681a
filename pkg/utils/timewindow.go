package utils

import "time"

// SecondsPerYear is the convention used for annualized-rate windows:
// 365 days of 24 hours.
const SecondsPerYear = 365 * 24 * 3600

// SecondsPerDay is one 24-hour day in seconds.
const SecondsPerDay = 24 * 3600

// LookbackStart returns the unix timestamp lookbackDays before now.
func LookbackStart(now time.Time, lookbackDays int) int64 {
	return now.UTC().Unix() - int64(lookbackDays)*SecondsPerDay
}

// DayFloor truncates a unix timestamp to the start of its UTC day.
func DayFloor(unixSec int64) int64 {
	return unixSec - unixSec%SecondsPerDay
}

// FormatDay renders a unix timestamp as a UTC calendar date (2006-01-02).
func FormatDay(unixSec int64) string {
	return time.Unix(unixSec, 0).UTC().Format("2006-01-02")
}

// FormatDateTimeUTC renders a time for display in logs and reports.
func FormatDateTimeUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
