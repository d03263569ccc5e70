package cycle

import "time"

// NextRun applies one period of the given frequency to the anchor date using
// calendar month arithmetic. Month-end anchors clamp to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29) rather than spilling into the
// following month. An unknown frequency falls back to annual.
func NextRun(anchor time.Time, freq Frequency) time.Time {
	months := 12
	switch freq {
	case FrequencyMonthly:
		months = 1
	case FrequencyQuarterly:
		months = 3
	case FrequencySemiAnnual:
		months = 6
	case FrequencyAnnual:
		months = 12
	}
	return addMonths(anchor, months)
}

// addMonths is AddDate with day-of-month clamping instead of normalization.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// time.Date normalizes out-of-range months, so month+months lands on the
	// first of the correct target month.
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
