package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextRun(t *testing.T) {
	cases := []struct {
		name   string
		anchor time.Time
		freq   Frequency
		want   time.Time
	}{
		{"monthly mid-month", date(2025, time.January, 15), FrequencyMonthly, date(2025, time.February, 15)},
		{"monthly clamps to end of February", date(2025, time.January, 31), FrequencyMonthly, date(2025, time.February, 28)},
		{"monthly clamps to leap-year February", date(2024, time.January, 31), FrequencyMonthly, date(2024, time.February, 29)},
		{"monthly across year boundary", date(2025, time.December, 10), FrequencyMonthly, date(2026, time.January, 10)},
		{"quarterly", date(2025, time.January, 10), FrequencyQuarterly, date(2025, time.April, 10)},
		{"quarterly clamps", date(2024, time.November, 30), FrequencyQuarterly, date(2025, time.February, 28)},
		{"semi-annual", date(2025, time.March, 1), FrequencySemiAnnual, date(2025, time.September, 1)},
		{"semi-annual clamps", date(2025, time.August, 31), FrequencySemiAnnual, date(2026, time.February, 28)},
		{"annual", date(2025, time.June, 15), FrequencyAnnual, date(2026, time.June, 15)},
		{"annual from leap day", date(2024, time.February, 29), FrequencyAnnual, date(2025, time.February, 28)},
		{"unknown frequency falls back to annual", date(2025, time.June, 15), Frequency("WEEKLY"), date(2026, time.June, 15)},
		{"empty frequency falls back to annual", date(2025, time.June, 15), Frequency(""), date(2026, time.June, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextRun(tc.anchor, tc.freq)
			assert.True(t, got.Equal(tc.want), "got %s, want %s", got, tc.want)
		})
	}
}

func TestNextRun_IsMonotonicAndDeterministic(t *testing.T) {
	anchors := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.January, 31),
		date(2024, time.February, 29),
		date(2025, time.December, 31),
	}
	freqs := []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual}

	for _, anchor := range anchors {
		for _, freq := range freqs {
			first := NextRun(anchor, freq)
			second := NextRun(anchor, freq)
			require.True(t, first.After(anchor), "%s + %s must be after the anchor", anchor, freq)
			require.True(t, first.Equal(second), "same input must give the same result")
		}
	}
}

func TestNextRun_PreservesTimeOfDay(t *testing.T) {
	anchor := time.Date(2025, time.January, 10, 9, 30, 0, 0, time.UTC)
	got := NextRun(anchor, FrequencyQuarterly)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())
}
