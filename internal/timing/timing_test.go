package timing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
	"github.com/omarchenko-dev/weather-subscription-service/internal/timing"
)

func TestCronRule(t *testing.T) {
	cases := []struct {
		name      string
		frequency models.Frequency
		want      string
	}{
		{"hourly", models.FrequencyHourly, "0 * * * *"},
		{"daily", models.FrequencyDaily, "0 8 * * *"},
		{"unknown falls back to daily", models.Frequency("weekly"), "0 8 * * *"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timing.CronRule(tc.frequency))
		})
	}
}

func TestNextScheduledTime_NeverSent(t *testing.T) {
	for _, freq := range []models.Frequency{
		models.FrequencyHourly, models.FrequencyDaily, models.Frequency("weekly"),
	} {
		before := time.Now()
		got := timing.NextScheduledTime(freq, nil)
		after := time.Now()

		assert.False(t, got.Before(before), "frequency %s", freq)
		assert.False(t, got.After(after), "frequency %s", freq)
	}
}

func TestNextScheduledTime_FromLastSent(t *testing.T) {
	lastSent := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		frequency models.Frequency
		want      time.Time
	}{
		{"hourly adds one hour", models.FrequencyHourly, lastSent.Add(time.Hour)},
		{"daily adds one day", models.FrequencyDaily, lastSent.Add(24 * time.Hour)},
		{"unknown adds one day", models.Frequency("weekly"), lastSent.Add(24 * time.Hour)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timing.NextScheduledTime(tc.frequency, &lastSent))
		})
	}
}

func TestIsDue(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	assert.True(t, timing.IsDue(nil))
	assert.True(t, timing.IsDue(&past))
	assert.False(t, timing.IsDue(&future))
}
