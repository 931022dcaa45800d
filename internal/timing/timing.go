// Package timing maps subscription frequencies to recurrence rules and
// computes when the next notification becomes eligible.
package timing

import (
	"time"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const dayHours = 24

const (
	// CronHourly fires at the top of every hour.
	CronHourly = "0 * * * *"
	// CronDaily fires at 08:00 every day.
	CronDaily = "0 8 * * *"
)

// CronRule returns the cron expression for a frequency. An unrecognized
// frequency falls back to the daily rule; create already rejects unknown
// values, so this only guards rows edited out-of-band.
func CronRule(frequency models.Frequency) string {
	switch frequency {
	case models.FrequencyHourly:
		return CronHourly
	case models.FrequencyDaily:
		return CronDaily
	default:
		return CronDaily
	}
}

// NextScheduledTime returns when the next send becomes eligible. A nil
// lastSentAt means the subscription has never been notified and is eligible
// immediately.
func NextScheduledTime(frequency models.Frequency, lastSentAt *time.Time) time.Time {
	if lastSentAt == nil {
		return time.Now()
	}

	switch frequency {
	case models.FrequencyHourly:
		return lastSentAt.Add(time.Hour)
	case models.FrequencyDaily:
		return lastSentAt.Add(dayHours * time.Hour)
	default:
		return lastSentAt.Add(dayHours * time.Hour)
	}
}

// IsDue reports whether a scheduled time has been reached. Nil means the
// subscription was never scheduled and is due immediately.
func IsDue(nextScheduledAt *time.Time) bool {
	if nextScheduledAt == nil {
		return true
	}
	return !nextScheduledAt.After(time.Now())
}
