package models

import "time"

// Frequency is the cadence at which a confirmed subscription receives updates.
type Frequency string

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
)

// IsValid reports whether the frequency is one of the supported cadences.
func (f Frequency) IsValid() bool {
	return f == FrequencyHourly || f == FrequencyDaily
}

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusPending      Status = "pending"
	StatusConfirmed    Status = "confirmed"
	StatusUnsubscribed Status = "unsubscribed"
)

type Subscription struct {
	ID              string
	Email           string
	City            string
	Frequency       Frequency
	Status          Status
	Token           string
	TokenExpiry     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastSentAt      *time.Time
	NextScheduledAt *time.Time
}

// SubscriptionUpdate carries a partial update; nil fields are left untouched.
type SubscriptionUpdate struct {
	Status      *Status
	Token       *string
	TokenExpiry *time.Time
}

// SubscriptionView is the caller-facing projection of a subscription.
// The token and its expiry are never exposed.
type SubscriptionView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	City      string    `json:"city"`
	Frequency Frequency `json:"frequency"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// View projects the subscription into its external representation.
func (s Subscription) View() SubscriptionView {
	return SubscriptionView{
		ID:        s.ID,
		Email:     s.Email,
		City:      s.City,
		Frequency: s.Frequency,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
	}
}
