//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/omarchenko-dev/weather-subscription-service/internal/metrics"
	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
	"github.com/omarchenko-dev/weather-subscription-service/internal/repository/sqlite"
	"github.com/omarchenko-dev/weather-subscription-service/internal/scheduler"
	"github.com/omarchenko-dev/weather-subscription-service/internal/services/subscriptions"
	"github.com/omarchenko-dev/weather-subscription-service/internal/token"
)

const schema = `
CREATE TABLE subscriptions (
    id                TEXT PRIMARY KEY,
    email             TEXT NOT NULL,
    city              TEXT NOT NULL,
    frequency         TEXT NOT NULL,
    status            TEXT NOT NULL DEFAULT 'pending',
    token             TEXT NOT NULL UNIQUE,
    token_expiry      TIMESTAMP NOT NULL,
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL,
    last_sent_at      TIMESTAMP NULL,
    next_scheduled_at TIMESTAMP NULL
);

CREATE UNIQUE INDEX idx_subscriptions_email_city
    ON subscriptions (email, city)
    WHERE status != 'unsubscribed';
`

// capturingNotifier records every outgoing email so the flow test can pull
// confirmation and unsubscribe tokens the way a real recipient would.
type capturingNotifier struct {
	mu           sync.Mutex
	confirmToken string
	unsubToken   string
	updatesSent  int
}

func (n *capturingNotifier) SendConfirmation(_, tok, _ string, _ models.Frequency) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmToken = tok
	return nil
}

func (n *capturingNotifier) SendWelcome(
	_, tok, _ string, _ models.Frequency, _ *models.WeatherData,
) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unsubToken = tok
	return nil
}

func (n *capturingNotifier) SendUnsubscribeConfirmation(_, _ string) error {
	return nil
}

func (n *capturingNotifier) SendWeatherUpdate(
	_, _, _ string, _ models.Frequency, _ models.WeatherData,
) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updatesSent++
	return nil
}

func (n *capturingNotifier) tokens() (confirm, unsub string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmToken, n.unsubToken
}

func (n *capturingNotifier) updates() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.updatesSent
}

type staticWeather struct{}

func (staticWeather) GetByCity(context.Context, string) (models.WeatherData, error) {
	return models.WeatherData{City: "Kyiv", Temperature: 7, Condition: "Clouds"}, nil
}

func TestSubscriptionLifecycleFlow(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	log := zap.NewNop()
	repo := sqlite.NewSubscriptionRepository(db, log)
	issuer := token.NewIssuer(24 * time.Hour)
	notifier := &capturingNotifier{}
	weather := staticWeather{}

	sched := scheduler.New(repo, weather, notifier, log,
		metrics.New("test", prometheus.NewRegistry()))
	t.Cleanup(sched.Stop)

	svc := subscriptions.NewService(repo, issuer, notifier, weather, sched, log)
	ctx := context.Background()

	// Subscribe: a pending row, a confirmation email, no job yet.
	view, err := svc.Create(ctx, "user@example.com", "Kyiv", models.FrequencyDaily)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, view.Status)
	assert.Empty(t, sched.JobIDs())

	confirmToken, _ := notifier.tokens()
	require.NotEmpty(t, confirmToken)

	// Confirm: status flips, the job registers, and the never-sent
	// subscription is eligible immediately.
	view, err = svc.Confirm(ctx, confirmToken)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, view.Status)
	assert.Equal(t, []string{view.ID}, sched.JobIDs())

	sub, err := repo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	require.NotNil(t, sub.NextScheduledAt)
	assert.WithinDuration(t, time.Now(), *sub.NextScheduledAt, time.Minute)

	// The confirmation token was rotated; it no longer resolves.
	_, err = svc.Confirm(ctx, confirmToken)
	assert.ErrorIs(t, err, models.ErrSubscriptionNotFound)

	// A firing sends one update and pushes the schedule a full period out.
	sched.ForceRunJob(ctx, view.ID)
	assert.Equal(t, 1, notifier.updates())

	sub, err = repo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	require.NotNil(t, sub.LastSentAt)
	require.NotNil(t, sub.NextScheduledAt)
	assert.WithinDuration(t, sub.LastSentAt.Add(24*time.Hour), *sub.NextScheduledAt, time.Second)

	// Not due again right away.
	sched.ForceRunJob(ctx, view.ID)
	assert.Equal(t, 1, notifier.updates())

	// Unsubscribe via the welcome-email token cancels the job.
	_, unsubToken := notifier.tokens()
	require.NotEmpty(t, unsubToken)

	view, err = svc.Unsubscribe(ctx, unsubToken)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnsubscribed, view.Status)
	assert.Empty(t, sched.JobIDs())

	// The pair is free again once the old row is unsubscribed.
	_, err = svc.Create(ctx, "user@example.com", "Kyiv", models.FrequencyDaily)
	require.NoError(t, err)
}
