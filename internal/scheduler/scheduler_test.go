package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/metrics"
	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
	"github.com/omarchenko-dev/weather-subscription-service/internal/scheduler"
)

type fakeRepo struct {
	mu   sync.Mutex
	subs map[string]models.Subscription

	getErr    error
	updateErr error
}

func newFakeRepo(subs ...models.Subscription) *fakeRepo {
	r := &fakeRepo{subs: make(map[string]models.Subscription)}
	for _, sub := range subs {
		r.subs[sub.ID] = sub
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return models.Subscription{}, r.getErr
	}
	sub, ok := r.subs[id]
	if !ok {
		return models.Subscription{}, models.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (r *fakeRepo) GetAllActive(context.Context) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []models.Subscription
	for _, sub := range r.subs {
		if sub.Status == models.StatusConfirmed {
			active = append(active, sub)
		}
	}
	return active, nil
}

func (r *fakeRepo) UpdateScheduling(
	_ context.Context, id string, lastSentAt, nextScheduledAt *time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	sub, ok := r.subs[id]
	if !ok {
		return models.ErrSubscriptionNotFound
	}
	sub.LastSentAt = lastSentAt
	sub.NextScheduledAt = nextScheduledAt
	r.subs[id] = sub
	return nil
}

func (r *fakeRepo) get(id string) models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[id]
}

type fakeWeather struct {
	mu    sync.Mutex
	data  models.WeatherData
	err   error
	calls int
}

func (w *fakeWeather) GetByCity(context.Context, string) (models.WeatherData, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return w.data, w.err
}

func (w *fakeWeather) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *fakeNotifier) SendWeatherUpdate(
	email, _, _ string, _ models.Frequency, _ models.WeatherData,
) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, email)
	return n.err
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func confirmedSub(id string) models.Subscription {
	now := time.Now()
	return models.Subscription{
		ID:          id,
		Email:       "a@x.com",
		City:        "Kyiv",
		Frequency:   models.FrequencyDaily,
		Status:      models.StatusConfirmed,
		Token:       "tok-" + id,
		TokenExpiry: now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func newScheduler(repo *fakeRepo, weather *fakeWeather, notifier *fakeNotifier) *scheduler.Scheduler {
	m := metrics.New("test", prometheus.NewRegistry())
	return scheduler.New(repo, weather, notifier, zap.NewNop(), m)
}

func TestScheduleJob(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))

	assert.Equal(t, []string{"sub-1"}, s.JobIDs())

	// Never-sent subscriptions become eligible immediately.
	sub := repo.get("sub-1")
	require.NotNil(t, sub.NextScheduledAt)
	assert.WithinDuration(t, time.Now(), *sub.NextScheduledAt, time.Minute)
}

func TestScheduleJob_NotConfirmed(t *testing.T) {
	sub := confirmedSub("sub-1")
	sub.Status = models.StatusPending
	repo := newFakeRepo(sub)
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))

	assert.Empty(t, s.JobIDs())
	assert.Nil(t, repo.get("sub-1").NextScheduledAt)
}

func TestScheduleJob_Idempotent(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))
	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))

	assert.Equal(t, []string{"sub-1"}, s.JobIDs())
}

func TestScheduleJob_ConcurrentRegistersOnce(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.ScheduleJob(context.Background(), "sub-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"sub-1"}, s.JobIDs(),
		"concurrent registration must leave exactly one job")
}

func TestCancelJob(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))
	s.CancelJob("sub-1")

	assert.Empty(t, s.JobIDs())

	// Cancelling an unknown id is a no-op.
	s.CancelJob("sub-2")
}

func TestInitialize(t *testing.T) {
	unsubscribed := confirmedSub("sub-3")
	unsubscribed.Status = models.StatusUnsubscribed
	repo := newFakeRepo(confirmedSub("sub-1"), confirmedSub("sub-2"), unsubscribed)
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.Initialize(context.Background()))

	assert.ElementsMatch(t, []string{"sub-1", "sub-2"}, s.JobIDs())
}

func TestForceRunJob(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	weather := &fakeWeather{data: models.WeatherData{City: "Kyiv", Temperature: 3, Condition: "Rain"}}
	notifier := &fakeNotifier{}
	s := newScheduler(repo, weather, notifier)

	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))
	s.ForceRunJob(context.Background(), "sub-1")

	assert.Equal(t, 1, weather.callCount())
	assert.Equal(t, 1, notifier.sentCount())

	sub := repo.get("sub-1")
	require.NotNil(t, sub.LastSentAt)
	assert.WithinDuration(t, time.Now(), *sub.LastSentAt, time.Minute)
	require.NotNil(t, sub.NextScheduledAt)
	assert.WithinDuration(t, sub.LastSentAt.Add(24*time.Hour), *sub.NextScheduledAt, time.Second)
}

func TestForceRunJob_NotDueSkips(t *testing.T) {
	sub := confirmedSub("sub-1")
	future := time.Now().Add(time.Hour)
	sub.NextScheduledAt = &future
	repo := newFakeRepo(sub)
	weather := &fakeWeather{}
	notifier := &fakeNotifier{}
	s := newScheduler(repo, weather, notifier)

	s.ForceRunJob(context.Background(), "sub-1")

	assert.Zero(t, weather.callCount())
	assert.Zero(t, notifier.sentCount())
	assert.Nil(t, repo.get("sub-1").LastSentAt)
}

func TestForceRunJob_WeatherFailureRetriesLater(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	weather := &fakeWeather{err: errors.New("upstream down")}
	notifier := &fakeNotifier{}
	s := newScheduler(repo, weather, notifier)

	s.ForceRunJob(context.Background(), "sub-1")

	assert.Zero(t, notifier.sentCount())
	assert.Nil(t, repo.get("sub-1").LastSentAt,
		"a failed fetch must not advance lastSentAt, so the next firing retries")
}

func TestForceRunJob_NotifierFailureStillAdvances(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	weather := &fakeWeather{}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	s := newScheduler(repo, weather, notifier)

	s.ForceRunJob(context.Background(), "sub-1")

	sub := repo.get("sub-1")
	require.NotNil(t, sub.LastSentAt,
		"progress is preferred over redelivery on a failing recipient")
	require.NotNil(t, sub.NextScheduledAt)
}

func TestForceRunJob_NoLongerConfirmedCancels(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"))
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.ScheduleJob(context.Background(), "sub-1"))

	repo.mu.Lock()
	sub := repo.subs["sub-1"]
	sub.Status = models.StatusUnsubscribed
	repo.subs["sub-1"] = sub
	repo.mu.Unlock()

	s.ForceRunJob(context.Background(), "sub-1")

	assert.Empty(t, s.JobIDs(), "a firing for an inactive subscription cancels its job")
}

func TestStop(t *testing.T) {
	repo := newFakeRepo(confirmedSub("sub-1"), confirmedSub("sub-2"))
	s := newScheduler(repo, &fakeWeather{}, &fakeNotifier{})

	require.NoError(t, s.Initialize(context.Background()))
	s.Start()
	s.Stop()

	assert.Empty(t, s.JobIDs())
}
