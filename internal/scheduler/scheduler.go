// Package scheduler maintains one recurring notification job per confirmed
// subscription. The in-memory job map is a cache over the repository: it is
// rebuilt from persisted state by Initialize, so nothing is lost across
// restarts.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/metrics"
	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
	"github.com/omarchenko-dev/weather-subscription-service/internal/timing"
)

const fetchTimeout = 10 * time.Second

type SubscriptionRepository interface {
	GetByID(ctx context.Context, id string) (models.Subscription, error)
	GetAllActive(ctx context.Context) ([]models.Subscription, error)
	UpdateScheduling(ctx context.Context, id string, lastSentAt, nextScheduledAt *time.Time) error
}

type WeatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type UpdateNotifier interface {
	SendWeatherUpdate(email, token, city string, frequency models.Frequency, weather models.WeatherData) error
}

// Scheduler runs one cron entry per confirmed subscription. Operations on the
// same subscription id (schedule, cancel, firing) are serialized through a
// per-id lock; different ids proceed in parallel.
type Scheduler struct {
	repo     SubscriptionRepository
	weather  WeatherGetter
	notifier UpdateNotifier
	log      *zap.Logger
	m        *metrics.Metrics

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
	locks   map[string]*sync.Mutex
}

func New(
	repo SubscriptionRepository,
	weather WeatherGetter,
	notifier UpdateNotifier,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Scheduler {
	return &Scheduler{
		repo:     repo,
		weather:  weather,
		notifier: notifier,
		log:      logger.With(zap.String("component", "Scheduler")),
		m:        m,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		entries:  make(map[string]cron.EntryID),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Start begins executing registered cron entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels every job and halts the cron runner. It must complete before
// the database closes so no firing races a closing store.
func (s *Scheduler) Stop() {
	for _, id := range s.JobIDs() {
		s.CancelJob(id)
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// Initialize registers a job for every confirmed subscription. Individual
// failures are logged and skipped so one bad row cannot block the rest.
func (s *Scheduler) Initialize(ctx context.Context) error {
	subs, err := s.repo.GetAllActive(ctx)
	if err != nil {
		s.log.Error("failed to load active subscriptions", zap.Error(err))
		return err
	}

	for _, sub := range subs {
		if err := s.ScheduleJob(ctx, sub.ID); err != nil {
			s.log.Error("failed to schedule job during initialization",
				zap.String("id", sub.ID), zap.Error(err))
		}
	}

	s.log.Info("scheduler initialized", zap.Int("jobs", len(subs)))
	return nil
}

// ScheduleJob registers (or re-registers) the recurring job for a
// subscription. Non-confirmed subscriptions are skipped: status may have
// changed between the triggering event and this call. The next scheduled
// time is persisted before the timer starts, so a crash in between is
// recovered by the next Initialize.
func (s *Scheduler) ScheduleJob(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != models.StatusConfirmed {
		s.log.Info("subscription not active, skipping job scheduling",
			zap.String("id", id), zap.String("status", string(sub.Status)))
		return nil
	}

	s.removeEntry(id)

	rule := timing.CronRule(sub.Frequency)
	if !sub.Frequency.IsValid() {
		s.log.Warn("unrecognized frequency, falling back to daily rule",
			zap.String("id", id), zap.String("frequency", string(sub.Frequency)))
	}
	next := timing.NextScheduledTime(sub.Frequency, sub.LastSentAt)

	if err := s.repo.UpdateScheduling(ctx, id, sub.LastSentAt, &next); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(rule, func() {
		s.runJob(context.Background(), id)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[id] = entryID
	s.mu.Unlock()

	s.m.JobsScheduled.Inc()
	s.log.Info("job scheduled",
		zap.String("id", id),
		zap.String("frequency", string(sub.Frequency)),
		zap.Time("next_scheduled_at", next))
	return nil
}

// CancelJob stops and removes the job for id; no-op when none is registered.
func (s *Scheduler) CancelJob(id string) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if s.removeEntry(id) {
		s.log.Info("job cancelled", zap.String("id", id))
	}
}

// JobIDs returns the ids of all currently registered jobs.
func (s *Scheduler) JobIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// ForceRunJob executes the firing logic synchronously, bypassing the timer.
func (s *Scheduler) ForceRunJob(ctx context.Context, id string) {
	s.runJob(ctx, id)
}

// runJob is a single firing: re-validate eligibility, fetch weather, send the
// update and advance the bookkeeping timestamps. A weather failure aborts
// without touching lastSentAt so the next firing retries; a notifier failure
// is logged but progress is still persisted, trading redelivery for progress.
func (s *Scheduler) runJob(ctx context.Context, id string) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			s.log.Info("subscription gone, cancelling job", zap.String("id", id))
			s.removeEntry(id)
			return
		}
		s.log.Error("failed to load subscription for firing",
			zap.String("id", id), zap.Error(err))
		return
	}
	if sub.Status != models.StatusConfirmed {
		s.log.Info("subscription not active, cancelling job",
			zap.String("id", id), zap.String("status", string(sub.Status)))
		s.removeEntry(id)
		return
	}

	if !timing.IsDue(sub.NextScheduledAt) {
		s.log.Debug("not yet due, skipping firing",
			zap.String("id", id), zap.Timep("next_scheduled_at", sub.NextScheduledAt))
		s.m.JobFirings.WithLabelValues("skipped").Inc()
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	weather, err := s.weather.GetByCity(fetchCtx, sub.City)
	if err != nil {
		s.log.Error("weather fetch failed, will retry on next firing",
			zap.String("id", id), zap.String("city", sub.City), zap.Error(err))
		s.m.WeatherFailures.Inc()
		s.m.JobFirings.WithLabelValues("weather_error").Inc()
		return
	}

	if err := s.notifier.SendWeatherUpdate(
		sub.Email, sub.Token, sub.City, sub.Frequency, weather,
	); err != nil {
		s.log.Error("failed to send weather update",
			zap.String("id", id), zap.Error(err))
		s.m.EmailFailures.WithLabelValues("weather_update").Inc()
	}

	now := time.Now()
	next := timing.NextScheduledTime(sub.Frequency, &now)
	if err := s.repo.UpdateScheduling(ctx, id, &now, &next); err != nil {
		s.log.Error("failed to persist scheduling state after firing",
			zap.String("id", id), zap.Error(err))
		return
	}

	s.m.JobFirings.WithLabelValues("success").Inc()
	s.log.Info("weather update sent",
		zap.String("id", id), zap.Time("next_scheduled_at", next))
}

// lockFor returns the per-id mutex, creating it on first use.
func (s *Scheduler) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// removeEntry drops the cron entry for id. Caller must hold the per-id lock.
func (s *Scheduler) removeEntry(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[id]
	if !ok {
		return false
	}
	s.cron.Remove(entryID)
	delete(s.entries, id)
	return true
}
