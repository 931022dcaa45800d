package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const sideEffectTimeout = 10 * time.Second

type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	GetByToken(ctx context.Context, token string) (models.Subscription, error)
	Update(ctx context.Context, id string, upd models.SubscriptionUpdate) (models.Subscription, error)
}

type TokenIssuer interface {
	Issue(noExpiry bool) (string, time.Time, error)
	Validate(token string, expiry time.Time, isUnsubscribeToken bool) error
}

type Notifier interface {
	SendConfirmation(email, token, city string, frequency models.Frequency) error
	SendWelcome(email, token, city string, frequency models.Frequency, weather *models.WeatherData) error
	SendUnsubscribeConfirmation(email, city string) error
}

type WeatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type JobScheduler interface {
	ScheduleJob(ctx context.Context, id string) error
	CancelJob(id string)
}

// Service owns the subscription state machine: pending on create, confirmed
// via token, unsubscribed via token. Emails and weather lookups are
// best-effort side effects; only repository and token errors fail an
// operation.
type Service struct {
	repo      SubscriptionRepository
	tokens    TokenIssuer
	notifier  Notifier
	weather   WeatherGetter
	scheduler JobScheduler
	log       *zap.Logger
}

func NewService(
	repo SubscriptionRepository,
	tokens TokenIssuer,
	notifier Notifier,
	weather WeatherGetter,
	scheduler JobScheduler,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		notifier:  notifier,
		weather:   weather,
		scheduler: scheduler,
		log:       logger.With(zap.String("component", "SubscriptionService")),
	}
}

// Create registers a pending subscription and sends a confirmation email.
func (s *Service) Create(
	ctx context.Context, email, city string, frequency models.Frequency,
) (models.SubscriptionView, error) {
	if !frequency.IsValid() {
		return models.SubscriptionView{}, models.ErrInvalidFrequency
	}

	tok, expiry, err := s.tokens.Issue(false)
	if err != nil {
		return models.SubscriptionView{}, err
	}

	now := time.Now()
	sub := models.Subscription{
		ID:          uuid.NewString(),
		Email:       email,
		City:        city,
		Frequency:   frequency,
		Status:      models.StatusPending,
		Token:       tok,
		TokenExpiry: expiry,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return models.SubscriptionView{}, err
	}

	if err := s.notifier.SendConfirmation(email, tok, city, frequency); err != nil {
		s.log.Error("failed to send confirmation email",
			zap.String("id", sub.ID), zap.Error(err))
	}

	return sub.View(), nil
}

// Confirm activates a pending subscription: rotates the token to a
// non-expiring unsubscribe token, sends the welcome email and registers the
// recurring job. Scheduler and email failures do not fail the confirmation.
func (s *Service) Confirm(ctx context.Context, tok string) (models.SubscriptionView, error) {
	sub, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		return models.SubscriptionView{}, err
	}

	if err := s.tokens.Validate(tok, sub.TokenExpiry, false); err != nil {
		return models.SubscriptionView{}, err
	}

	newToken, expiry, err := s.tokens.Issue(true)
	if err != nil {
		return models.SubscriptionView{}, err
	}

	status := models.StatusConfirmed
	updated, err := s.repo.Update(ctx, sub.ID, models.SubscriptionUpdate{
		Status:      &status,
		Token:       &newToken,
		TokenExpiry: &expiry,
	})
	if err != nil {
		return models.SubscriptionView{}, err
	}

	s.sendWelcome(ctx, updated, newToken)

	if err := s.scheduler.ScheduleJob(ctx, sub.ID); err != nil {
		s.log.Error("failed to schedule job on confirm",
			zap.String("id", sub.ID), zap.Error(err))
	}

	return updated.View(), nil
}

// Unsubscribe deactivates a subscription by its unsubscribe token. The token
// is accepted regardless of expiry, and unsubscribing a still-pending
// subscription is allowed.
func (s *Service) Unsubscribe(ctx context.Context, tok string) (models.SubscriptionView, error) {
	sub, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		return models.SubscriptionView{}, err
	}

	if err := s.tokens.Validate(tok, sub.TokenExpiry, true); err != nil {
		return models.SubscriptionView{}, err
	}

	status := models.StatusUnsubscribed
	updated, err := s.repo.Update(ctx, sub.ID, models.SubscriptionUpdate{Status: &status})
	if err != nil {
		return models.SubscriptionView{}, err
	}

	s.scheduler.CancelJob(sub.ID)

	if err := s.notifier.SendUnsubscribeConfirmation(sub.Email, sub.City); err != nil {
		s.log.Error("failed to send unsubscribe confirmation email",
			zap.String("id", sub.ID), zap.Error(err))
	}

	return updated.View(), nil
}

// sendWelcome tries to personalize the welcome email with current weather;
// a failed lookup degrades to a welcome without weather content.
func (s *Service) sendWelcome(ctx context.Context, sub models.Subscription, tok string) {
	lookupCtx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	var weather *models.WeatherData
	data, err := s.weather.GetByCity(lookupCtx, sub.City)
	if err != nil {
		s.log.Error("failed to fetch weather for welcome email",
			zap.String("id", sub.ID), zap.String("city", sub.City), zap.Error(err))
	} else {
		weather = &data
	}

	if err := s.notifier.SendWelcome(sub.Email, tok, sub.City, sub.Frequency, weather); err != nil {
		s.log.Error("failed to send welcome email",
			zap.String("id", sub.ID), zap.Error(err))
	}
}
