package weather

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const (
	breakerInterval = 30 * time.Second
	breakerTimeout  = 15 * time.Second

	consecutiveFailures = 5
)

// BreakerClient wraps a weather client with a circuit breaker so a flapping
// provider is taken out of rotation instead of slowing every lookup.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped client
}

func NewBreakerClient(name string, wrapped client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Fetch(ctx context.Context, city string) (models.WeatherData, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, city)
	})
	if err != nil {
		if errors.Is(err, ErrCityNotFound) {
			return models.WeatherData{}, err
		}
		return models.WeatherData{}, errors.New(b.name + " unavailable: " + err.Error())
	}
	data, ok := result.(models.WeatherData)
	if !ok {
		return models.WeatherData{}, errors.New(b.name + " returned unexpected result type")
	}
	return data, nil
}
