// Package weather resolves current conditions for a city through a chain of
// third-party providers, each behind a circuit breaker, with an optional
// cache in front.
package weather

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

var (
	ErrAllProvidersFailed = errors.New("all weather API clients failed to fetch data")
	ErrCityNotFound       = errors.New("city not found")
)

type client interface {
	Fetch(ctx context.Context, city string) (models.WeatherData, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ServiceProvider tries each configured client in order and returns the
// first successful result.
type ServiceProvider struct {
	logger  *zap.Logger
	clients []client
}

func NewService(logger *zap.Logger, clients ...client) *ServiceProvider {
	return &ServiceProvider{
		clients: clients,
		logger:  logger.With(zap.String("component", "WeatherService")),
	}
}

func (s *ServiceProvider) GetByCity(ctx context.Context, city string) (models.WeatherData, error) {
	for _, c := range s.clients {
		data, err := c.Fetch(ctx, city)
		if err != nil {
			if errors.Is(err, ErrCityNotFound) {
				return models.WeatherData{}, err
			}
			s.logger.Warn("weather client failed, trying next",
				zap.String("city", city), zap.Error(err))
			continue
		}
		return data, nil
	}
	return models.WeatherData{}, ErrAllProvidersFailed
}
