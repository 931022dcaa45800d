package decorators

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

type weatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T, expiration time.Duration) error
	Get(ctx context.Context, key string, returnValue *T) error
}

// CachedService fronts the weather provider chain with a TTL cache. Hourly
// subscribers in the same city share one upstream lookup per TTL window.
type CachedService struct {
	inner    weatherGetter
	cache    cacheClient[models.WeatherData]
	logger   *zap.Logger
	liveTime time.Duration
}

func NewCachedService(
	inner weatherGetter,
	cache cacheClient[models.WeatherData],
	logger *zap.Logger,
	liveTime time.Duration,
) *CachedService {
	return &CachedService{inner: inner, cache: cache, logger: logger, liveTime: liveTime}
}

func (s *CachedService) GetByCity(ctx context.Context, city string) (models.WeatherData, error) {
	key := fmt.Sprintf("weather:%s", city)

	var weather models.WeatherData
	if err := s.cache.Get(ctx, key, &weather); err == nil {
		s.logger.Debug("weather cache hit", zap.String("city", city))
		return weather, nil
	}

	weather, err := s.inner.GetByCity(ctx, city)
	if err != nil {
		return models.WeatherData{}, err
	}

	if err := s.cache.Set(ctx, key, weather, s.liveTime); err != nil {
		s.logger.Warn("failed to cache weather data",
			zap.String("city", city), zap.Error(err))
	}

	return weather, nil
}
