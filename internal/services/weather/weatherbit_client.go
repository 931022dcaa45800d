package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

type weatherBitResponse = struct {
	Data []struct {
		CityName string  `json:"city_name"`
		Temp     float64 `json:"temp"`
		Weather  struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"data"`
}

type ClientWeatherBit struct {
	APIKey string
	apiURL string
	client HTTPClient
	logger *zap.Logger
}

func NewWeatherBitClient(apiKey, apiURL string, httpClient HTTPClient, logger *zap.Logger) *ClientWeatherBit {
	return &ClientWeatherBit{APIKey: apiKey, apiURL: apiURL, client: httpClient, logger: logger}
}

func (s *ClientWeatherBit) Fetch(ctx context.Context, city string) (models.WeatherData, error) {
	reqURL := fmt.Sprintf("%s?city=%s&key=%s", s.apiURL, url.QueryEscape(city), s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.WeatherData{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.WeatherData{}, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return models.WeatherData{}, fmt.Errorf("WeatherBit error: status %d", resp.StatusCode)
	}

	var raw weatherBitResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherData{}, err
	}
	if len(raw.Data) == 0 {
		return models.WeatherData{}, ErrCityNotFound
	}

	return models.WeatherData{
		City:        city,
		Temperature: raw.Data[0].Temp,
		Condition:   raw.Data[0].Weather.Description,
	}, nil
}
