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

type ClientWeatherAPI struct {
	APIKey string
	apiURL string
	client HTTPClient
	logger *zap.Logger
}

func NewWeatherAPIClient(apiKey, apiURL string, httpClient HTTPClient, logger *zap.Logger) *ClientWeatherAPI {
	return &ClientWeatherAPI{APIKey: apiKey, apiURL: apiURL, client: httpClient, logger: logger}
}

func (s *ClientWeatherAPI) Fetch(ctx context.Context, city string) (models.WeatherData, error) {
	reqURL := fmt.Sprintf("%s?key=%s&q=%s", s.apiURL, s.APIKey, url.QueryEscape(city))

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

	// WeatherAPI reports an unknown location as 400 with error code 1006.
	if resp.StatusCode == http.StatusBadRequest {
		return models.WeatherData{}, ErrCityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.WeatherData{}, fmt.Errorf("WeatherAPI error: status %s", resp.Status)
	}

	var raw struct {
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		Current struct {
			TempC     float64 `json:"temp_c"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherData{}, err
	}

	return models.WeatherData{
		City:        city,
		Temperature: raw.Current.TempC,
		Condition:   raw.Current.Condition.Text,
	}, nil
}
