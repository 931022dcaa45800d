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

type openWeatherResponse = struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

type ClientOpenWeatherMap struct {
	APIKey string
	apiURL string
	client HTTPClient
	logger *zap.Logger
}

func NewOpenWeatherMapClient(apiKey, apiURL string, httpClient HTTPClient, logger *zap.Logger) *ClientOpenWeatherMap {
	return &ClientOpenWeatherMap{APIKey: apiKey, apiURL: apiURL, client: httpClient, logger: logger}
}

func (s *ClientOpenWeatherMap) Fetch(ctx context.Context, city string) (models.WeatherData, error) {
	reqURL := fmt.Sprintf("%s?q=%s&units=metric&appid=%s",
		s.apiURL, url.QueryEscape(city), s.APIKey)

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

	if resp.StatusCode == http.StatusNotFound {
		return models.WeatherData{}, ErrCityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.WeatherData{}, fmt.Errorf("OpenWeatherMap error: status %s", resp.Status)
	}

	var raw openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherData{}, err
	}
	if len(raw.Weather) == 0 {
		return models.WeatherData{}, fmt.Errorf("OpenWeatherMap: empty weather block for %s", city)
	}

	return models.WeatherData{
		City:        city,
		Temperature: raw.Main.Temp,
		Condition:   raw.Weather[0].Main,
	}, nil
}
