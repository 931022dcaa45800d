package weather

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
	weatherservice "github.com/omarchenko-dev/weather-subscription-service/internal/services/weather"
)

const timeoutDuration = 10 * time.Second

type WeatherServicer interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type Handler struct {
	Service WeatherServicer
}

func NewHandler(svc WeatherServicer) *Handler {
	return &Handler{Service: svc}
}

// GetWeather
// @Summary Get current weather
// @Description Returns current conditions for a city.
// @Tags weather
// @Param city query string true "City name"
// @Success 200 {object} models.WeatherData
// @Failure 400
// @Failure 404
// @Router /weather [get]
func (h *Handler) GetWeather(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing city parameter"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	data, err := h.Service.GetByCity(ctx, city)
	if err != nil {
		if errors.Is(err, weatherservice.ErrCityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "City not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, data)
}
