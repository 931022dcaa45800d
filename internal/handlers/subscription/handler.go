package subscription

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const timeoutDuration = 10 * time.Second

type subscriber interface {
	Create(ctx context.Context, email, city string, frequency models.Frequency) (models.SubscriptionView, error)
	Confirm(ctx context.Context, token string) (models.SubscriptionView, error)
	Unsubscribe(ctx context.Context, token string) (models.SubscriptionView, error)
}

type Handler struct {
	Service subscriber
}

func NewHandler(svc subscriber) *Handler {
	return &Handler{Service: svc}
}

// Subscribe
// @Summary Subscribe to weather updates
// @Description Subscribe an email to receive weather updates for a specific city.
// @Tags subscription
// @Accept application/x-www-form-urlencoded
// @Accept json
// @Param email formData string true "Email address to subscribe"
// @Param city formData string true "City for weather updates"
// @Param frequency formData string true "Frequency of updates" Enums(hourly, daily)
// @Success 200 {object} models.SubscriptionView
// @Failure 400
// @Failure 409
// @Router /subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var userData models.UserSubData
	if err := c.ShouldBind(&userData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	view, err := h.Service.Create(ctx, userData.Email, userData.City,
		models.Frequency(userData.Frequency))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Confirm
// @Summary Confirm subscription
// @Description Confirms the subscription using the token sent in email.
// @Tags subscription
// @Param token path string true "Confirmation token"
// @Success 200 {object} models.SubscriptionView
// @Failure 400
// @Failure 404
// @Router /confirm/{token} [get]
func (h *Handler) Confirm(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	view, err := h.Service.Confirm(ctx, c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Unsubscribe
// @Summary Unsubscribe
// @Description Unsubscribe from weather updates using the token.
// @Tags subscription
// @Param token path string true "Unsubscribe token"
// @Success 200 {object} models.SubscriptionView
// @Failure 400
// @Failure 404
// @Router /unsubscribe/{token} [get]
func (h *Handler) Unsubscribe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	view, err := h.Service.Unsubscribe(ctx, c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidFrequency):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid frequency"})
	case errors.Is(err, models.ErrInvalidToken), errors.Is(err, models.ErrExpiredToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
	case errors.Is(err, models.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	case errors.Is(err, models.ErrSubscriptionExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email and city already subscribed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
