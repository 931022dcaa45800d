// Package email renders and dispatches the lifecycle and notification
// emails. Failures here are reported to callers, who treat them as
// best-effort side effects.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const htmlHeaders = "MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\""

type Emailer interface {
	Send(to, subject, additionalHeaders, body string) error
}

type Service struct {
	emailer      Emailer
	templatesDir string
	baseURL      string
}

func NewService(emailer Emailer, templatesDir, baseURL string) *Service {
	return &Service{
		emailer:      emailer,
		templatesDir: templatesDir,
		baseURL:      baseURL,
	}
}

// SendConfirmation delivers the confirm-your-subscription email with the
// expiring confirmation link.
func (e *Service) SendConfirmation(toEmail, token, city string, frequency models.Frequency) error {
	body, err := e.render("confirm_email.html", map[string]string{
		"City":      city,
		"Frequency": string(frequency),
		"Link":      fmt.Sprintf("%s/api/confirm/%s", e.baseURL, token),
	})
	if err != nil {
		return err
	}
	return e.emailer.Send(toEmail, "Confirm Your Weather Subscription", htmlHeaders, body)
}

// SendWelcome delivers the subscription-confirmed email. The weather block is
// optional: when the lookup failed upstream the email goes out without it.
func (e *Service) SendWelcome(
	toEmail, token, city string, frequency models.Frequency, weather *models.WeatherData,
) error {
	data := map[string]string{
		"City":      city,
		"Frequency": string(frequency),
		"Link":      fmt.Sprintf("%s/api/unsubscribe/%s", e.baseURL, token),
	}
	if weather != nil {
		data["Condition"] = weather.Condition
		data["Temperature"] = strconv.FormatFloat(weather.Temperature, 'f', 1, 64)
	}

	body, err := e.render("welcome_email.html", data)
	if err != nil {
		return err
	}
	return e.emailer.Send(toEmail, "Welcome to Weather Updates for "+city, htmlHeaders, body)
}

// SendWeatherUpdate delivers a periodic weather notification with the
// unsubscribe link.
func (e *Service) SendWeatherUpdate(
	toEmail, token, city string, frequency models.Frequency, weather models.WeatherData,
) error {
	body, err := e.render("weather_update.html", map[string]string{
		"City":        city,
		"Frequency":   string(frequency),
		"Condition":   weather.Condition,
		"Temperature": strconv.FormatFloat(weather.Temperature, 'f', 1, 64),
		"Link":        fmt.Sprintf("%s/api/unsubscribe/%s", e.baseURL, token),
	})
	if err != nil {
		return err
	}
	return e.emailer.Send(toEmail, "Your Weather Update for "+city, htmlHeaders, body)
}

// SendUnsubscribeConfirmation acknowledges a completed unsubscribe.
func (e *Service) SendUnsubscribeConfirmation(toEmail, city string) error {
	body, err := e.render("unsubscribe_email.html", map[string]string{
		"City": city,
	})
	if err != nil {
		return err
	}
	return e.emailer.Send(toEmail, "You Have Been Unsubscribed", htmlHeaders, body)
}

func (e *Service) render(name string, data map[string]string) (string, error) {
	tmpl, err := template.ParseFiles(e.templatesDir + "/" + name)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}
