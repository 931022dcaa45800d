package emailer

import (
	"errors"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/omarchenko-dev/weather-subscription-service/internal/config"
)

var ErrNotConfigured = errors.New("smtp credentials are not fully set")

type SMTPService struct {
	User     string
	Host     string
	Port     string
	Password string
	From     string
	logger   *zap.Logger
}

func NewSMTPService(cfg config.Email, logger *zap.Logger) (*SMTPService, error) {
	svc := &SMTPService{
		User:     cfg.User,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		From:     cfg.From,
		logger:   logger,
	}

	if svc.Host == "" || svc.Port == "" || svc.From == "" {
		return nil, ErrNotConfigured
	}
	return svc, nil
}

func (e *SMTPService) Send(to, subject, additionalHeaders, body string) error {
	auth := smtp.PlainAuth("", e.User, e.Password, e.Host)

	msg := "From: " + e.From + "\n" +
		"To: " + to + "\n" +
		"Subject: " + subject + "\n" +
		additionalHeaders + "\n\n" +
		body

	addr := e.Host + ":" + e.Port
	if err := smtp.SendMail(addr, auth, e.From, []string{to}, []byte(msg)); err != nil {
		e.logger.Error("failed to send email",
			zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}
