package services

import (
	"context"
	"fmt"

	"natours/internal/config"
	"natours/internal/models"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	Send(ctx context.Context, email *models.Email) error
	SendPasswordReset(ctx context.Context, user *models.User, resetURL string) error
}

type smtpEmailService struct {
	from string
	send func(m ...*gomail.Message) error
}

// NewEmailService sends plain text mail through the configured SMTP relay
func NewEmailService(cfg config.EmailConfig) EmailService {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &smtpEmailService{from: cfg.From, send: dialer.DialAndSend}
}

func (s *smtpEmailService) Send(ctx context.Context, email *models.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Text)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}
	return nil
}

func (s *smtpEmailService) SendPasswordReset(ctx context.Context, user *models.User, resetURL string) error {
	text := fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to:\n%s\n"+
		"If you didn't forget your password, please ignore this email!", resetURL)

	return s.Send(ctx, &models.Email{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 min)",
		Text:    text,
	})
}
