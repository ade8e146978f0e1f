package email

import (
	"fmt"
	"strconv"

	"newsfeed/internal/logger"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

type Service interface {
	SendEmail(to, subject, body string) error
}

type ResendService struct {
	from   string
	client *resend.Client
}

func NewResendService(apiKey, from string) (*ResendService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("from email address is required")
	}

	return &ResendService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendService) SendEmail(to, subject, body string) error {
	logger.Debugf("Sending email via Resend to %s: %s", to, subject)

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Html:    body,
		Subject: subject,
	}

	sent, err := s.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Infof("Email sent to %s, message ID: %s", to, sent.Id)
	return nil
}

// SMTPConfig holds the relay settings for SMTPService.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPService struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPService(cfg SMTPConfig) (*SMTPService, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is not configured")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is not configured")
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port: %s", cfg.Port)
	}

	return &SMTPService{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
	}, nil
}

func (s *SMTPService) SendEmail(to, subject, body string) error {
	logger.Debugf("Sending email via SMTP %s:%d to %s: %s", s.dialer.Host, s.dialer.Port, to, subject)

	if err := s.dialer.DialAndSend(s.message(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Infof("Email sent to %s", to)
	return nil
}

func (s *SMTPService) message(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

// NoopService logs messages instead of delivering them.
type NoopService struct{}

func (NoopService) SendEmail(to, subject, _ string) error {
	logger.Infof("Email delivery disabled, dropping %q for %s", subject, to)
	return nil
}

// Options selects a delivery backend in New.
type Options struct {
	ResendAPIKey string
	SMTP         SMTPConfig
}

// New prefers Resend, then SMTP, and falls back to NoopService when neither
// is configured.
func New(opts Options) (Service, error) {
	if opts.ResendAPIKey != "" {
		return NewResendService(opts.ResendAPIKey, opts.SMTP.From)
	}
	if opts.SMTP.Host != "" {
		return NewSMTPService(opts.SMTP)
	}
	return NoopService{}, nil
}
