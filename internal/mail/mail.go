// Package mail sends transactional e-mail over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/family-health-keeper/backend/internal/config"
	"github.com/go-gomail/gomail"
	"github.com/rs/zerolog"
)

// Message is a plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	TLS      bool
}

// ConfigFromSettings reads the SMTP_* and EMAILS_FROM keys.
func ConfigFromSettings(s *config.Settings) Config {
	from := s.EmailsFrom
	if from == "" {
		from = s.SMTPUser
	}
	return Config{
		Host:     s.SMTPHost,
		Port:     s.SMTPPort,
		User:     s.SMTPUser,
		Password: s.SMTPPassword,
		From:     from,
		TLS:      s.SMTPTLS,
	}
}

// SMTPSender sends through a gomail dialer. A new connection is opened per
// message.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

func NewSMTPSender(cfg Config, logger zerolog.Logger) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Port == 465
	if cfg.TLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return &SMTPSender{
		dialer: d,
		from:   cfg.From,
		logger: logger.With().Str("component", "mail").Logger(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.build(msg)); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

func (s *SMTPSender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

// WriteTo renders msg as RFC 5322 text. Used for previews and tests.
func (s *SMTPSender) WriteTo(w io.Writer, msg Message) error {
	_, err := s.build(msg).WriteTo(w)
	return err
}

// NopSender logs and drops messages. Used when SMTP_HOST is empty.
type NopSender struct {
	Logger zerolog.Logger
}

func (n NopSender) Send(_ context.Context, msg Message) error {
	n.Logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail disabled, dropping message")
	return nil
}

// New returns an SMTPSender when mail is configured and a NopSender otherwise.
func New(cfg Config, logger zerolog.Logger) Sender {
	if cfg.Host == "" {
		return NopSender{Logger: logger}
	}
	return NewSMTPSender(cfg, logger)
}
