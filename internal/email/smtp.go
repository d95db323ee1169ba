package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk/internal/config"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp not configured")

// Message is a single outbound email.
type Message struct {
	To        []string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through gomail. gomail has no context support, so the
// send runs in its own goroutine and the caller stops waiting at ctx's deadline.
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewSMTPSender builds a sender from the notification settings.
func NewSMTPSender(cfg config.NotificationConfig, logger *zap.Logger) *SMTPSender {
	var dialer *gomail.Dialer
	if cfg.SMTPConfigured() {
		dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return &SMTPSender{from: cfg.EmailFrom, dialer: dialer, logger: logger}
}

// Configured reports whether a dialer is available.
func (s *SMTPSender) Configured() bool {
	return s != nil && s.dialer != nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		s.logger.Debug("smtp not configured; dropping email", zap.String("subject", msg.Subject))
		return nil
	}
	if len(msg.To) == 0 {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	if strings.TrimSpace(msg.HTMLBody) != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	return runWithContext(ctx, func() error {
		if err := s.dialer.DialAndSend(m); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	})
}

// Ping opens and closes an SMTP session.
func (s *SMTPSender) Ping(ctx context.Context) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	return runWithContext(ctx, func() error {
		closer, err := s.dialer.Dial()
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		return closer.Close()
	})
}

func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
