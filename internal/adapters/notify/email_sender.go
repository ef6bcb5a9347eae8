package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/pkg/config"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// defaultSMTPTimeout bounds a single dial-and-send
const defaultSMTPTimeout = 15 * time.Second

// mailDialer is the part of gomail.Dialer the sender uses
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends plain-text email confirmations
type SMTPSender struct {
	from    string
	dialer  mailDialer
	timeout time.Duration
}

// NewSMTPSender creates an email sender from configuration
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST must be set")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("SMTP_FROM must be set")
	}
	return &SMTPSender{
		from:    cfg.From,
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		timeout: defaultSMTPTimeout,
	}, nil
}

var _ providers.Notifier = (*SMTPSender)(nil)

// Channel implements providers.Notifier
func (s *SMTPSender) Channel() string {
	return "email"
}

// Send delivers msg, giving up when ctx or the send timeout expires first
func (s *SMTPSender) Send(ctx context.Context, msg providers.Message) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	wait := s.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return apperrors.NewExternalError("email delivery failed", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func (s *SMTPSender) buildMessage(msg providers.Message) (*gomail.Message, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, apperrors.NewValidationError("email recipient is required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, apperrors.NewValidationError("email body is required")
	}

	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "Appointment confirmation"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", msg.Body)
	return m, nil
}
