package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/careloop/medreminder/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SES, SendGrid) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // Plain text body
}

// FailoverSender tries each configured sender in order until one succeeds.
type FailoverSender struct {
	senders []EmailSender
	logger  *logging.Logger
}

// NewFailoverSender creates a sender chain. Nil entries are skipped.
func NewFailoverSender(logger *logging.Logger, senders ...EmailSender) *FailoverSender {
	if logger == nil {
		logger = logging.Default()
	}
	chain := make([]EmailSender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			chain = append(chain, s)
		}
	}
	return &FailoverSender{senders: chain, logger: logger}
}

// Send delivers through the first sender that accepts the message.
func (f *FailoverSender) Send(ctx context.Context, msg EmailMessage) error {
	if len(f.senders) == 0 {
		return fmt.Errorf("notify: no email sender configured")
	}
	var lastErr error
	for i, s := range f.senders {
		if err := s.Send(ctx, msg); err != nil {
			lastErr = err
			f.logger.Warn("notify: email sender failed, trying next",
				"sender", i, "to", msg.To, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("notify: all email senders failed: %w", lastErr)
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender. Returns nil when
// no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "CareLoop Reminders"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("notify: sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid rejected message: status %d", response.StatusCode)
	}
	return nil
}
