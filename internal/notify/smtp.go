package notify

import (
	"context"
	"fmt"

	"slotbook/internal/config"
	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

const defaultFromName = "Booking System"

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends booking emails through an SMTP relay.
type SMTPNotifier struct {
	sender   mailSender
	from     string
	fromName string
	logger   *zerolog.Logger
}

func NewSMTPNotifier(cfg config.MailConfig, logger *zerolog.Logger) *SMTPNotifier {
	return newSMTPNotifier(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, logger)
}

func newSMTPNotifier(sender mailSender, cfg config.MailConfig, logger *zerolog.Logger) *SMTPNotifier {
	fromName := cfg.FromName
	if fromName == "" {
		fromName = defaultFromName
	}
	return &SMTPNotifier{
		sender:   sender,
		from:     cfg.From,
		fromName: fromName,
		logger:   logger,
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.To == "" {
		return fmt.Errorf("notification for order %s has no recipient", n.OrderID)
	}

	msg, err := render(n)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", n.To, n.Name)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", n.To, err)
	}

	s.logger.Debug().
		Str("to", n.To).
		Str("order_id", n.OrderID).
		Str("status", n.Status).
		Msg("Booking email sent")
	return nil
}

// LogNotifier only records notifications; used when mail is disabled.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Send(_ context.Context, n models.Notification) error {
	l.logger.Info().
		Str("to", n.To).
		Str("order_id", n.OrderID).
		Str("status", n.Status).
		Str("slot", n.SlotDate+" "+n.SlotTime).
		Msg("Notification (mail disabled)")
	return nil
}

// New picks the SMTP notifier when mail is enabled, else the log notifier.
func New(cfg config.MailConfig, logger *zerolog.Logger) domain.Notifier {
	if cfg.Enabled {
		return NewSMTPNotifier(cfg, logger)
	}
	return NewLogNotifier(logger)
}
