// Package mail sends activation mail over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

const (
	activationSubject = "Confirm your email address"
	activationBody    = "Hello,\n\nplease confirm your email address by opening the link below:\n\n%s\n\nIf you did not request this, ignore this message.\n"
)

// Config contains SMTP settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers activation mail
type Sender struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

// NewSender creates an SMTP sender. Authentication is only used when a
// username is configured.
func NewSender(cfg Config, logger *slog.Logger) (*Sender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &Sender{
		client: client,
		from:   cfg.From,
		logger: logger.With(slog.String("component", "mail")),
	}, nil
}

var _ repo.MailRepo = (*Sender)(nil)

// SendActivation sends the activation link to email
func (s *Sender) SendActivation(ctx context.Context, email, link string) error {
	msg, err := activationMessage(s.from, email, link)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send activation mail: %w", err)
	}
	s.logger.Info("activation mail sent", "to", email)
	return nil
}

func activationMessage(from, to, link string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(activationSubject)
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(activationBody, link))
	return msg, nil
}
