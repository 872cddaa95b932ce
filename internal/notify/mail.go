package notify

import (
	"context"
	"errors"

	gomail "github.com/wneessen/go-mail"

	"github.com/citycare/issue-service/internal/config"
)

// ErrMailDisabled is returned by NewSMTPMailer when no SMTP host is set.
var ErrMailDisabled = errors.New("smtp host not configured")

// Mailer sends plain text notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	client *gomail.Client
}

// NewSMTPMailer builds a mailer from notification settings.
func NewSMTPMailer(cfg config.NotificationConfig) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" {
		return nil, ErrMailDisabled
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		authType := gomail.SMTPAuthPlain
		if cfg.SMTPAuth != "" {
			authType = gomail.SMTPAuthType(cfg.SMTPAuth)
		}
		opts = append(opts,
			gomail.WithSMTPAuth(authType),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword))
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPMailer{from: cfg.EmailFrom, client: client}, nil
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}
