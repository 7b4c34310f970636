// Package notify sends the templated confirmation emails of the association and streaming
// flows.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/wneessen/go-mail"
)

type Message struct {
	ToName  string
	ToAddr  string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// TLS is off for local MailHog.
	TLS     bool
	Timeout time.Duration
}

// SMTPSender opens one SMTP session per message.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 1025
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.From == "" {
		cfg.From = "no-reply@example.com"
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	const op = "notify.send"

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return errs.E(errs.ErrNotification, op, err)
	}
	if err := msg.AddToFormat(m.ToName, m.ToAddr); err != nil {
		return errs.E(errs.ErrValidation, op, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return errs.E(errs.ErrNotification, op, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errs.E(errs.ErrNotification, op, err)
	}
	return nil
}

// Notifier renders a catalog template and hands the message to a Sender.
type Notifier struct {
	Sender  Sender
	Catalog *Catalog
	Log     *slog.Logger
}

func (n *Notifier) Notify(ctx context.Context, template, toName, toAddr string, data any) error {
	subject, body, err := n.Catalog.Render(template, data)
	if err != nil {
		return errs.E(errs.ErrNotification, "notify.render", err)
	}
	if err := n.Sender.Send(ctx, Message{ToName: toName, ToAddr: toAddr, Subject: subject, Body: body}); err != nil {
		n.Log.Error("notification_failed",
			slog.String("template", template),
			slog.String("to", toAddr),
			slog.String("err", err.Error()),
		)
		return err
	}
	n.Log.Info("notification_sent", slog.String("template", template), slog.String("to", toAddr))
	return nil
}
