package mailer

import (
	"context"
	"fmt"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPMailer sends mail through a real SMTP relay using go-mail.
type SMTPMailer struct {
	cfg config.Config
	log *zap.Logger
}

func NewSMTPMailer(cfg config.Config, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log.Named("mailer.smtp")}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) (Result, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.MailFrom); err != nil {
		return Result{}, fmt.Errorf("mail from %q: %w", m.cfg.MailFrom, err)
	}
	if err := msg.To(to); err != nil {
		return Result{}, fmt.Errorf("mail to %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	client, err := gomail.NewClient(m.cfg.SMTPHost,
		gomail.WithPort(m.cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.SMTPUser),
		gomail.WithPassword(m.cfg.SMTPPass),
	)
	if err != nil {
		return Result{}, fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Result{}, fmt.Errorf("send mail to %s: %w", to, err)
	}

	m.log.Info("mail delivered", zap.String("to", to), zap.String("subject", subject))
	return Result{Mocked: false}, nil
}
