package mailer

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("mailer",
	fx.Provide(New),
)

// New picks the delivery mode from configuration. Config validation already
// guaranteed SMTP settings exist when mock mode is off.
func New(cfg config.Config, log *zap.Logger) Mailer {
	if cfg.MailMock {
		return NewMockMailer(log)
	}
	return NewSMTPMailer(cfg, log)
}
