package mailer

import (
	"context"

	"go.uber.org/zap"
)

// MockMailer logs instead of dialing. It is the default for development and CI
// so dunning runs never need SMTP credentials.
type MockMailer struct {
	log *zap.Logger
}

func NewMockMailer(log *zap.Logger) *MockMailer {
	return &MockMailer{log: log.Named("mailer.mock")}
}

func (m *MockMailer) Send(_ context.Context, to, subject, htmlBody string) (Result, error) {
	m.log.Info("mock mail",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)),
	)
	return Result{Mocked: true}, nil
}
