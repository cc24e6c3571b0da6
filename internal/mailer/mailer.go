package mailer

import "context"

// Result reports how a message left the system. Mocked sends never touched the
// network; callers surface the flag so operators can tell the modes apart.
type Result struct {
	Mocked bool
}

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) (Result, error)
}
