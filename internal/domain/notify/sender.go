package notify

import "context"

// Sender defines an interface for delivering a notification to a set of
// recipient addresses. This decouples the application logic from the
// concrete channel (SMTP, Telegram, ...).
type Sender interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}
