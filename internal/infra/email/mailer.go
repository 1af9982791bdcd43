package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers notifications over SMTP.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(host, port, from, username, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		from:     from,
		username: username,
		password: password,
	}
}

// Send delivers one message to all recipients. The context bounds how long
// the caller waits; an abandoned send may still complete on the wire, which
// the at-least-once marking semantics already tolerate.
func (m *Mailer) Send(ctx context.Context, recipients []string, subject, body string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.sendMail(recipients, subject, body)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send timed out: %w", ctx.Err())
	case err := <-errCh:
		return err
	}
}

func (m *Mailer) sendMail(recipients []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, strings.Join(recipients, ", "), subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, recipients, []byte(msg))
}
