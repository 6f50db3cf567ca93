package notification

import (
	"context"

	"github.com/International-Combat-Archery-Alliance/email"
	"gopkg.in/gomail.v2"
)

var _ email.Sender = &SMTPSender{}

type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// SendEmail returns when the SMTP exchange finishes or ctx is done, whichever
// comes first. gomail has no context support so an abandoned dial finishes in
// the background.
func (s *SMTPSender) SendEmail(ctx context.Context, e email.Email) error {
	m := newMessage(e)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newMessage sends a text body with an html alternative when there is text,
// and html only otherwise.
func newMessage(e email.Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.FromAddress)
	m.SetHeader("To", e.ToAddresses...)
	m.SetHeader("Subject", e.Subject)

	if e.TextBody != "" {
		m.SetBody("text/plain", e.TextBody)
		m.AddAlternative("text/html", e.HTMLBody)
	} else {
		m.SetBody("text/html", e.HTMLBody)
	}

	return m
}
