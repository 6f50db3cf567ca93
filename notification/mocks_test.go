package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/International-Combat-Archery-Alliance/email"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockEmailSender struct {
	SendEmailFunc func(ctx context.Context, e email.Email) error

	mu   sync.Mutex
	sent []email.Email
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	var err error
	if m.SendEmailFunc != nil {
		err = m.SendEmailFunc(ctx, e)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.sent = append(m.sent, e)
	}
	return err
}

func (m *mockEmailSender) Sent() []email.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Email(nil), m.sent...)
}

func (m *mockEmailSender) SentTo(address string) []email.Email {
	result := []email.Email{}
	for _, e := range m.Sent() {
		if len(e.ToAddresses) > 0 && e.ToAddresses[0] == address {
			result = append(result, e)
		}
	}
	return result
}
