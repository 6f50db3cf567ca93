package notification

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	base := email.Email{
		FromAddress: "Python Wizard <hello@example.com>",
		ToAddresses: []string{"asha@example.com"},
		Subject:     "Payment confirmed",
		HTMLBody:    "<p>Thanks, Asha</p>",
	}

	t.Run("text with html alternative", func(t *testing.T) {
		e := base
		e.TextBody = "Thanks, Asha"

		m := newMessage(e)
		assert.Equal(t, []string{"Python Wizard <hello@example.com>"}, m.GetHeader("From"))
		assert.Equal(t, []string{"asha@example.com"}, m.GetHeader("To"))
		assert.Equal(t, []string{"Payment confirmed"}, m.GetHeader("Subject"))

		var buf bytes.Buffer
		_, err := m.WriteTo(&buf)
		require.NoError(t, err)

		raw := buf.String()
		assert.Contains(t, raw, "multipart/alternative")
		assert.Contains(t, raw, "text/plain")
		assert.Contains(t, raw, "text/html")
		assert.Contains(t, raw, "Thanks, Asha")
		assert.Contains(t, raw, "<p>Thanks, Asha</p>")
	})

	t.Run("html only", func(t *testing.T) {
		m := newMessage(base)

		var buf bytes.Buffer
		_, err := m.WriteTo(&buf)
		require.NoError(t, err)

		raw := buf.String()
		assert.NotContains(t, raw, "multipart/alternative")
		assert.NotContains(t, raw, "text/plain")
		assert.Contains(t, raw, "text/html")
		assert.Contains(t, raw, "<p>Thanks, Asha</p>")
	})
}

func TestSMTPSenderHonorsContext(t *testing.T) {
	// Accepts connections and never speaks, so the SMTP greeting never arrives.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	port := ln.Addr().(*net.TCPAddr).Port
	sender := NewSMTPSender("127.0.0.1", port, "", "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = sender.SendEmail(ctx, email.Email{
		FromAddress: "hello@example.com",
		ToAddresses: []string{"asha@example.com"},
		Subject:     "Hi",
		HTMLBody:    "<p>Hi</p>",
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
