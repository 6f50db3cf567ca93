package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminAddress = "admin@example.com"

func newTestDispatcher(sender email.Sender) *Dispatcher {
	return NewDispatcher(sender, noopLogger, Options{
		FromAddress:  "Python Wizard <hello@example.com>",
		AdminAddress: adminAddress,
		MaxAttempts:  3,
		RetryDelay:   time.Millisecond,
		SendTimeout:  time.Second,
	})
}

func waitIdle(t *testing.T, d *Dispatcher) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return d.Len() == 0 && !d.Draining()
	}, 2*time.Second, time.Millisecond)
}

func payloadFor(address string) Payload {
	p := testPayload()
	p.Email = address
	return p
}

func TestDispatcher(t *testing.T) {
	t.Run("delivers student and admin email", func(t *testing.T) {
		sender := &mockEmailSender{}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("asha@example.com"))
		waitIdle(t, d)

		student := sender.SentTo("asha@example.com")
		require.Len(t, student, 1)
		assert.Equal(t, "Python Wizard <hello@example.com>", student[0].FromAddress)
		assert.Len(t, sender.SentTo(adminAddress), 1)
	})

	t.Run("task failing maxAttempts-1 times is delivered exactly once", func(t *testing.T) {
		var studentCalls atomic.Int32
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				if e.ToAddresses[0] == adminAddress {
					return nil
				}
				if studentCalls.Add(1) <= 2 {
					return errors.New("smtp unavailable")
				}
				return nil
			},
		}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("asha@example.com"))
		waitIdle(t, d)

		assert.Equal(t, int32(3), studentCalls.Load())
		assert.Len(t, sender.SentTo("asha@example.com"), 1)
		assert.Equal(t, 0, d.Len())
	})

	t.Run("task failing maxAttempts times is abandoned", func(t *testing.T) {
		var studentCalls atomic.Int32
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				studentCalls.Add(1)
				return errors.New("smtp unavailable")
			},
		}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("asha@example.com"))
		waitIdle(t, d)

		assert.Equal(t, int32(3), studentCalls.Load())
		assert.Empty(t, sender.Sent())
	})

	t.Run("admin failure does not fail the task", func(t *testing.T) {
		var adminCalls atomic.Int32
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				if e.ToAddresses[0] == adminAddress {
					adminCalls.Add(1)
					return errors.New("admin mailbox full")
				}
				return nil
			},
		}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("asha@example.com"))
		waitIdle(t, d)

		assert.Len(t, sender.SentTo("asha@example.com"), 1)
		assert.Equal(t, int32(1), adminCalls.Load())
	})

	t.Run("no admin address skips the admin copy", func(t *testing.T) {
		sender := &mockEmailSender{}
		d := NewDispatcher(sender, noopLogger, Options{RetryDelay: time.Millisecond})
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("asha@example.com"))
		waitIdle(t, d)

		assert.Len(t, sender.Sent(), 1)
	})

	t.Run("delivers in FIFO order behind a failing head", func(t *testing.T) {
		var mu sync.Mutex
		failures := map[string]int{"first@example.com": 2}
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				mu.Lock()
				defer mu.Unlock()
				to := e.ToAddresses[0]
				if failures[to] > 0 {
					failures[to]--
					return errors.New("temporary failure")
				}
				return nil
			},
		}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("first@example.com"))
		d.Enqueue(payloadFor("second@example.com"))
		d.Enqueue(payloadFor("third@example.com"))
		waitIdle(t, d)

		order := []string{}
		for _, e := range sender.Sent() {
			if e.ToAddresses[0] != adminAddress {
				order = append(order, e.ToAddresses[0])
			}
		}
		assert.Equal(t, []string{"first@example.com", "second@example.com", "third@example.com"}, order)
	})

	t.Run("drain loop restarts after going idle", func(t *testing.T) {
		sender := &mockEmailSender{}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		d.Enqueue(payloadFor("one@example.com"))
		waitIdle(t, d)
		d.Enqueue(payloadFor("two@example.com"))
		waitIdle(t, d)

		assert.Len(t, sender.SentTo("one@example.com"), 1)
		assert.Len(t, sender.SentTo("two@example.com"), 1)
	})

	t.Run("payment payload selects the confirmation variant", func(t *testing.T) {
		sender := &mockEmailSender{}
		d := newTestDispatcher(sender)
		defer d.Close(context.Background())

		p := payloadFor("asha@example.com")
		p.PaymentID = "pay_1"
		p.OrderID = "order_1"
		d.Enqueue(p)
		waitIdle(t, d)

		student := sender.SentTo("asha@example.com")
		require.Len(t, student, 1)
		assert.Contains(t, student[0].Subject, "Payment confirmed")
		assert.Contains(t, student[0].HTMLBody, "pay_1")
	})

	t.Run("close stops retrying", func(t *testing.T) {
		sender := &mockEmailSender{
			SendEmailFunc: func(ctx context.Context, e email.Email) error {
				return errors.New("down")
			},
		}
		d := NewDispatcher(sender, noopLogger, Options{MaxAttempts: 3, RetryDelay: time.Hour})

		d.Enqueue(payloadFor("asha@example.com"))
		assert.Eventually(t, func() bool {
			return d.Len() == 1
		}, time.Second, time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, d.Close(ctx))

		assert.False(t, d.Draining())
	})

	t.Run("enqueue after close is not queued", func(t *testing.T) {
		sender := &mockEmailSender{}
		d := newTestDispatcher(sender)
		require.NoError(t, d.Close(context.Background()))

		for range 3 {
			d.Enqueue(payloadFor("asha@example.com"))
		}

		assert.Equal(t, 0, d.Len())
		assert.False(t, d.Draining())
		assert.Empty(t, sender.Sent())
	})
}
