package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Second
	DefaultSendTimeout = 30 * time.Second
)

// Task is one queued student+admin send. It only lives in memory.
type Task struct {
	ID        uuid.UUID
	Payload   Payload
	Attempts  int
	CreatedAt time.Time
}

type Options struct {
	FromAddress  string
	AdminAddress string
	MaxAttempts  int
	RetryDelay   time.Duration
	SendTimeout  time.Duration
}

// Dispatcher delivers queued notifications in FIFO order from a single
// background worker. A failing head task blocks the tasks behind it until it
// is delivered or abandoned after MaxAttempts.
type Dispatcher struct {
	sender email.Sender
	logger *slog.Logger
	tracer trace.Tracer
	opts   Options
	now    func() time.Time

	mu       sync.Mutex
	tasks    []*Task
	draining bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(sender email.Sender, logger *slog.Logger, opts Options) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		sender: sender,
		logger: logger,
		tracer: otel.Tracer("github.com/python-wizard/course-enrollment/notification"),
		opts:   opts,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enqueue appends a task and starts the drain loop if it is not running.
// It never waits for delivery.
func (d *Dispatcher) Enqueue(payload Payload) uuid.UUID {
	task := &Task{
		ID:        uuid.New(),
		Payload:   payload,
		CreatedAt: d.now(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx.Err() != nil {
		d.logger.Warn("dispatcher is closed, email task will not be delivered", slog.String("task-id", task.ID.String()))
		return task.ID
	}

	d.tasks = append(d.tasks, task)

	if !d.draining {
		d.draining = true
		d.wg.Add(1)
		go d.drain()
	}

	return task.ID
}

func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

func (d *Dispatcher) Draining() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draining
}

// Close stops the drain loop and waits for it to exit. Tasks still queued are
// dropped.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if n := d.Len(); n > 0 {
		d.logger.Warn("dropping undelivered email tasks on shutdown", slog.Int("count", n))
	}
	return nil
}

func (d *Dispatcher) drain() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(d.tasks) == 0 || d.ctx.Err() != nil {
			d.draining = false
			d.mu.Unlock()
			return
		}
		task := d.tasks[0]
		d.mu.Unlock()

		err := d.deliver(task)
		if err == nil {
			d.removeHead()
			d.logger.Info("email task delivered",
				slog.String("task-id", task.ID.String()),
				slog.String("email", task.Payload.Email),
				slog.Int("attempts", task.Attempts+1),
			)
			continue
		}

		task.Attempts++
		if task.Attempts >= d.opts.MaxAttempts {
			d.removeHead()
			d.logger.Error("email task abandoned",
				slog.String("task-id", task.ID.String()),
				slog.String("email", task.Payload.Email),
				slog.Int("attempts", task.Attempts),
				slog.String("error", err.Error()),
			)
			continue
		}

		d.logger.Warn("email task failed, retrying",
			slog.String("task-id", task.ID.String()),
			slog.Int("attempts", task.Attempts),
			slog.Duration("retry-in", d.opts.RetryDelay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(d.opts.RetryDelay)
		select {
		case <-d.ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (d *Dispatcher) removeHead() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks[0] = nil
	d.tasks = d.tasks[1:]
}

// deliver sends the student message and then the admin copy. Only the student
// send decides success.
func (d *Dispatcher) deliver(task *Task) error {
	ctx, span := d.tracer.Start(d.ctx, "DeliverNotification", trace.WithAttributes(
		attribute.String("task.id", task.ID.String()),
		attribute.Int("task.attempt", task.Attempts+1),
	))
	defer span.End()

	studentMsg, adminMsg, err := renderPair(task.Payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = d.send(ctx, task.Payload.Email, studentMsg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to send student email: %w", err)
	}

	if d.opts.AdminAddress == "" {
		return nil
	}

	err = d.send(ctx, d.opts.AdminAddress, adminMsg)
	if err != nil {
		d.logger.Warn("failed to send admin email",
			slog.String("task-id", task.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (d *Dispatcher) send(ctx context.Context, to string, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	return d.sender.SendEmail(ctx, email.Email{
		FromAddress: d.opts.FromAddress,
		ToAddresses: []string{to},
		Subject:     msg.Subject,
		HTMLBody:    msg.HTMLBody,
		TextBody:    msg.TextBody,
	})
}
