package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/statustrack/statustrack/internal/pkg/metrics"
)

// EmailSender delivers a message to a set of recipients.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// WorkerConfig tunes the queue drain loop.
type WorkerConfig struct {
	BatchSize         int
	PollInterval      time.Duration
	NumWorkers        int
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	if c.BackoffMultiplier <= 1 {
		c.BackoffMultiplier = 2
	}
	return c
}

// Worker drains the notification queue in the background.
type Worker struct {
	repo   Repository
	sender EmailSender
	cfg    WorkerConfig
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewWorker creates a new queue worker.
func NewWorker(repo Repository, sender EmailSender, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{repo: repo, sender: sender, cfg: cfg.withDefaults(), logger: logger}
}

// Start launches the drain goroutines. They run until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.NumWorkers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
}

// Wait blocks until all drain goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	logger := w.logger.With("worker", id)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx, logger)
		}
	}
}

// drain claims and processes one batch. It loops until the queue has no due
// work left so a burst does not wait a poll interval per batch.
func (w *Worker) drain(ctx context.Context, logger *slog.Logger) {
	for {
		batch, err := w.repo.ClaimBatch(ctx, w.cfg.BatchSize, time.Now().UTC())
		if err != nil {
			logger.Error("claim notification batch", "error", err)
			return
		}
		if len(batch) == 0 {
			return
		}
		for i := range batch {
			if ctx.Err() != nil {
				return
			}
			w.process(ctx, logger, &batch[i])
		}
	}
}

func (w *Worker) process(ctx context.Context, logger *slog.Logger, n *Notification) {
	emails, err := w.repo.ListSubscriberEmails(ctx, n.OrganizationID)
	if err != nil {
		w.handleFailure(ctx, logger, n, &RetryableError{Err: err})
		return
	}
	if len(emails) == 0 {
		// Nothing to deliver; finalize so the row does not linger.
		if err := w.repo.MarkSent(ctx, n.ID); err != nil {
			logger.Error("finalize empty notification", "id", n.ID, "error", err)
		}
		metrics.NotificationsProcessed.WithLabelValues("skipped").Inc()
		return
	}

	if err := w.sender.Send(ctx, emails, n.Subject, n.Body); err != nil {
		w.handleFailure(ctx, logger, n, err)
		return
	}

	if err := w.repo.MarkSent(ctx, n.ID); err != nil {
		logger.Error("mark notification sent", "id", n.ID, "error", err)
		return
	}
	metrics.NotificationsProcessed.WithLabelValues("sent").Inc()
	logger.Debug("notification sent", "id", n.ID, "recipients", len(emails))
}

func (w *Worker) handleFailure(ctx context.Context, logger *slog.Logger, n *Notification, sendErr error) {
	attempts := n.Attempts + 1

	if !IsRetryable(sendErr) || attempts >= w.cfg.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, n.ID, attempts, sendErr.Error()); err != nil {
			logger.Error("mark notification failed", "id", n.ID, "error", err)
			return
		}
		metrics.NotificationsProcessed.WithLabelValues("failed").Inc()
		logger.Warn("notification delivery failed",
			"id", n.ID, "attempts", attempts, "error", sendErr)
		return
	}

	next := time.Now().UTC().Add(w.backoff(attempts))
	if err := w.repo.Reschedule(ctx, n.ID, attempts, next, sendErr.Error()); err != nil {
		logger.Error("reschedule notification", "id", n.ID, "error", err)
		return
	}
	metrics.NotificationsProcessed.WithLabelValues("retried").Inc()
	logger.Info("notification retry scheduled",
		"id", n.ID, "attempts", attempts, "next_attempt_at", next)
}

// backoff grows exponentially with the attempt count, capped at MaxBackoff.
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.cfg.InitialBackoff
	for i := 1; i < attempts; i++ {
		d = time.Duration(float64(d) * w.cfg.BackoffMultiplier)
		if d >= w.cfg.MaxBackoff {
			return w.cfg.MaxBackoff
		}
	}
	if d > w.cfg.MaxBackoff {
		d = w.cfg.MaxBackoff
	}
	return d
}
