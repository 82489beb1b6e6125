package scheduler

import (
	"context"
	"fmt"
	"time"

	"b2b_marketplace_backend/platform/config"
	"b2b_marketplace_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ReminderSender delivers a due validity reminder.
type ReminderSender interface {
	SendValidityReminder(ctx context.Context, quoteNumber string, validUntil time.Time) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender ReminderSender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender ReminderSender, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(sender, log)
	w.server = server
	return w, nil
}

func newWorker(sender ReminderSender, log *logger.Logger) *Worker {
	w := &Worker{
		mux:    asynq.NewServeMux(),
		sender: sender,
		log:    log,
	}
	w.mux.HandleFunc(TaskQuoteValidityReminder, w.handleValidityReminder)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleValidityReminder(ctx context.Context, task *asynq.Task) error {
	payload, validUntil, err := ParseQuoteValidityReminderPayload(task)
	if err != nil {
		w.log.Warn("dropping malformed validity reminder", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.SendValidityReminder(ctx, payload.QuoteNumber, validUntil); err != nil {
		w.log.Error("validity reminder failed", "quoteNumber", payload.QuoteNumber, "error", err)
		return err
	}
	return nil
}
