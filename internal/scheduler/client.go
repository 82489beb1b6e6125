package scheduler

import (
	"context"
	"errors"
	"time"

	"b2b_marketplace_backend/platform/config"
	"b2b_marketplace_backend/platform/redisclient"

	"github.com/hibiken/asynq"
)

const (
	defaultQueue     = "default"
	reminderRetries  = 5
	reminderDeadline = 30 * time.Second
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues delayed quote tasks.
type Client struct {
	client enqueuer
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleValidityReminder enqueues a reminder for runAt. A reminder already
// queued for the same quote and validity day is kept.
func (c *Client) ScheduleValidityReminder(ctx context.Context, quoteNumber string, validUntil, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewQuoteValidityReminderTask(QuoteValidityReminderPayload{
		QuoteNumber: quoteNumber,
		ValidUntil:  validUntil.UTC().Format(time.DateOnly),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(runAt),
		asynq.Queue(c.queue),
		asynq.TaskID(reminderTaskID(quoteNumber, validUntil)),
		asynq.MaxRetry(reminderRetries),
		asynq.Timeout(reminderDeadline),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	opt, err := redisclient.Options(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return defaultQueue
}
