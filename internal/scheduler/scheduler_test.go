package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"b2b_marketplace_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]any
}

type fakeEnqueuer struct {
	calls []enqueued
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	byType := make(map[asynq.OptionType]any, len(opts))
	for _, o := range opts {
		byType[o.Type()] = o.Value()
	}
	f.calls = append(f.calls, enqueued{task: task, opts: byType})
	return &asynq.TaskInfo{}, f.err
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeSender struct {
	quoteNumber string
	validUntil  time.Time
	err         error
}

func (f *fakeSender) SendValidityReminder(_ context.Context, quoteNumber string, validUntil time.Time) error {
	f.quoteNumber = quoteNumber
	f.validUntil = validUntil
	return f.err
}

func TestScheduleValidityReminder(t *testing.T) {
	fake := &fakeEnqueuer{}
	c := &Client{client: fake, queue: "quotes"}
	validUntil := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	runAt := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.ScheduleValidityReminder(context.Background(), "RFQ-2026-000007", validUntil, runAt))

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, TaskQuoteValidityReminder, call.task.Type())
	assert.JSONEq(t, `{"quoteNumber":"RFQ-2026-000007","validUntil":"2026-03-31"}`, string(call.task.Payload()))
	assert.Equal(t, "quotes", call.opts[asynq.QueueOpt])
	assert.Equal(t, "quote-reminder:RFQ-2026-000007:2026-03-31", call.opts[asynq.TaskIDOpt])
	assert.True(t, runAt.Equal(call.opts[asynq.ProcessAtOpt].(time.Time)))
}

func TestScheduleValidityReminderIgnoresDuplicates(t *testing.T) {
	c := &Client{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}, queue: "default"}
	now := time.Now()

	assert.NoError(t, c.ScheduleValidityReminder(context.Background(), "RFQ-2026-000007", now, now))

	c = &Client{client: &fakeEnqueuer{err: errors.New("redis down")}, queue: "default"}
	assert.EqualError(t, c.ScheduleValidityReminder(context.Background(), "RFQ-2026-000007", now, now), "redis down")
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	assert.NoError(t, c.ScheduleValidityReminder(context.Background(), "RFQ-2026-000007", time.Now(), time.Now()))
	assert.NoError(t, c.Close())
}

func TestWorkerDeliversReminder(t *testing.T) {
	sender := &fakeSender{}
	w := newWorker(sender, logger.Nop())

	task, err := NewQuoteValidityReminderTask(QuoteValidityReminderPayload{QuoteNumber: "RFQ-2026-000009", ValidUntil: "2026-04-02"})
	require.NoError(t, err)
	require.NoError(t, w.mux.ProcessTask(context.Background(), task))

	assert.Equal(t, "RFQ-2026-000009", sender.quoteNumber)
	assert.Equal(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), sender.validUntil)
}

func TestWorkerRetriesSenderFailures(t *testing.T) {
	w := newWorker(&fakeSender{err: errors.New("db down")}, logger.Nop())

	task, err := NewQuoteValidityReminderTask(QuoteValidityReminderPayload{QuoteNumber: "RFQ-2026-000009", ValidUntil: "2026-04-02"})
	require.NoError(t, err)

	err = w.mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestWorkerSkipsMalformedPayload(t *testing.T) {
	sender := &fakeSender{}
	w := newWorker(sender, logger.Nop())

	for _, payload := range []string{`not json`, `{"quoteNumber":"","validUntil":"2026-04-02"}`, `{"quoteNumber":"RFQ-1","validUntil":"tomorrow"}`} {
		err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskQuoteValidityReminder, []byte(payload)))
		assert.ErrorIs(t, err, asynq.SkipRetry, payload)
	}
	assert.Empty(t, sender.quoteNumber)
}
