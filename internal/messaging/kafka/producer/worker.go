package producer

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
)

const (
	defaultPollInterval = 3 * time.Second
	drainBatchSize      = 50
)

// Worker drains the attendance outbox: pending rows become kafka messages,
// published rows are marked sent, failures are rescheduled with backoff by
// the repository.
type Worker struct {
	repo     kafka.OutboxRepository
	writer   *kafkago.Writer
	logger   *zap.Logger
	interval time.Duration
}

func NewWorker(repo kafka.OutboxRepository, writer *kafkago.Writer, logger *zap.Logger, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Worker{
		repo:     repo,
		writer:   writer,
		logger:   logger.Named("kafka.producer.worker"),
		interval: pollInterval,
	}
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started", zap.Duration("poll_interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.Error("drain outbox failed", zap.Error(err))
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	pending, err := w.repo.ListPending(ctx, drainBatchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.Info("draining pending attendance events", zap.Int("count", len(pending)))

	for _, ev := range pending {
		if err := kafka.ValidateOutboxEvent(ev); err != nil {
			w.logger.Error("malformed outbox event",
				zap.String("outbox_id", ev.ID),
				zap.Error(err),
			)
			_ = w.repo.MarkFailed(ctx, ev.ID, err.Error())
			continue
		}

		if err := w.publish(ctx, ev); err != nil {
			w.logger.Error("publish attendance event failed",
				zap.String("outbox_id", ev.ID),
				zap.String("record_id", ev.AggregateID),
				zap.String("event_type", ev.EventType),
				zap.Error(err),
			)
			_ = w.repo.MarkFailed(ctx, ev.ID, err.Error())
			continue
		}

		if err := w.repo.MarkSent(ctx, ev.ID); err != nil {
			w.logger.Error("mark outbox sent failed",
				zap.String("outbox_id", ev.ID),
				zap.Error(err),
			)
			continue
		}

		w.logger.Info("attendance event sent",
			zap.String("record_id", ev.AggregateID),
			zap.String("event_type", ev.EventType),
			zap.String("topic", ev.Topic),
		)
	}

	return nil
}

// publish keys messages by record id so all events for one record land in
// the same partition, in order.
func (w *Worker) publish(ctx context.Context, ev kafka.OutboxEvent) error {
	return w.writer.WriteMessages(ctx, kafkago.Message{
		Topic: ev.Topic,
		Key:   []byte(ev.AggregateID),
		Value: ev.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
		},
	})
}
