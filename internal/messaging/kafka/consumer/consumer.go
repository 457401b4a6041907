package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/murabitopit/attendance-app/internal/events"
	"github.com/murabitopit/attendance-app/internal/fine"
)

// ConsumeRecordEvents tails the attendance record topic and raises a log
// alert whenever a record hits the daily fine ceiling. It is the audit tap
// for downstream payroll tooling.
func ConsumeRecordEvents(
	ctx context.Context,
	reader *kafkago.Reader,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.record_events")
	log.Info("record events consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("record events consumer stopped")
				return
			}
			log.Error("fetch record event failed", zap.Error(err))
			continue
		}

		var event events.RecordEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode record event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if event.Fine >= fine.MaxDailyFine {
			log.Warn("daily fine ceiling reached",
				zap.String("user_id", event.UserID),
				zap.String("record_date", event.RecordDate),
				zap.String("status", event.Status),
				zap.Int("fine", event.Fine),
			)
		} else {
			log.Info("record event received",
				zap.String("event_type", event.EventType),
				zap.String("user_id", event.UserID),
				zap.String("record_date", event.RecordDate),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit record event failed", zap.Error(err))
		}
	}
}
