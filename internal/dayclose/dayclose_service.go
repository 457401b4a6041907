package dayclose

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/murabitopit/attendance-app/internal/events"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	"github.com/murabitopit/attendance-app/internal/record"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/workweek"
)

const (
	// ForcedClockOut is past the work-end hour, so a forced closure can
	// never produce an early-leave fine.
	ForcedClockOut = "23:55:00"
	forcedNote     = "[auto-closed]"

	cutoffHour   = 23
	cutoffMinute = 55
)

type Result struct {
	Closed      int      `json:"closed"`
	ClosedDates []string `json:"closed_dates"`
}

type Service interface {
	ForceCloseOverdue(ctx context.Context) (*Result, error)
}

type service struct {
	db      *sql.DB
	records record.Repository
	outbox  kafka.OutboxRepository
	cache   *storecache.Cache
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(db *sql.DB, records record.Repository, outbox kafka.OutboxRepository, cache *storecache.Cache) Service {
	return &service{
		db:      db,
		records: records,
		outbox:  outbox,
		cache:   cache,
		logger:  zap.L().Named("dayclose_service"),
		now:     time.Now,
	}
}

// ForceCloseOverdue closes every record that is still open past its day's
// end: any open record dated before today, plus today's open records once
// the clock passes 23:55. Status and fine are left untouched.
func (s *service) ForceCloseOverdue(ctx context.Context) (*Result, error) {
	now := s.now()
	today := workweek.Date(now)
	pastCutoff := now.Hour()*60+now.Minute() >= cutoffHour*60+cutoffMinute

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	records := s.records.WithTx(tx)
	outbox := s.outbox.WithTx(tx)

	open, err := records.FindAllOpen(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{ClosedDates: []string{}}
	for i := range open {
		rec := &open[i]
		if !rec.IsOpen() {
			continue
		}
		if rec.RecordDate >= today && !(rec.RecordDate == today && pastCutoff) {
			continue
		}

		rec.ClockOut = ForcedClockOut
		rec.Note = strings.TrimSpace(rec.Note + " " + forcedNote)

		if err := records.Update(ctx, rec); err != nil {
			return nil, err
		}
		if err := s.enqueueEvent(ctx, outbox, rec); err != nil {
			return nil, err
		}
		res.Closed++
		res.ClosedDates = append(res.ClosedDates, rec.RecordDate)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if res.Closed > 0 {
		s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
		s.logger.Info("overdue records closed", zap.Int("count", res.Closed))
	}

	return res, nil
}

func (s *service) enqueueEvent(ctx context.Context, outbox kafka.OutboxRepository, rec *record.Record) error {
	payload, err := json.Marshal(events.RecordEvent{
		EventType:  events.RecordForceClosed,
		RecordID:   rec.ID.String(),
		UserID:     rec.UserID.String(),
		RecordDate: rec.RecordDate,
		Status:     rec.Status,
		Fine:       rec.Fine,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}

	return outbox.Create(ctx, kafka.OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: rec.ID.String(),
		EventType:   events.RecordForceClosed,
		Topic:       events.AttendanceRecordTopic,
		Payload:     payload,
		Status:      kafka.OutboxStatusPending,
	})
}
