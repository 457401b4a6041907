package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/murabitopit/attendance-app/internal/events"
	"github.com/murabitopit/attendance-app/internal/fine"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	"github.com/murabitopit/attendance-app/internal/record"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/shared/workweek"
	"github.com/murabitopit/attendance-app/internal/user"
	usererrors "github.com/murabitopit/attendance-app/internal/user/errors"
)

const backfillNote = "auto-backfill"

type Result struct {
	RestFilled       int      `json:"rest_filled"`
	AbsenceFilled    int      `json:"absence_filled"`
	FinalRestBalance int      `json:"final_rest_balance"`
	FilledDates      []string `json:"filled_dates"`
}

type Service interface {
	Reconcile(ctx context.Context, userID string) (*Result, error)
}

type service struct {
	db      *sql.DB
	records record.Repository
	users   user.Repository
	outbox  kafka.OutboxRepository
	locker  *userlock.Locker
	cache   *storecache.Cache
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(
	db *sql.DB,
	records record.Repository,
	users user.Repository,
	outbox kafka.OutboxRepository,
	locker *userlock.Locker,
	cache *storecache.Cache,
) Service {
	return &service{
		db:      db,
		records: records,
		users:   users,
		outbox:  outbox,
		locker:  locker,
		cache:   cache,
		logger:  zap.L().Named("reconcile_service"),
		now:     time.Now,
	}
}

// Reconcile backfills the weekdays of the current month that elapsed with no
// record, up to and including yesterday. Each missing day consumes one rest
// day while the local counter lasts; the remainder become absences at the
// daily fine ceiling. The counter is written back only if it moved.
func (s *service) Reconcile(ctx context.Context, userID string) (*Result, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	first := workweek.FirstOfMonth(now)
	yesterday := workweek.Midnight(now).AddDate(0, 0, -1)

	res := &Result{FilledDates: []string{}}
	if yesterday.Before(first) {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	users := s.users.WithTx(tx)
	records := s.records.WithTx(tx)
	outbox := s.outbox.WithTx(tx)

	u, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}

	existing, err := records.FindDatesByUserBetween(ctx, userID, workweek.Date(first), workweek.Date(yesterday))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d] = true
	}

	snapshot := u.RestBalance
	local := snapshot

	for _, date := range workweek.WeekdaysBetween(first, yesterday) {
		if seen[date] {
			continue
		}
		// Re-check right before filling; another session may have written
		// this date since the range scan.
		if _, err := records.FindByUserAndDate(ctx, userID, date); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		rec := &record.Record{
			ID:         uuid.New(),
			UserID:     u.ID,
			RecordDate: date,
			Note:       backfillNote,
		}
		if local > 0 {
			rec.Status = record.StatusRest
			rec.ClockIn = record.NoClock
			rec.ClockOut = record.NoClock
			local--
			res.RestFilled++
		} else {
			rec.Status = record.StatusAbsence
			rec.Fine = fine.MaxDailyFine
			res.AbsenceFilled++
		}

		if err := records.Create(ctx, rec); err != nil {
			return nil, err
		}
		if err := s.enqueueEvent(ctx, outbox, rec); err != nil {
			return nil, err
		}
		res.FilledDates = append(res.FilledDates, date)
	}

	if local != snapshot {
		u.RestBalance = local
		if err := users.Update(ctx, u); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	res.FinalRestBalance = local
	if len(res.FilledDates) > 0 {
		s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	}
	s.logger.Info("reconciliation finished",
		zap.String("user_id", userID),
		zap.Int("rest_filled", res.RestFilled),
		zap.Int("absence_filled", res.AbsenceFilled),
		zap.Int("final_rest_balance", res.FinalRestBalance))

	return res, nil
}

func (s *service) enqueueEvent(ctx context.Context, outbox kafka.OutboxRepository, rec *record.Record) error {
	payload, err := json.Marshal(events.RecordEvent{
		EventType:  events.RecordBackfilled,
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
		EventType:   events.RecordBackfilled,
		Topic:       events.AttendanceRecordTopic,
		Payload:     payload,
		Status:      kafka.OutboxStatusPending,
	})
}
