package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/murabitopit/attendance-app/internal/balance"
	"github.com/murabitopit/attendance-app/internal/events"
	"github.com/murabitopit/attendance-app/internal/fine"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	recorderrors "github.com/murabitopit/attendance-app/internal/record/errors"
	"github.com/murabitopit/attendance-app/internal/shared/apperror"
	"github.com/murabitopit/attendance-app/internal/shared/contextutil"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/shared/workweek"
	"github.com/murabitopit/attendance-app/internal/user"
	usererrors "github.com/murabitopit/attendance-app/internal/user/errors"
)

type Service interface {
	ClockIn(ctx context.Context, userID string, req ClockInRequest) (*RecordResponse, error)
	ClockOut(ctx context.Context, userID string, req ClockOutRequest) (*RecordResponse, error)
	ApplyLeave(ctx context.Context, userID string, req ApplyLeaveRequest) (*RecordResponse, error)
	RegisterAbsence(ctx context.Context, userID string) (*RecordResponse, error)
	AdminEdit(ctx context.Context, recordID string, req AdminEditRequest) (*RecordResponse, error)
	AdminDelete(ctx context.Context, recordID string) error
	GetAll(ctx context.Context) ([]RecordResponse, error)
	GetByUser(ctx context.Context, userID string) ([]RecordResponse, error)
	GetFineSummary(ctx context.Context) ([]FineSummaryRow, error)
	ExportFineSummary(ctx context.Context) ([]byte, error)
}

type service struct {
	db      *sql.DB
	records Repository
	users   user.Repository
	outbox  kafka.OutboxRepository
	locker  *userlock.Locker
	cache   *storecache.Cache
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(
	db *sql.DB,
	records Repository,
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
		logger:  zap.L().Named("record_service"),
		now:     time.Now,
	}
}

func (s *service) ClockIn(ctx context.Context, userID string, req ClockInRequest) (*RecordResponse, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	today := workweek.Date(now)

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

	if _, err := records.FindByUserAndDate(ctx, userID, today); err == nil {
		return nil, recorderrors.ErrDuplicateRecord
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	holiday := req.Holiday || workweek.IsWeekend(now)

	amount := 0
	status := StatusHolidayWork
	note := "holiday-work"
	if !holiday {
		amount, status = fine.Late(now)
		amount = fine.Clamp(amount)
		note = ""
	}

	rec := &Record{
		ID:         uuid.New(),
		UserID:     u.ID,
		RecordDate: today,
		ClockIn:    workweek.Clock(now),
		Status:     status,
		Fine:       amount,
		Note:       note,
	}
	if err := records.Create(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			return nil, recorderrors.ErrDuplicateRecord
		}
		return nil, err
	}

	if err := s.enqueueEvent(ctx, outbox, events.RecordCreated, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	s.logger.Info("clock-in recorded",
		zap.String("user_id", userID),
		zap.String("date", today),
		zap.String("status", status),
		zap.Int("fine", amount))

	return mapToResponse(rec), nil
}

// ClockOut closes the most recent open record for the user. Closing a
// record dated before today never applies an early-leave fine; neither
// does closing a holiday-work record.
func (s *service) ClockOut(ctx context.Context, userID string, req ClockOutRequest) (*RecordResponse, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	today := workweek.Date(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	records := s.records.WithTx(tx)
	outbox := s.outbox.WithTx(tx)

	rec, err := records.FindLatestOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recorderrors.ErrNoOpenRecord
		}
		return nil, err
	}

	early := 0
	if rec.RecordDate == today && !req.Holiday && rec.Status != StatusHolidayWork {
		early = fine.Early(now)
	}

	status := StatusCheckedOut
	if early > 0 {
		status += EarlyLeaveSuffix
	}

	rec.ClockOut = workweek.Clock(now)
	rec.Status = status
	rec.Fine = fine.Combine(rec.Fine, early)
	rec.Note = strings.TrimSpace(rec.Note + " " + req.Note)

	if err := records.Update(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.enqueueEvent(ctx, outbox, events.RecordClosed, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	s.logger.Info("clock-out recorded",
		zap.String("user_id", userID),
		zap.String("date", rec.RecordDate),
		zap.Int("early_fine", early),
		zap.Int("fine", rec.Fine))

	return mapToResponse(rec), nil
}

func (s *service) ApplyLeave(ctx context.Context, userID string, req ApplyLeaveRequest) (*RecordResponse, error) {
	status, field, err := leaveKind(req.LeaveType)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	today := workweek.Date(now)

	target := req.Date
	if target == "" {
		target = today
	} else if _, err := time.Parse(workweek.DateLayout, target); err != nil {
		return nil, apperror.InvalidField("date")
	}

	if target < today {
		return nil, recorderrors.ErrPastDate
	}
	if status == StatusPaidLeave && target == today && fine.PastApplyDeadline(now) {
		return nil, recorderrors.ErrDeadlinePassed
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

	if _, err := records.FindByUserAndDate(ctx, userID, target); err == nil {
		return nil, recorderrors.ErrDuplicateRecord
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := balance.Consume(u, field); err != nil {
		return nil, err
	}
	if err := users.Update(ctx, u); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:         uuid.New(),
		UserID:     u.ID,
		RecordDate: target,
		ClockIn:    NoClock,
		ClockOut:   NoClock,
		Status:     status,
		Fine:       0,
		Note:       "applied-use",
	}
	if err := records.Create(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			return nil, recorderrors.ErrDuplicateRecord
		}
		return nil, err
	}

	if err := s.enqueueEvent(ctx, outbox, events.LeaveApplied, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	s.logger.Info("leave applied",
		zap.String("user_id", userID),
		zap.String("date", target),
		zap.String("leave_type", req.LeaveType))

	return mapToResponse(rec), nil
}

func (s *service) RegisterAbsence(ctx context.Context, userID string) (*RecordResponse, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	today := workweek.Date(now)

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

	if _, err := records.FindByUserAndDate(ctx, userID, today); err == nil {
		return nil, recorderrors.ErrDuplicateRecord
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rec := &Record{
		ID:         uuid.New(),
		UserID:     u.ID,
		RecordDate: today,
		Status:     StatusAbsence,
		Fine:       fine.MaxDailyFine,
		Note:       "manual-absence",
	}
	if err := records.Create(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			return nil, recorderrors.ErrDuplicateRecord
		}
		return nil, err
	}

	if err := s.enqueueEvent(ctx, outbox, events.RecordCreated, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	s.logger.Info("absence registered",
		zap.String("user_id", userID),
		zap.String("date", today))

	return mapToResponse(rec), nil
}

// AdminEdit overwrites every mutable field of a record unconditionally.
// It is the only supported correction path and bypasses the fine policy,
// except that the fine is still clamped to the daily ceiling.
func (s *service) AdminEdit(ctx context.Context, recordID string, req AdminEditRequest) (*RecordResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	records := s.records.WithTx(tx)

	rec, err := records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recorderrors.ErrRecordNotFound
		}
		return nil, err
	}

	rec.ClockIn = req.ClockIn
	rec.ClockOut = req.ClockOut
	rec.Status = req.Status
	rec.Fine = fine.Clamp(*req.Fine)
	rec.Note = req.Note

	if err := records.Update(ctx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	s.logger.Info("record edited",
		zap.String("record_id", recordID),
		zap.String("actor_id", contextutil.GetActorID(ctx)))

	return mapToResponse(rec), nil
}

func (s *service) AdminDelete(ctx context.Context, recordID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	records := s.records.WithTx(tx)

	if _, err := records.FindByID(ctx, recordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return recorderrors.ErrRecordNotFound
		}
		return err
	}

	if err := records.Delete(ctx, recordID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, storecache.RecordsKey, storecache.UsersKey)
	s.logger.Info("record deleted",
		zap.String("record_id", recordID),
		zap.String("actor_id", contextutil.GetActorID(ctx)))
	return nil
}

func (s *service) GetAll(ctx context.Context) ([]RecordResponse, error) {
	var out []RecordResponse
	err := s.cache.GetJSON(ctx, storecache.RecordsKey, &out, func(ctx context.Context) (any, error) {
		rows, err := s.records.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]RecordResponse, 0, len(rows))
		for i := range rows {
			list = append(list, *mapToResponse(&rows[i]))
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) GetByUser(ctx context.Context, userID string) ([]RecordResponse, error) {
	rows, err := s.records.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]RecordResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *mapToResponse(&rows[i]))
	}
	return out, nil
}

// GetFineSummary pivots fines per user and week label. Only records with a
// positive fine contribute; the user's initial fine is reported alongside
// and counted into the total.
func (s *service) GetFineSummary(ctx context.Context) ([]FineSummaryRow, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.records.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*FineSummaryRow, len(users))
	out := make([]FineSummaryRow, 0, len(users))
	for i := range users {
		row := FineSummaryRow{
			UserID:      users[i].ID.String(),
			Name:        users[i].Name,
			InitialFine: users[i].InitialFine,
			Weeks:       map[string]int{},
			Total:       users[i].InitialFine,
		}
		out = append(out, row)
		byUser[row.UserID] = &out[len(out)-1]
	}

	for i := range records {
		rec := &records[i]
		if rec.Fine <= 0 {
			continue
		}
		row, ok := byUser[rec.UserID.String()]
		if !ok {
			continue
		}
		week := workweek.WeekLabel(rec.RecordDate)
		row.Weeks[week] += rec.Fine
		row.Total += rec.Fine
	}

	return out, nil
}

func (s *service) enqueueEvent(ctx context.Context, outbox kafka.OutboxRepository, eventType string, rec *Record) error {
	payload, err := json.Marshal(events.RecordEvent{
		EventType:  eventType,
		RequestID:  contextutil.GetRequestID(ctx),
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
		EventType:   eventType,
		Topic:       events.AttendanceRecordTopic,
		Payload:     payload,
		Status:      kafka.OutboxStatusPending,
	})
}

func leaveKind(leaveType string) (status, field string, err error) {
	switch leaveType {
	case LeaveTypeRest:
		return StatusRest, user.FieldRestBalance, nil
	case LeaveTypePaid:
		return StatusPaidLeave, user.FieldPaidLeaveBalance, nil
	default:
		return "", "", recorderrors.ErrUnknownLeaveType
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(rec *Record) *RecordResponse {
	return &RecordResponse{
		ID:         rec.ID.String(),
		UserID:     rec.UserID.String(),
		RecordDate: rec.RecordDate,
		ClockIn:    rec.ClockIn,
		ClockOut:   rec.ClockOut,
		Status:     rec.Status,
		Fine:       rec.Fine,
		Note:       rec.Note,
	}
}
