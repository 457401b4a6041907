package balance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/shared/workweek"
	"github.com/murabitopit/attendance-app/internal/user"
	usererrors "github.com/murabitopit/attendance-app/internal/user/errors"
)

type Service interface {
	GetAll(ctx context.Context) ([]BalanceResponse, error)
	Adjust(ctx context.Context, userID string, req AdjustBalanceRequest) (*BalanceResponse, error)
	SweepResets(ctx context.Context) (*SweepResetsResult, error)
}

type service struct {
	db     *sql.DB
	users  user.Repository
	locker *userlock.Locker
	cache  *storecache.Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db *sql.DB, users user.Repository, locker *userlock.Locker, cache *storecache.Cache) Service {
	return &service{
		db:     db,
		users:  users,
		locker: locker,
		cache:  cache,
		logger: zap.L().Named("balance_service"),
		now:    time.Now,
	}
}

func (s *service) GetAll(ctx context.Context) ([]BalanceResponse, error) {
	rows, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]BalanceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, mapToBalance(&rows[i]))
	}
	return out, nil
}

func (s *service) Adjust(ctx context.Context, userID string, req AdjustBalanceRequest) (*BalanceResponse, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	repo := s.users.WithTx(tx)

	u, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}

	if err := Add(u, req.Field, *req.Delta); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.UsersKey, storecache.RecordsKey)
	s.logger.Info("balance adjusted",
		zap.String("user_id", userID),
		zap.String("field", req.Field),
		zap.Int("delta", *req.Delta))

	resp := mapToBalance(u)
	return &resp, nil
}

// SweepResets walks every user and applies the weekly and monthly grants
// that are due today. Reset tokens make the sweep safe to re-run: a grant
// already recorded for the current week or month is skipped.
func (s *service) SweepResets(ctx context.Context) (*SweepResetsResult, error) {
	now := s.now()
	weeklyDue := workweek.IsWeekStart(now)
	monthlyDue := workweek.IsMonthStart(now)

	res := &SweepResetsResult{}
	if !weeklyDue && !monthlyDue {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	repo := s.users.WithTx(tx)

	rows, err := repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	res.UsersScanned = len(rows)

	for i := range rows {
		changed := false
		if weeklyDue && ApplyWeeklyReset(&rows[i], workweek.WeekKey(now)) {
			res.WeeklyApplied++
			changed = true
		}
		if monthlyDue && ApplyMonthlyReset(&rows[i], workweek.MonthKey(now)) {
			res.MonthlyApplied++
			changed = true
		}
		if changed {
			if err := repo.Update(ctx, &rows[i]); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if res.WeeklyApplied > 0 || res.MonthlyApplied > 0 {
		s.cache.Invalidate(ctx, storecache.UsersKey, storecache.RecordsKey)
	}
	s.logger.Info("reset sweep finished",
		zap.Int("users_scanned", res.UsersScanned),
		zap.Int("weekly_applied", res.WeeklyApplied),
		zap.Int("monthly_applied", res.MonthlyApplied))

	return res, nil
}

func mapToBalance(u *user.User) BalanceResponse {
	return BalanceResponse{
		UserID:           u.ID.String(),
		Name:             u.Name,
		RestBalance:      u.RestBalance,
		PaidLeaveBalance: u.PaidLeaveBalance,
	}
}
