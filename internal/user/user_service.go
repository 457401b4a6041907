package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/murabitopit/attendance-app/internal/shared/contextutil"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	usererrors "github.com/murabitopit/attendance-app/internal/user/errors"
)

type Service interface {
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error)
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
	SetInitialFine(ctx context.Context, id string, fine int) (*UserResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	cache  *storecache.Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db *sql.DB, repo Repository, cache *storecache.Cache) Service {
	return &service{
		db:     db,
		repo:   repo,
		cache:  cache,
		logger: zap.L().Named("user_service"),
		now:    time.Now,
	}
}

func (s *service) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	repo := s.repo.WithTx(tx)

	if _, err := repo.FindByName(ctx, req.Name); err == nil {
		return nil, usererrors.ErrDuplicateName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u := &User{
		ID:   uuid.New(),
		Name: req.Name,
	}
	if err := repo.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, usererrors.ErrDuplicateName
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.UsersKey, storecache.RecordsKey)
	contextutil.GetLogger(ctx, s.logger).Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("name", u.Name))

	return mapToResponse(u), nil
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	var out []UserResponse
	err := s.cache.GetJSON(ctx, storecache.UsersKey, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]UserResponse, 0, len(rows))
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

func (s *service) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}
	return mapToResponse(u), nil
}

func (s *service) SetInitialFine(ctx context.Context, id string, fine int) (*UserResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	repo := s.repo.WithTx(tx)

	u, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}

	u.InitialFine = fine
	if err := repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storecache.UsersKey, storecache.RecordsKey)
	return mapToResponse(u), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	repo := s.repo.WithTx(tx)

	if _, err := repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usererrors.ErrUserNotFound
		}
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, storecache.UsersKey, storecache.RecordsKey)
	contextutil.GetLogger(ctx, s.logger).Info("user deleted", zap.String("user_id", id))
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:               u.ID.String(),
		Name:             u.Name,
		RestBalance:      u.RestBalance,
		PaidLeaveBalance: u.PaidLeaveBalance,
		InitialFine:      u.InitialFine,
		LastResetWeek:    u.LastResetWeek,
		LastResetMonth:   u.LastResetMonth,
	}
}
