package record

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=record_repo.go -destination=mock/record_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
	FindByUserAndDate(ctx context.Context, userID, date string) (*Record, error)
	FindLatestOpenByUser(ctx context.Context, userID string) (*Record, error)
	FindAllOpen(ctx context.Context) ([]Record, error)
	FindDatesByUserBetween(ctx context.Context, userID, from, to string) ([]string, error)
	FindAllByUser(ctx context.Context, userID string) ([]Record, error)
	FindAll(ctx context.Context) ([]Record, error)
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rec).Error
	return &rec, err
}

func (r *repository) FindByUserAndDate(ctx context.Context, userID, date string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND record_date = ?", userID, date).
		First(&rec).Error
	return &rec, err
}

func (r *repository) FindLatestOpenByUser(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND clock_out = ''", userID).
		Order("record_date DESC, created_at DESC").
		First(&rec).Error
	return &rec, err
}

func (r *repository) FindAllOpen(ctx context.Context) ([]Record, error) {
	var rows []Record
	err := r.db.WithContext(ctx).
		Where("clock_out = ''").
		Order("record_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindDatesByUserBetween(ctx context.Context, userID, from, to string) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("user_id = ? AND record_date BETWEEN ? AND ?", userID, from, to).
		Pluck("record_date", &dates).Error
	return dates, err
}

func (r *repository) FindAllByUser(ctx context.Context, userID string) ([]Record, error) {
	var rows []Record
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("record_date ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAll(ctx context.Context) ([]Record, error) {
	var rows []Record
	err := r.db.WithContext(ctx).
		Order("record_date ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, rec *Record) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Record{}).Error
}
