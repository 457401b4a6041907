package reconcile

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	"github.com/murabitopit/attendance-app/internal/record"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/user"
)

type stubRecordRepo struct {
	dates   []string
	byDate  map[string]*record.Record
	created []record.Record
}

func (s *stubRecordRepo) WithTx(tx *sql.Tx) record.Repository { return s }

func (s *stubRecordRepo) Create(ctx context.Context, rec *record.Record) error {
	s.created = append(s.created, *rec)
	return nil
}

func (s *stubRecordRepo) FindByID(ctx context.Context, id string) (*record.Record, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordRepo) FindByUserAndDate(ctx context.Context, userID, date string) (*record.Record, error) {
	if rec, ok := s.byDate[date]; ok {
		return rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordRepo) FindLatestOpenByUser(ctx context.Context, userID string) (*record.Record, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordRepo) FindAllOpen(ctx context.Context) ([]record.Record, error) { return nil, nil }

func (s *stubRecordRepo) FindDatesByUserBetween(ctx context.Context, userID, from, to string) ([]string, error) {
	return s.dates, nil
}

func (s *stubRecordRepo) FindAllByUser(ctx context.Context, userID string) ([]record.Record, error) {
	return nil, nil
}

func (s *stubRecordRepo) FindAll(ctx context.Context) ([]record.Record, error) { return nil, nil }

func (s *stubRecordRepo) Update(ctx context.Context, rec *record.Record) error { return nil }

func (s *stubRecordRepo) Delete(ctx context.Context, id string) error { return nil }

type stubUserRepo struct {
	user    *user.User
	updated []user.User
}

func (s *stubUserRepo) WithTx(tx *sql.Tx) user.Repository { return s }

func (s *stubUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (s *stubUserRepo) FindAll(ctx context.Context) ([]user.User, error) { return nil, nil }

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	if s.user != nil && s.user.ID.String() == id {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByName(ctx context.Context, name string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, u *user.User) error {
	s.updated = append(s.updated, *u)
	return nil
}

func (s *stubUserRepo) Delete(ctx context.Context, id string) error { return nil }

type stubOutbox struct {
	events []kafka.OutboxEvent
}

func (s *stubOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return s }

func (s *stubOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (s *stubOutbox) MarkSent(ctx context.Context, id string) error { return nil }

func (s *stubOutbox) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

func newTestService(t *testing.T, records *stubRecordRepo, users *stubUserRepo, now time.Time) (*service, sqlmock.Sqlmock, redismock.ClientMock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()

	svc := &service{
		db:      db,
		records: records,
		users:   users,
		outbox:  &stubOutbox{},
		locker:  userlock.New(nil),
		cache:   storecache.New(rdb, zap.NewNop()),
		logger:  zap.NewNop(),
		now:     func() time.Time { return now },
	}
	return svc, dbMock, redisMock
}

func TestReconcileFillsRestThenAbsence(t *testing.T) {
	// Thursday March 5th: the month holds three elapsed weekdays
	// (Mon 2nd, Tue 3rd, Wed 4th), none recorded.
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	u := &user.User{ID: uuid.New(), Name: "alice", RestBalance: 2}
	records := &stubRecordRepo{byDate: map[string]*record.Record{}}
	users := &stubUserRepo{user: u}

	svc, dbMock, redisMock := newTestService(t, records, users, now)
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()
	redisMock.ExpectDel(storecache.RecordsKey, storecache.UsersKey).SetVal(2)

	res, err := svc.Reconcile(context.Background(), u.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, 2, res.RestFilled)
	assert.Equal(t, 1, res.AbsenceFilled)
	assert.Equal(t, 0, res.FinalRestBalance)
	assert.Equal(t, []string{"2026-03-02", "2026-03-03", "2026-03-04"}, res.FilledDates)

	assert.Len(t, records.created, 3)
	assert.Equal(t, record.StatusRest, records.created[0].Status)
	assert.Equal(t, record.StatusRest, records.created[1].Status)
	assert.Equal(t, record.StatusAbsence, records.created[2].Status)
	assert.Equal(t, 1000, records.created[2].Fine)
	assert.Equal(t, "auto-backfill", records.created[0].Note)

	assert.Len(t, users.updated, 1)
	assert.Equal(t, 0, users.updated[0].RestBalance)
}

func TestReconcileSkipsRecordedDates(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	u := &user.User{ID: uuid.New(), Name: "alice", RestBalance: 2}
	records := &stubRecordRepo{
		dates:  []string{"2026-03-02", "2026-03-03"},
		byDate: map[string]*record.Record{},
	}
	users := &stubUserRepo{user: u}

	svc, dbMock, redisMock := newTestService(t, records, users, now)
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()
	redisMock.ExpectDel(storecache.RecordsKey, storecache.UsersKey).SetVal(2)

	res, err := svc.Reconcile(context.Background(), u.ID.String())

	assert.NoError(t, err)
	assert.Equal(t, 1, res.RestFilled)
	assert.Equal(t, 0, res.AbsenceFilled)
	assert.Equal(t, []string{"2026-03-04"}, res.FilledDates)
	assert.Equal(t, 1, res.FinalRestBalance)
}

func TestReconcileRecheckGuardsAgainstConcurrentFill(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	u := &user.User{ID: uuid.New(), Name: "alice", RestBalance: 2}
	// The range scan missed this date but the point lookup finds it.
	records := &stubRecordRepo{
		byDate: map[string]*record.Record{
			"2026-03-02": {ID: uuid.New()},
			"2026-03-03": {ID: uuid.New()},
			"2026-03-04": {ID: uuid.New()},
		},
	}
	users := &stubUserRepo{user: u}

	svc, dbMock, _ := newTestService(t, records, users, now)
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	res, err := svc.Reconcile(context.Background(), u.ID.String())

	assert.NoError(t, err)
	assert.Empty(t, res.FilledDates)
	assert.Empty(t, records.created)
	assert.Empty(t, users.updated)
	assert.Equal(t, 2, res.FinalRestBalance)
}

func TestReconcileNothingToDoOnFirstOfMonth(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	u := &user.User{ID: uuid.New(), Name: "alice", RestBalance: 2}

	svc, dbMock, _ := newTestService(t, &stubRecordRepo{byDate: map[string]*record.Record{}}, &stubUserRepo{user: u}, now)

	res, err := svc.Reconcile(context.Background(), u.ID.String())

	assert.NoError(t, err)
	assert.Empty(t, res.FilledDates)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
