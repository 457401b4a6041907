package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	balanceerrors "github.com/murabitopit/attendance-app/internal/balance/errors"
	"github.com/murabitopit/attendance-app/internal/events"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	recorderrors "github.com/murabitopit/attendance-app/internal/record/errors"
	"github.com/murabitopit/attendance-app/internal/shared/contextutil"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/user"
)

type stubRecordRepo struct {
	existing   map[string]*Record // userID|date
	latestOpen *Record
	byID       map[string]*Record
	all        []Record
	created    []Record
	updated    []Record
	deleted    []string
}

func (s *stubRecordRepo) WithTx(tx *sql.Tx) Repository { return s }

func (s *stubRecordRepo) Create(ctx context.Context, rec *Record) error {
	s.created = append(s.created, *rec)
	return nil
}

func (s *stubRecordRepo) FindByID(ctx context.Context, id string) (*Record, error) {
	if rec, ok := s.byID[id]; ok {
		return rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordRepo) FindByUserAndDate(ctx context.Context, userID, date string) (*Record, error) {
	if rec, ok := s.existing[userID+"|"+date]; ok {
		return rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordRepo) FindLatestOpenByUser(ctx context.Context, userID string) (*Record, error) {
	if s.latestOpen != nil {
		return s.latestOpen, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordRepo) FindAllOpen(ctx context.Context) ([]Record, error) { return nil, nil }

func (s *stubRecordRepo) FindDatesByUserBetween(ctx context.Context, userID, from, to string) ([]string, error) {
	return nil, nil
}

func (s *stubRecordRepo) FindAllByUser(ctx context.Context, userID string) ([]Record, error) {
	return s.all, nil
}

func (s *stubRecordRepo) FindAll(ctx context.Context) ([]Record, error) { return s.all, nil }

func (s *stubRecordRepo) Update(ctx context.Context, rec *Record) error {
	s.updated = append(s.updated, *rec)
	return nil
}

func (s *stubRecordRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubUserRepo struct {
	users   map[string]*user.User
	all     []user.User
	updated []user.User
}

func (s *stubUserRepo) WithTx(tx *sql.Tx) user.Repository { return s }

func (s *stubUserRepo) Create(ctx context.Context, u *user.User) error { return nil }

func (s *stubUserRepo) FindAll(ctx context.Context) ([]user.User, error) { return s.all, nil }

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
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

type recordFixture struct {
	svc       *service
	records   *stubRecordRepo
	users     *stubUserRepo
	outbox    *stubOutbox
	dbMock    sqlmock.Sqlmock
	redisMock redismock.ClientMock
}

func newRecordFixture(t *testing.T, now time.Time) *recordFixture {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()

	records := &stubRecordRepo{existing: map[string]*Record{}, byID: map[string]*Record{}}
	users := &stubUserRepo{users: map[string]*user.User{}}
	outbox := &stubOutbox{}

	svc := &service{
		db:      db,
		records: records,
		users:   users,
		outbox:  outbox,
		locker:  userlock.New(nil),
		cache:   storecache.New(rdb, zap.NewNop()),
		logger:  zap.NewNop(),
		now:     func() time.Time { return now },
	}
	return &recordFixture{svc: svc, records: records, users: users, outbox: outbox, dbMock: dbMock, redisMock: redisMock}
}

func (f *recordFixture) addUser(u *user.User) {
	f.users.users[u.ID.String()] = u
}

func (f *recordFixture) expectWrite() {
	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()
	f.redisMock.ExpectDel(storecache.RecordsKey, storecache.UsersKey).SetVal(2)
}

func TestClockInOnTime(t *testing.T) {
	// Tuesday 08:30.
	f := newRecordFixture(t, time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice"})
	f.expectWrite()

	res, err := f.svc.ClockIn(context.Background(), uid.String(), ClockInRequest{})

	assert.NoError(t, err)
	assert.Equal(t, "NORMAL", res.Status)
	assert.Equal(t, 0, res.Fine)
	assert.Equal(t, "2026-03-03", res.RecordDate)
	assert.Equal(t, "08:30:00", res.ClockIn)
	assert.Len(t, f.outbox.events, 1)
	assert.Equal(t, events.RecordCreated, f.outbox.events[0].EventType)
}

func TestClockInLateHour(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 9, 5, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice"})
	f.expectWrite()

	res, err := f.svc.ClockIn(context.Background(), uid.String(), ClockInRequest{})

	assert.NoError(t, err)
	assert.Equal(t, "LATE", res.Status)
	assert.Equal(t, 500, res.Fine)
}

func TestClockInWeekendIsHolidayWork(t *testing.T) {
	// Saturday.
	f := newRecordFixture(t, time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice"})
	f.expectWrite()

	res, err := f.svc.ClockIn(context.Background(), uid.String(), ClockInRequest{})

	assert.NoError(t, err)
	assert.Equal(t, StatusHolidayWork, res.Status)
	assert.Equal(t, 0, res.Fine)
	assert.Equal(t, "holiday-work", res.Note)
}

func TestClockInDuplicate(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice"})
	f.records.existing[uid.String()+"|2026-03-03"] = &Record{ID: uuid.New()}

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectRollback()

	_, err := f.svc.ClockIn(context.Background(), uid.String(), ClockInRequest{})

	assert.ErrorIs(t, err, recorderrors.ErrDuplicateRecord)
	assert.Empty(t, f.records.created)
}

func TestClockOutEarlyCombinesFine(t *testing.T) {
	// 12:30 is 2.5h before work end, billed as 3 hours.
	f := newRecordFixture(t, time.Date(2026, 3, 3, 12, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.records.latestOpen = &Record{
		ID: uuid.New(), UserID: uid, RecordDate: "2026-03-03",
		ClockIn: "09:05:00", Status: "LATE", Fine: 500, Note: "",
	}
	f.expectWrite()

	res, err := f.svc.ClockOut(context.Background(), uid.String(), ClockOutRequest{Note: "left early"})

	assert.NoError(t, err)
	assert.Equal(t, StatusCheckedOut+EarlyLeaveSuffix, res.Status)
	assert.Equal(t, 800, res.Fine)
	assert.Equal(t, "12:30:00", res.ClockOut)
	assert.Equal(t, "left early", res.Note)
	assert.Len(t, f.records.updated, 1)
	assert.Len(t, f.outbox.events, 1)
	assert.Equal(t, events.RecordClosed, f.outbox.events[0].EventType)
}

func TestClockOutFineIsClamped(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 12, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.records.latestOpen = &Record{
		ID: uuid.New(), UserID: uid, RecordDate: "2026-03-03",
		Status: "LATE", Fine: 900,
	}
	f.expectWrite()

	res, err := f.svc.ClockOut(context.Background(), uid.String(), ClockOutRequest{})

	assert.NoError(t, err)
	assert.Equal(t, 1000, res.Fine)
}

func TestClockOutStaleRecordSkipsEarlyFine(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 12, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.records.latestOpen = &Record{
		ID: uuid.New(), UserID: uid, RecordDate: "2026-03-02",
		Status: "NORMAL", Fine: 0,
	}
	f.expectWrite()

	res, err := f.svc.ClockOut(context.Background(), uid.String(), ClockOutRequest{})

	assert.NoError(t, err)
	assert.Equal(t, StatusCheckedOut, res.Status)
	assert.Equal(t, 0, res.Fine)
}

func TestClockOutHolidayWorkSkipsEarlyFine(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 12, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.records.latestOpen = &Record{
		ID: uuid.New(), UserID: uid, RecordDate: "2026-03-03",
		Status: StatusHolidayWork, Fine: 0,
	}
	f.expectWrite()

	res, err := f.svc.ClockOut(context.Background(), uid.String(), ClockOutRequest{})

	assert.NoError(t, err)
	assert.Equal(t, StatusCheckedOut, res.Status)
	assert.Equal(t, 0, res.Fine)
}

func TestClockOutWithoutOpenRecord(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 12, 30, 0, 0, time.UTC))
	f.dbMock.ExpectBegin()
	f.dbMock.ExpectRollback()

	_, err := f.svc.ClockOut(context.Background(), uuid.NewString(), ClockOutRequest{})

	assert.ErrorIs(t, err, recorderrors.ErrNoOpenRecord)
}

func TestApplyPaidLeaveBeforeDeadline(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 7, 59, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice", PaidLeaveBalance: 2})

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectCommit()
	f.redisMock.ExpectDel(storecache.RecordsKey, storecache.UsersKey).SetVal(2)

	res, err := f.svc.ApplyLeave(context.Background(), uid.String(), ApplyLeaveRequest{LeaveType: LeaveTypePaid})

	assert.NoError(t, err)
	assert.Equal(t, StatusPaidLeave, res.Status)
	assert.Equal(t, NoClock, res.ClockIn)
	assert.Equal(t, NoClock, res.ClockOut)
	assert.Equal(t, "applied-use", res.Note)
	assert.Len(t, f.users.updated, 1)
	assert.Equal(t, 1, f.users.updated[0].PaidLeaveBalance)
}

func TestApplyPaidLeaveAfterDeadline(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 8, 1, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice", PaidLeaveBalance: 2})

	_, err := f.svc.ApplyLeave(context.Background(), uid.String(), ApplyLeaveRequest{LeaveType: LeaveTypePaid})

	assert.ErrorIs(t, err, recorderrors.ErrDeadlinePassed)
}

func TestApplyLeavePastDate(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice", PaidLeaveBalance: 2})

	_, err := f.svc.ApplyLeave(context.Background(), uid.String(), ApplyLeaveRequest{
		LeaveType: LeaveTypePaid,
		Date:      "2026-03-02",
	})

	assert.ErrorIs(t, err, recorderrors.ErrPastDate)
}

func TestApplyRestLeaveExhausted(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice", RestBalance: 0})

	f.dbMock.ExpectBegin()
	f.dbMock.ExpectRollback()

	_, err := f.svc.ApplyLeave(context.Background(), uid.String(), ApplyLeaveRequest{LeaveType: LeaveTypeRest})

	assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	assert.Empty(t, f.records.created)
}

func TestRegisterAbsence(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice"})
	f.expectWrite()

	res, err := f.svc.RegisterAbsence(context.Background(), uid.String())

	assert.NoError(t, err)
	assert.Equal(t, StatusAbsence, res.Status)
	assert.Equal(t, 1000, res.Fine)
	assert.Equal(t, "manual-absence", res.Note)
}

func TestAdminEditClampsFine(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	rec := &Record{ID: uuid.New(), UserID: uuid.New(), RecordDate: "2026-03-03", Status: "LATE", Fine: 500}
	f.records.byID[rec.ID.String()] = rec
	f.expectWrite()

	over := 5000
	res, err := f.svc.AdminEdit(context.Background(), rec.ID.String(), AdminEditRequest{
		ClockIn:  "09:00:00",
		ClockOut: "15:00:00",
		Status:   StatusSpecialAbsence,
		Fine:     &over,
		Note:     "corrected",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1000, res.Fine)
	assert.Equal(t, StatusSpecialAbsence, res.Status)
	assert.Equal(t, "corrected", res.Note)
}

func TestAdminEditUnknownRecord(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	f.dbMock.ExpectBegin()
	f.dbMock.ExpectRollback()

	zero := 0
	_, err := f.svc.AdminEdit(context.Background(), uuid.NewString(), AdminEditRequest{Status: "NORMAL", Fine: &zero})

	assert.ErrorIs(t, err, recorderrors.ErrRecordNotFound)
}

func TestGetFineSummaryPivot(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC))
	alice := user.User{ID: uuid.New(), Name: "alice", InitialFine: 200}
	bob := user.User{ID: uuid.New(), Name: "bob"}
	f.users.all = []user.User{alice, bob}
	f.records.all = []Record{
		{ID: uuid.New(), UserID: alice.ID, RecordDate: "2026-03-03", Fine: 500},
		{ID: uuid.New(), UserID: alice.ID, RecordDate: "2026-03-10", Fine: 300},
		{ID: uuid.New(), UserID: alice.ID, RecordDate: "2026-03-11", Fine: 0},
		{ID: uuid.New(), UserID: bob.ID, RecordDate: "2026-03-03", Fine: 1000},
	}

	rows, err := f.svc.GetFineSummary(context.Background())

	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, "alice", rows[0].Name)
	assert.Equal(t, 200, rows[0].InitialFine)
	assert.Equal(t, 500, rows[0].Weeks["3.1"])
	assert.Equal(t, 300, rows[0].Weeks["3.2"])
	assert.Equal(t, 1000, rows[0].Total)

	assert.Equal(t, "bob", rows[1].Name)
	assert.Equal(t, 1000, rows[1].Total)
}

func TestClockInCarriesRequestIDIntoEvent(t *testing.T) {
	f := newRecordFixture(t, time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC))
	uid := uuid.New()
	f.addUser(&user.User{ID: uid, Name: "alice"})
	f.expectWrite()

	ctx := contextutil.WithRequestID(context.Background(), "req-42")
	_, err := f.svc.ClockIn(ctx, uid.String(), ClockInRequest{})

	assert.NoError(t, err)
	assert.Len(t, f.outbox.events, 1)

	var ev events.RecordEvent
	assert.NoError(t, json.Unmarshal(f.outbox.events[0].Payload, &ev))
	assert.Equal(t, "req-42", ev.RequestID)
}
