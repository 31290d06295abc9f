package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/repository"
)

func newReservationService(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewReservationService(repository.NewReservationRepo(db), time.UTC, NopPublisher{}, zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func bookingInput(clock string, hours int) CreateReservationInput {
	return CreateReservationInput{
		CustomerName:    "Budi",
		Email:           "Budi@Example.com",
		Phone:           "0812",
		ReservationDate: "2025-01-10",
		ReservationTime: clock,
		DurationHours:   hours,
		RoomType:        "coding-zone",
		TableNumber:     "A1",
	}
}

func TestCreate_PricesAndRecordsHistory(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_tables.*FOR UPDATE`).WithArgs("coding-zone", "A1").WillReturnRows(tableRow("20000"))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM reservations`).
		WithArgs("coding-zone", "A1", "2025-01-10", "2025-01-10", "2025-01-10 12:00:00", "2025-01-10 10:00:00").
		WillReturnRows(countRow(0))
	mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE reservations SET reservation_number`).
		WithArgs("RES-1-600000", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_history`).
		WithArgs(uint64(1), "created", nil, nil, "2025-01-10", "10:00", "reservation created").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := svc.Create(context.Background(), model.Guest(""), bookingInput("10:00", 2))
	require.NoError(t, err)
	assert.Equal(t, "RES-1-600000", res.ReservationNumber)
	assert.True(t, res.TotalPrice.Equal(decimal.NewFromInt(40000)), res.TotalPrice.String())
	assert.Equal(t, "Rp 40.000", res.FormattedPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_OverlappingSlotIsRejected(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_tables.*FOR UPDATE`).WithArgs("coding-zone", "A1").WillReturnRows(tableRow("20000"))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM reservations`).
		WithArgs("coding-zone", "A1", "2025-01-10", "2025-01-10", "2025-01-10 12:00:00", "2025-01-10 11:00:00").
		WillReturnRows(countRow(1))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), model.Guest(""), bookingInput("11:00", 1))
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "table not available for the chosen time", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newReservationService(t)
	ctx := context.Background()

	in := bookingInput("10:00", 2)
	in.Phone = ""
	_, err := svc.Create(ctx, model.Guest(""), in)
	assert.Equal(t, KindValidation, KindOf(err))

	in = bookingInput("10:00", 2)
	in.ReservationDate = "2025-01-08"
	_, err = svc.Create(ctx, model.Guest(""), in)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "already passed")

	_, err = svc.Create(ctx, model.Guest(""), bookingInput("10:00", 13))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Create(ctx, model.Guest(""), bookingInput("ten", 1))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreate_UnknownTable(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_tables.*FOR UPDATE`).WillReturnRows(sqlmock.NewRows(tableCols))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), model.Guest(""), bookingInput("10:00", 2))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, strings.HasSuffix(err.Error(), "does not exist"))
}

func TestAvailability_SecondBookingOverlaps(t *testing.T) {
	svc, mock := newReservationService(t)
	slot, err := model.ParseSlot("2025-01-10", "11:00", 1)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM reservations`).WillReturnRows(countRow(1))
	ok, err := svc.Availability().IsAvailable(context.Background(), "coding-zone", "A1", slot, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM reservations`).WillReturnRows(countRow(0))
	ok, err = svc.Availability().IsAvailable(context.Background(), "coding-zone", "A1", slot, 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReschedule_TerminalStatusesAreRejected(t *testing.T) {
	for _, status := range []string{model.ReservationCompleted, model.ReservationCancelled, model.ReservationNoShow} {
		t.Run(status, func(t *testing.T) {
			svc, mock := newReservationService(t)
			mock.ExpectBegin()
			mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).WithArgs(uint64(1)).
				WillReturnRows(reservationRows(1, nil, "2025-01-10", "10:00", 2, status))
			mock.ExpectRollback()

			err := svc.Reschedule(context.Background(), model.Guest(""), 1, RescheduleInput{NewDate: "2025-01-11", NewTime: "10:00", DurationHours: 2})
			assert.Equal(t, KindConflict, KindOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReschedule_UnavailableSlotLeavesRowUntouched(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).WithArgs(uint64(1)).
		WillReturnRows(reservationRows(1, nil, "2025-01-10", "10:00", 2, model.ReservationConfirmed))
	mock.ExpectQuery(`FROM room_tables.*FOR UPDATE`).WillReturnRows(tableRow("20000"))
	mock.ExpectQuery(`AND id <> \?`).
		WithArgs("coding-zone", "A1", "2025-01-11", "2025-01-11", "2025-01-11 15:00:00", "2025-01-11 13:00:00", uint64(1)).
		WillReturnRows(countRow(1))
	mock.ExpectRollback()

	err := svc.Reschedule(context.Background(), model.Guest(""), 1, RescheduleInput{NewDate: "2025-01-11", NewTime: "13:00"})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReschedule_RepricesAndLogsOldAndNewSlot(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).WithArgs(uint64(1)).
		WillReturnRows(reservationRows(1, nil, "2025-01-10", "10:00", 2, model.ReservationPending))
	mock.ExpectQuery(`FROM room_tables.*FOR UPDATE`).WillReturnRows(tableRow("25000"))
	mock.ExpectQuery(`AND id <> \?`).WillReturnRows(countRow(0))
	mock.ExpectExec(`UPDATE reservations\s+SET reservation_date`).
		WithArgs("2025-01-11", "13:00", 3, "25000", "75000", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_history`).
		WithArgs(uint64(1), "rescheduled", "2025-01-10", "10:00", "2025-01-11", "13:00", "reservation rescheduled").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := svc.Reschedule(context.Background(), model.Guest(""), 1, RescheduleInput{NewDate: "2025-01-11", NewTime: "13:00", DurationHours: 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReschedule_OtherAccountSeesNotFound(t *testing.T) {
	svc, mock := newReservationService(t)
	other := uint64(99)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).
		WillReturnRows(reservationRows(1, 5, "2025-01-10", "10:00", 2, model.ReservationConfirmed))
	mock.ExpectRollback()

	err := svc.Reschedule(context.Background(), model.Requester{UserID: &other, Role: model.RoleUser}, 1,
		RescheduleInput{NewDate: "2025-01-11", NewTime: "13:00"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCancel_DefaultReason(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).WithArgs(uint64(5)).
		WillReturnRows(reservationRows(5, nil, "2025-01-10", "10:00", 2, model.ReservationConfirmed))
	mock.ExpectExec(`UPDATE reservations SET status = \?`).WithArgs("cancelled", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_history`).
		WithArgs(uint64(5), "cancelled", nil, nil, nil, nil, defaultCancelReason).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Cancel(context.Background(), model.Guest(""), 5, "  "))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_CompletedIsRejected(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).
		WillReturnRows(reservationRows(5, nil, "2025-01-10", "10:00", 2, model.ReservationCompleted))
	mock.ExpectRollback()

	err := svc.Cancel(context.Background(), model.Guest(""), 5, "")
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestCancel_Missing(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE r.id = \? FOR UPDATE`).WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectRollback()

	err := svc.Cancel(context.Background(), model.Guest(""), 5, "")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateStatus(t *testing.T) {
	svc, mock := newReservationService(t)

	err := svc.UpdateStatus(context.Background(), 5, "paid", "")
	assert.Equal(t, KindValidation, KindOf(err))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations SET status = \?`).WithArgs("no-show", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reservation_history`).
		WithArgs(uint64(5), "no-show", nil, nil, nil, nil, "status changed to no-show").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.UpdateStatus(context.Background(), 5, model.ReservationNoShow, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRooms_GroupsAndAverages(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectQuery(`FROM room_tables\s+WHERE is_available = 1`).WillReturnRows(sqlmock.NewRows(tableCols).
		AddRow("coding-zone", "A1", 2, "", "20000", true).
		AddRow("coding-zone", "A2", 2, "", "30000", true).
		AddRow("meeting-room", "M1", 8, "", "100000", true))

	groups, err := svc.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Coding Zone", groups[0].Name)
	assert.True(t, groups[0].PricePerHour.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, "Rp 20.000", groups[0].Tables[0].FormattedPrice)
	assert.Len(t, groups[1].Tables, 1)
}

func TestQuote_DefaultsToTwoHours(t *testing.T) {
	svc, mock := newReservationService(t)

	mock.ExpectQuery(`SELECT price_per_hour FROM room_tables`).WithArgs("coding-zone", "A1").
		WillReturnRows(sqlmock.NewRows([]string{"price_per_hour"}).AddRow("20000"))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM reservations`).WillReturnRows(countRow(0))

	q, err := svc.Quote(context.Background(), "coding-zone", "A1", "2025-01-10", "10:00", 0)
	require.NoError(t, err)
	assert.True(t, q.Available)
	assert.True(t, q.TotalPrice.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, "Rp 40.000", q.FormattedPrice)
}
