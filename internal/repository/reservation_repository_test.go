package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ALVINfrs/caffeine/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCountConflicts_HalfOpenWindowArgs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	slot, err := model.ParseSlot("2025-01-10", "11:00", 1)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM reservations`).
		WithArgs("coding-zone", "A1", "2025-01-10", "2025-01-10", "2025-01-10 12:00:00", "2025-01-10 11:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountConflicts(context.Background(), "coding-zone", "A1", slot, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountConflicts_ExcludesOwnRowAndCrossesMidnight(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	slot, err := model.ParseSlot("2025-01-10", "23:00", 2)
	require.NoError(t, err)

	mock.ExpectQuery(`AND id <> \?`).
		WithArgs("meeting-room", "M1", "2025-01-10", "2025-01-11", "2025-01-11 01:00:00", "2025-01-10 23:00:00", uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n, err := repo.CountConflicts(context.Background(), "meeting-room", "M1", slot, 7)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockTableTx_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_tables\s+WHERE room_type = \? AND table_number = \?\s+FOR UPDATE`).
		WithArgs("coding-zone", "Z9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = repo.LockTableTx(context.Background(), tx, "coding-zone", "Z9")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTx_SetsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	res := &model.Reservation{
		CustomerName: "Budi", Email: "budi@example.com", Phone: "0812",
		ReservationDate: "2025-01-10", ReservationTime: "10:00", DurationHours: 2,
		RoomType: "coding-zone", TableNumber: "A1", GuestCount: 1,
		PricePerHour: decimal.NewFromInt(20000), TotalPrice: decimal.NewFromInt(40000),
		Status: model.ReservationConfirmed,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(nil, "Budi", "budi@example.com", "0812", "2025-01-10", "10:00", 2, "coding-zone", "A1", 1, "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "confirmed").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.CreateTx(context.Background(), tx, res))
	require.NoError(t, tx.Commit())
	assert.Equal(t, uint64(42), res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func reservationRow() []string {
	return []string{"id", "reservation_number", "user_id", "customer_name", "email", "phone",
		"reservation_date", "reservation_time", "duration_hours", "room_type", "table_number",
		"guest_count", "special_request", "price_per_hour", "total_price", "status",
		"description", "capacity", "created_at", "updated_at"}
}

func TestGetByNumber_ScansJoinedRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)
	now := time.Now()

	mock.ExpectQuery(`WHERE r.reservation_number = \?`).
		WithArgs("RES-42-123456").
		WillReturnRows(sqlmock.NewRows(reservationRow()).AddRow(
			42, "RES-42-123456", 5, "Budi", "budi@example.com", "0812",
			"2025-01-10", "10:00", 2, "coding-zone", "A1",
			1, "", "20000.00", "40000.00", "confirmed",
			"Window seat", 2, now, now))

	res, err := repo.GetByNumber(context.Background(), "RES-42-123456")
	require.NoError(t, err)
	require.NotNil(t, res.UserID)
	assert.Equal(t, uint64(5), *res.UserID)
	assert.True(t, res.TotalPrice.Equal(decimal.NewFromInt(40000)))
	assert.Equal(t, "Window seat", res.TableDescription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(`WHERE r.id = \?`).WithArgs(uint64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusTx_NoRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations SET status = \?`).
		WithArgs("completed", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM reservations WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.UpdateStatusTx(context.Background(), tx, 3, "completed")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusTx_UnchangedRowIsNotMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations SET status = \?`).
		WithArgs("confirmed", uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM reservations WHERE id = \?`).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatusTx(context.Background(), tx, 8, "confirmed"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_NullableSlots(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)
	now := time.Now()

	mock.ExpectQuery(`FROM reservation_history`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reservation_id", "action", "old_date", "old_time", "new_date", "new_time", "notes", "created_at"}).
			AddRow(2, 42, "rescheduled", "2025-01-10", "10:00", "2025-01-11", "13:00", "moved", now).
			AddRow(1, 42, "created", nil, nil, nil, nil, "created", now))

	hist, err := repo.History(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.NotNil(t, hist[0].NewTime)
	assert.Equal(t, "13:00", *hist[0].NewTime)
	assert.Nil(t, hist[1].OldDate)
}
