package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ALVINfrs/caffeine/internal/model"
)

// ReservationRepo provides access to room tables, reservations and the
// reservation_history log.  Writes come in ...Tx variants so the lifecycle
// service can compose them in one transaction.  Dates are stored as DATE
// and TIME columns in the business time zone and read back as
// YYYY-MM-DD / HH:MM strings.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const dbDateTime = "2006-01-02 15:04:05"

// ListAvailableTables returns every bookable table ordered by room and number.
func (r *ReservationRepo) ListAvailableTables(ctx context.Context) ([]model.RoomTable, error) {
	const q = `SELECT room_type, table_number, capacity, description, price_per_hour, is_available
               FROM room_tables
               WHERE is_available = 1
               ORDER BY room_type, table_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.RoomTable, 0)
	for rows.Next() {
		var t model.RoomTable
		if err := rows.Scan(&t.RoomType, &t.TableNumber, &t.Capacity, &t.Description, &t.PricePerHour, &t.IsAvailable); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// TablePrice returns the hourly rate of a table.  ErrNotFound when the
// table does not exist.
func (r *ReservationRepo) TablePrice(ctx context.Context, roomType, tableNumber string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT price_per_hour FROM room_tables WHERE room_type = ? AND table_number = ?`,
		roomType, tableNumber).Scan(&price)
	return price, translate(err)
}

// LockTableTx reads a table row with SELECT ... FOR UPDATE.  Every booking
// write for the same table takes this lock first, so the availability
// check and the insert that follows it cannot interleave with another
// booking of that table.
func (r *ReservationRepo) LockTableTx(ctx context.Context, tx *sql.Tx, roomType, tableNumber string) (model.RoomTable, error) {
	const q = `SELECT room_type, table_number, capacity, description, price_per_hour, is_available
               FROM room_tables
               WHERE room_type = ? AND table_number = ?
               FOR UPDATE`
	var t model.RoomTable
	err := tx.QueryRowContext(ctx, q, roomType, tableNumber).Scan(
		&t.RoomType, &t.TableNumber, &t.Capacity, &t.Description, &t.PricePerHour, &t.IsAvailable)
	return t, translate(err)
}

// CountConflicts counts live reservations on the table whose window
// overlaps slot, using the pool.
func (r *ReservationRepo) CountConflicts(ctx context.Context, roomType, tableNumber string, slot model.Slot, excludeID uint64) (int, error) {
	return countConflicts(ctx, r.db, roomType, tableNumber, slot, excludeID)
}

// CountConflictsTx is CountConflicts inside a transaction.
func (r *ReservationRepo) CountConflictsTx(ctx context.Context, tx *sql.Tx, roomType, tableNumber string, slot model.Slot, excludeID uint64) (int, error) {
	return countConflicts(ctx, tx, roomType, tableNumber, slot, excludeID)
}

// countConflicts applies the half-open overlap test
// existing.start < candidate.end AND candidate.start < existing.end.
// Rows from the previous day are included so a window running past
// midnight still blocks the next morning.  Cancelled and no-show rows
// never conflict.  A non-zero excludeID skips that reservation.
func countConflicts(ctx context.Context, q querier, roomType, tableNumber string, slot model.Slot, excludeID uint64) (int, error) {
	start := slot.Start(time.UTC)
	end := slot.End(time.UTC)
	query := `SELECT COUNT(*)
              FROM reservations
              WHERE room_type = ?
                AND table_number = ?
                AND reservation_date BETWEEN DATE_SUB(?, INTERVAL 1 DAY) AND ?
                AND status NOT IN ('cancelled', 'no-show')
                AND TIMESTAMP(reservation_date, reservation_time) < ?
                AND TIMESTAMP(reservation_date, reservation_time) + INTERVAL duration_hours HOUR > ?`
	args := []any{roomType, tableNumber, slot.Date, end.Format(model.DateLayout), end.Format(dbDateTime), start.Format(dbDateTime)}
	if excludeID != 0 {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateTx inserts a reservation and populates its ID.  The reservation
// number is assigned afterwards with SetNumberTx because it embeds the ID.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
               (user_id, customer_name, email, phone, reservation_date, reservation_time,
                duration_hours, room_type, table_number, guest_count, special_request,
                price_per_hour, total_price, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		nullUint(res.UserID), res.CustomerName, res.Email, res.Phone, res.ReservationDate, res.ReservationTime,
		res.DurationHours, res.RoomType, res.TableNumber, res.GuestCount, res.SpecialRequest,
		res.PricePerHour, res.TotalPrice, res.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// SetNumberTx stores the generated reservation number.
func (r *ReservationRepo) SetNumberTx(ctx context.Context, tx *sql.Tx, id uint64, number string) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET reservation_number = ? WHERE id = ?`, number, id)
	return err
}

// reservationColumns is the SELECT list shared by every reservation read.
// It must stay in sync with scanReservation.
const reservationColumns = `r.id, COALESCE(r.reservation_number, ''), r.user_id, r.customer_name, r.email, r.phone,
       DATE_FORMAT(r.reservation_date, '%Y-%m-%d'), TIME_FORMAT(r.reservation_time, '%H:%i'),
       r.duration_hours, r.room_type, r.table_number, r.guest_count, COALESCE(r.special_request, ''),
       r.price_per_hour, r.total_price, r.status, COALESCE(rt.description, ''), COALESCE(rt.capacity, 0),
       r.created_at, r.updated_at`

const reservationFrom = ` FROM reservations r
       LEFT JOIN room_tables rt ON r.room_type = rt.room_type AND r.table_number = rt.table_number`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var userID sql.NullInt64
	if err := s.Scan(
		&res.ID, &res.ReservationNumber, &userID, &res.CustomerName, &res.Email, &res.Phone,
		&res.ReservationDate, &res.ReservationTime,
		&res.DurationHours, &res.RoomType, &res.TableNumber, &res.GuestCount, &res.SpecialRequest,
		&res.PricePerHour, &res.TotalPrice, &res.Status, &res.TableDescription, &res.TableCapacity,
		&res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	res.UserID = uintPtr(userID)
	return &res, nil
}

// GetForUpdateTx loads a reservation and locks its row for the rest of the
// transaction.  ErrNotFound when absent.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+reservationFrom+` WHERE r.id = ? FOR UPDATE`, id)
	res, err := scanReservation(row)
	return res, translate(err)
}

// GetByID returns one reservation.  ErrNotFound when absent.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+reservationFrom+` WHERE r.id = ?`, id))
	return res, translate(err)
}

// GetByNumber returns the reservation with the given number.
func (r *ReservationRepo) GetByNumber(ctx context.Context, number string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+reservationFrom+` WHERE r.reservation_number = ?`, number))
	return res, translate(err)
}

// ListByUser returns a user's reservations, latest slot first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.list(ctx, ` WHERE r.user_id = ? ORDER BY r.reservation_date DESC, r.reservation_time DESC`, userID)
}

// ListAll returns every reservation for the admin dashboard.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx, ` ORDER BY r.reservation_date DESC, r.reservation_time DESC`)
}

func (r *ReservationRepo) list(ctx context.Context, tail string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+reservationFrom+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// UpdateSlotTx moves a reservation to a new window and price.
func (r *ReservationRepo) UpdateSlotTx(ctx context.Context, tx *sql.Tx, id uint64, slot model.Slot, pricePerHour, total decimal.Decimal) error {
	const q = `UPDATE reservations
               SET reservation_date = ?, reservation_time = ?, duration_hours = ?,
                   price_per_hour = ?, total_price = ?, updated_at = NOW()
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, slot.Date, slot.Time, slot.DurationHours, pricePerHour, total, id)
	return err
}

// UpdateStatusTx sets the reservation status.  ErrNotFound when no
// reservation has that id.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// zero also means "matched but unchanged" on MySQL
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// AddHistoryTx appends a lifecycle entry.  History rows are never updated.
func (r *ReservationRepo) AddHistoryTx(ctx context.Context, tx *sql.Tx, h model.ReservationHistory) error {
	const q = `INSERT INTO reservation_history
               (reservation_id, action, old_date, old_time, new_date, new_time, notes)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, h.ReservationID, h.Action,
		nullStr(h.OldDate), nullStr(h.OldTime), nullStr(h.NewDate), nullStr(h.NewTime), h.Notes)
	return err
}

// History returns a reservation's lifecycle entries, newest first.
func (r *ReservationRepo) History(ctx context.Context, reservationID uint64) ([]model.ReservationHistory, error) {
	const q = `SELECT id, reservation_id, action,
                      DATE_FORMAT(old_date, '%Y-%m-%d'), TIME_FORMAT(old_time, '%H:%i'),
                      DATE_FORMAT(new_date, '%Y-%m-%d'), TIME_FORMAT(new_time, '%H:%i'),
                      notes, created_at
               FROM reservation_history
               WHERE reservation_id = ?
               ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationHistory, 0)
	for rows.Next() {
		var h model.ReservationHistory
		var oldDate, oldTime, newDate, newTime sql.NullString
		if err := rows.Scan(&h.ID, &h.ReservationID, &h.Action, &oldDate, &oldTime, &newDate, &newTime, &h.Notes, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.OldDate, h.OldTime = strPtr(oldDate), strPtr(oldTime)
		h.NewDate, h.NewTime = strPtr(newDate), strPtr(newTime)
		out = append(out, h)
	}
	return out, rows.Err()
}
