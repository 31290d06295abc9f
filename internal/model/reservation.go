package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses.  Only pending and confirmed reservations can be
// rescheduled; completed and cancelled reservations can no longer be
// cancelled.  Cancelled and no-show rows never block a table.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCompleted = "completed"
	ReservationCancelled = "cancelled"
	ReservationNoShow    = "no-show"
)

// History actions written to reservation_history.  Status updates use the
// target status itself as the action.
const (
	HistoryCreated     = "created"
	HistoryRescheduled = "rescheduled"
	HistoryCancelled   = "cancelled"
)

// DateLayout and TimeLayout are the wire formats for reservation_date and
// reservation_time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// IsKnownReservationStatus reports whether s is one of the reservation statuses.
func IsKnownReservationStatus(s string) bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}

// CanReschedule reports whether a reservation in status s may move to a new slot.
func CanReschedule(s string) bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// CanCancel reports whether a reservation in status s may be cancelled.
func CanCancel(s string) bool {
	return s != ReservationCompleted && s != ReservationCancelled
}

// Slot is a booking window on one table: a calendar date, a wall-clock
// start time and a whole number of hours.  The window is half-open,
// [Start, End).
type Slot struct {
	Date          string // YYYY-MM-DD
	Time          string // HH:MM, seconds are accepted and dropped
	DurationHours int
}

// ParseSlot validates date and time strings and returns a normalized Slot.
func ParseSlot(date, clock string, hours int) (Slot, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return Slot{}, fmt.Errorf("invalid date %q", date)
	}
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		t, err = time.Parse("15:04:05", clock)
		if err != nil {
			return Slot{}, fmt.Errorf("invalid time %q", clock)
		}
	}
	if hours <= 0 {
		return Slot{}, fmt.Errorf("invalid duration %d", hours)
	}
	return Slot{Date: date, Time: t.Format(TimeLayout), DurationHours: hours}, nil
}

// Start returns the start instant of the slot in loc.
func (s Slot) Start(loc *time.Location) time.Time {
	t, _ := time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.Time, loc)
	return t
}

// End returns the exclusive end instant of the slot in loc.
func (s Slot) End(loc *time.Location) time.Time {
	return s.Start(loc).Add(time.Duration(s.DurationHours) * time.Hour)
}

// EndClock returns the end time as HH:MM.  Windows crossing midnight wrap.
func (s Slot) EndClock() string {
	return s.End(time.UTC).Format(TimeLayout)
}

// Reservation is a booked window on a room table.
//
// Fields:
//  ID                – primary key.
//  ReservationNumber – human readable code, RES-<id>-<suffix>.
//  UserID            – owner account, nil for guest bookings.
//  PricePerHour      – table rate at booking/reschedule time.
//  TotalPrice        – PricePerHour × DurationHours.
type Reservation struct {
	ID                uint64          `json:"id"`
	ReservationNumber string          `json:"reservation_number"`
	UserID            *uint64         `json:"user_id,omitempty"`
	CustomerName      string          `json:"customer_name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	ReservationDate   string          `json:"reservation_date"`
	ReservationTime   string          `json:"reservation_time"`
	DurationHours     int             `json:"duration_hours"`
	RoomType          string          `json:"room_type"`
	TableNumber       string          `json:"table_number"`
	GuestCount        int             `json:"guest_count"`
	SpecialRequest    string          `json:"special_request,omitempty"`
	PricePerHour      decimal.Decimal `json:"price_per_hour"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            string          `json:"status"`
	TableDescription  string          `json:"table_description,omitempty"`
	TableCapacity     int             `json:"table_capacity,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Slot returns the reservation's current booking window.
func (r Reservation) Slot() Slot {
	return Slot{Date: r.ReservationDate, Time: r.ReservationTime, DurationHours: r.DurationHours}
}

// ReservationHistory is one append-only lifecycle entry.  Old/new date and
// time are only populated by the actions that move the slot.
type ReservationHistory struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservation_id"`
	Action        string    `json:"action"`
	OldDate       *string   `json:"old_date,omitempty"`
	OldTime       *string   `json:"old_time,omitempty"`
	NewDate       *string   `json:"new_date,omitempty"`
	NewTime       *string   `json:"new_time,omitempty"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}
