// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// EventsQueue is the durable queue every domain event is published to.
const EventsQueue = "caffeine.events"

// Event types carried in Envelope.Type.
const (
	TypeReservationCreated     = "reservation.created"
	TypeReservationRescheduled = "reservation.rescheduled"
	TypeReservationCancelled   = "reservation.cancelled"
	TypeReservationStatus      = "reservation.status_updated"
	TypeOrderCreated           = "order.created"
	TypeOrderPaymentUpdated    = "order.payment_updated"
)

// Envelope wraps one event.  Exactly one of Reservation or Order is set,
// matching the Type prefix.
type Envelope struct {
	Type        string            `json:"type"`
	OccurredAt  string            `json:"occurred_at"`
	Reservation *ReservationEvent `json:"reservation,omitempty"`
	Order       *OrderEvent       `json:"order,omitempty"`
}

// ReservationEvent carries enough of a reservation for downstream
// consumers to log or notify without querying the primary database.
type ReservationEvent struct {
	ReservationID     uint64  `json:"reservation_id"`
	ReservationNumber string  `json:"reservation_number"`
	UserID            *uint64 `json:"user_id,omitempty"`
	Email             string  `json:"email"`
	RoomType          string  `json:"room_type"`
	TableNumber       string  `json:"table_number"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	DurationHours     int     `json:"duration_hours"`
	TotalPrice        string  `json:"total_price"`
	Status            string  `json:"status"`
	Notes             string  `json:"notes,omitempty"`
}

// OrderEvent summarises an order at creation or payment update.
type OrderEvent struct {
	OrderID       uint64  `json:"order_id"`
	OrderNumber   string  `json:"order_number"`
	UserID        *uint64 `json:"user_id,omitempty"`
	Email         string  `json:"email"`
	Total         string  `json:"total"`
	Status        string  `json:"status"`
	PaymentType   string  `json:"payment_type,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	VoucherCode   string  `json:"voucher_code,omitempty"`
}
