package model

import "github.com/shopspring/decimal"

// RoomTable is a bookable table inside a room.  Rows are reference data
// keyed by (room_type, table_number) and are never created by the API.
type RoomTable struct {
	RoomType     string          `json:"room_type"`
	TableNumber  string          `json:"table_number"`
	Capacity     int             `json:"capacity"`
	Description  string          `json:"description"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	IsAvailable  bool            `json:"is_available"`
}

var roomNames = map[string]string{
	"coding-zone":  "Coding Zone",
	"meeting-room": "Meeting Room",
	"quiet-corner": "Quiet Corner",
	"open-space":   "Open Space",
}

var roomDescriptions = map[string]string{
	"coding-zone":  "Dedicated coding area with a full programming setup",
	"meeting-room": "Meeting room for team discussions with presentation equipment",
	"quiet-corner": "Quiet area for deep, focused work",
	"open-space":   "Open area for networking and collaborative work",
}

// RoomName returns the display name for a room type, or the type itself.
func RoomName(roomType string) string {
	if n, ok := roomNames[roomType]; ok {
		return n
	}
	return roomType
}

// RoomDescription returns the marketing description of a room type.
func RoomDescription(roomType string) string { return roomDescriptions[roomType] }

var reservationStatusNames = map[string]string{
	ReservationPending:   "Awaiting confirmation",
	ReservationConfirmed: "Confirmed",
	ReservationCompleted: "Completed",
	ReservationCancelled: "Cancelled",
	ReservationNoShow:    "No show",
}

// ReservationStatusName returns the display label for a reservation status.
func ReservationStatusName(status string) string { return reservationStatusNames[status] }
