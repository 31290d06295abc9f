package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("2025-01-10", "10:00:00", 2)
	require.NoError(t, err)
	assert.Equal(t, "10:00", s.Time)
	assert.Equal(t, "12:00", s.EndClock())

	_, err = ParseSlot("10/01/2025", "10:00", 2)
	assert.Error(t, err)
	_, err = ParseSlot("2025-01-10", "25:00", 2)
	assert.Error(t, err)
	_, err = ParseSlot("2025-01-10", "10:00", 0)
	assert.Error(t, err)
}

func TestSlotWindowCrossesMidnight(t *testing.T) {
	s := Slot{Date: "2025-01-10", Time: "23:00", DurationHours: 3}
	assert.Equal(t, time.Date(2025, 1, 11, 2, 0, 0, 0, time.UTC), s.End(time.UTC))
}

func TestStatusGuards(t *testing.T) {
	assert.True(t, CanReschedule(ReservationPending))
	assert.True(t, CanReschedule(ReservationConfirmed))
	for _, s := range []string{ReservationCompleted, ReservationCancelled, ReservationNoShow} {
		assert.False(t, CanReschedule(s), s)
	}
	assert.True(t, CanCancel(ReservationNoShow))
	assert.False(t, CanCancel(ReservationCompleted))
	assert.False(t, CanCancel(ReservationCancelled))
	assert.False(t, IsKnownReservationStatus("paid"))
}
