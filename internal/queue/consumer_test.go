package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage_AppendsLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.log")
	body, err := json.Marshal(Envelope{
		Type:       TypeReservationCreated,
		OccurredAt: "2025-01-10T03:00:00Z",
		Reservation: &ReservationEvent{
			ReservationID: 42, ReservationNumber: "RES-42-123456", Email: "budi@example.com",
			RoomType: "coding-zone", TableNumber: "A1", Date: "2025-01-10", Time: "10:00",
			DurationHours: 2, TotalPrice: "40000", Status: "confirmed",
		},
	})
	require.NoError(t, err)

	require.NoError(t, HandleMessage(body, path))
	require.NoError(t, HandleMessage(body, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reservation=RES-42-123456")
	assert.Contains(t, string(data), "slot=2025-01-10 10:00 +2h")
	assert.Equal(t, 2, countLines(data))
}

func TestHandleMessage_RejectsEmptyPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	assert.Error(t, HandleMessage([]byte(`{"type":"order.created"}`), path))
	assert.Error(t, HandleMessage([]byte(`not json`), path))
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
