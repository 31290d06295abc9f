package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ALVINfrs/caffeine/internal/payment"
)

// fixedNow is the service clock in tests: the day before the booked slots.
var fixedNow = time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var reservationCols = []string{"id", "reservation_number", "user_id", "customer_name", "email", "phone",
	"reservation_date", "reservation_time", "duration_hours", "room_type", "table_number",
	"guest_count", "special_request", "price_per_hour", "total_price", "status",
	"description", "capacity", "created_at", "updated_at"}

func reservationRows(id uint64, userID any, date, clock string, hours int, status string) *sqlmock.Rows {
	return sqlmock.NewRows(reservationCols).AddRow(
		id, "RES-1-600000", userID, "Budi", "budi@example.com", "0812",
		date, clock, hours, "coding-zone", "A1",
		1, "", "20000", "40000", status,
		"", 2, fixedNow, fixedNow)
}

var tableCols = []string{"room_type", "table_number", "capacity", "description", "price_per_hour", "is_available"}

func tableRow(price string) *sqlmock.Rows {
	return sqlmock.NewRows(tableCols).AddRow("coding-zone", "A1", 2, "Window seat", price, true)
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

// stubGateway records the last charge request and answers with canned data.
type stubGateway struct {
	mu        sync.Mutex
	charge    payment.ChargeRequest
	chargeErr error
	status    payment.Status
	statusErr error
	queried   []string
}

func (g *stubGateway) CreateCharge(_ context.Context, req payment.ChargeRequest) (payment.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charge = req
	if g.chargeErr != nil {
		return payment.Charge{}, g.chargeErr
	}
	return payment.Charge{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

func (g *stubGateway) TransactionStatus(_ context.Context, id string) (payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queried = append(g.queried, id)
	return g.status, g.statusErr
}
