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

var orderCols = []string{"id", "order_number", "user_id", "customer_name", "email", "phone", "address",
	"subtotal", "shipping_fee", "total", "payment_method", "status", "order_date",
	"voucher_id", "voucher_code", "voucher_discount", "snap_token", "snap_redirect_url",
	"transaction_id", "transaction_time", "va_number", "bank", "fraud_status",
	"name", "description", "discount_type", "discount_value", "item_count"}

func TestOrderGetByNumber_WithVoucherAndItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectQuery(`WHERE o.order_number = \?`).
		WithArgs("KKS-1-000001").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			1, "KKS-1-000001", nil, "Sari", "sari@example.com", "0813", "Jl. Kopi 1",
			"100000", "10000", "105000", "all", "pending", time.Now(),
			3, "SAVE10", "5000", "tok", "https://pay/redirect",
			nil, nil, nil, nil, nil,
			"Save 10", "", "percentage", "10", 1))
	mock.ExpectQuery(`FROM order_items WHERE order_id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "price", "quantity", "subtotal"}).
			AddRow(10, 1, 7, "Latte", "25000", 4, "100000"))

	o, err := repo.GetByNumber(context.Background(), "KKS-1-000001")
	require.NoError(t, err)
	assert.Nil(t, o.UserID)
	require.NotNil(t, o.Voucher)
	assert.Equal(t, "SAVE10", o.Voucher.Code)
	assert.True(t, o.Voucher.DiscountAmount.Equal(decimal.NewFromInt(5000)))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Latte", o.Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderGetByNumber_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectQuery(`WHERE o.order_number = \?`).WithArgs("KKS-9-000000").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByNumber(context.Background(), "KKS-9-000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertItemsTx_PopulatesIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	items := []model.OrderItem{
		model.NewOrderItem(model.ProductSnapshot{ProductID: 7, Name: "Latte", Price: decimal.NewFromInt(25000)}, 2),
		model.NewOrderItem(model.ProductSnapshot{ProductID: 8, Name: "Croissant", Price: decimal.NewFromInt(18000)}, 1),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(uint64(1), uint64(7), "Latte", sqlmock.AnyArg(), 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(uint64(1), uint64(8), "Croissant", sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.InsertItemsTx(context.Background(), tx, 1, items))
	require.NoError(t, tx.Commit())
	assert.Equal(t, uint64(12), items[1].ID)
	assert.Equal(t, uint64(1), items[0].OrderID)
}

func TestUpdatePayment_MissingOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)

	mock.ExpectExec(`UPDATE orders\s+SET status = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`WHERE o.order_number = \?`).WithArgs("KKS-404-000000").WillReturnError(sql.ErrNoRows)

	err := repo.UpdatePayment(context.Background(), "KKS-404-000000", model.PaymentUpdate{Status: "settlement"})
	assert.ErrorIs(t, err, ErrNotFound)
}
