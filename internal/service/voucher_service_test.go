package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/repository"
)

var voucherCols = []string{"id", "code", "name", "description", "discount_type", "discount_value",
	"min_order", "max_discount", "is_active", "expires_at", "created_at"}

func save10Rows() *sqlmock.Rows {
	return sqlmock.NewRows(voucherCols).
		AddRow(1, "SAVE10", "Save 10%", "Ten percent off", "percentage", "10", "50000", "5000", true, nil, fixedNow)
}

func newVoucherService(t *testing.T) (*VoucherService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewVoucherService(repository.NewVoucherRepo(db), zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestValidate_PercentageIsCapped(t *testing.T) {
	svc, mock := newVoucherService(t)
	uid := uint64(5)
	who := model.Requester{UserID: &uid, Email: "sari@example.com"}

	mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WithArgs("SAVE10").WillReturnRows(save10Rows())
	mock.ExpectQuery(`FROM user_voucher_usage`).WithArgs(uint64(1), int64(5), "sari@example.com").WillReturnRows(countRow(0))

	res, err := svc.Validate(context.Background(), "save10", who, decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.DiscountAmount.Equal(decimal.NewFromInt(5000)), res.DiscountAmount.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_IsIdempotent(t *testing.T) {
	svc, mock := newVoucherService(t)
	who := model.Guest("guest@example.com")

	var results []*VoucherResult
	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WillReturnRows(save10Rows())
		mock.ExpectQuery(`FROM user_voucher_usage`).WillReturnRows(countRow(0))
		res, err := svc.Validate(context.Background(), "SAVE10", who, decimal.NewFromInt(30000+50000))
		require.NoError(t, err)
		results = append(results, res)
	}
	for _, r := range results[1:] {
		assert.Equal(t, results[0].Valid, r.Valid)
		assert.True(t, results[0].DiscountAmount.Equal(r.DiscountAmount))
		assert.Equal(t, results[0].Message, r.Message)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_UsedByEmailOrUser(t *testing.T) {
	svc, mock := newVoucherService(t)

	mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WillReturnRows(save10Rows())
	mock.ExpectQuery(`FROM user_voucher_usage`).WithArgs(uint64(1), nil, "guest@example.com").WillReturnRows(countRow(1))

	res, err := svc.Validate(context.Background(), "SAVE10", model.Guest("Guest@Example.com"), decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, msgVoucherUsed, res.Message)
	assert.Nil(t, res.Voucher)
}

func TestValidate_BelowMinimum(t *testing.T) {
	svc, mock := newVoucherService(t)

	mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WillReturnRows(save10Rows())

	res, err := svc.Validate(context.Background(), "SAVE10", model.Guest("a@example.com"), decimal.NewFromInt(49999))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "minimum order for this voucher is Rp 50.000", res.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidate_UnknownInactiveOrExpired(t *testing.T) {
	svc, mock := newVoucherService(t)

	mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WillReturnRows(sqlmock.NewRows(voucherCols))
	res, err := svc.Validate(context.Background(), "NOPE", model.Guest("a@example.com"), decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, msgVoucherInvalid, res.Message)

	expired := fixedNow.Add(-time.Hour)
	mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WillReturnRows(sqlmock.NewRows(voucherCols).
		AddRow(2, "OLD", "Old", "", "fixed", "10000", "0", nil, true, expired, fixedNow))
	res, err = svc.Validate(context.Background(), "OLD", model.Guest("a@example.com"), decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, msgVoucherInvalid, res.Message)

	res, err = svc.Validate(context.Background(), "   ", model.Guest("a@example.com"), decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestRecordUsage_ThenValidateFails(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoucherService(repository.NewVoucherRepo(db), zaptest.NewLogger(t))
	svc.now = func() time.Time { return fixedNow }
	who := model.Guest("sari@example.com")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_voucher_usage`).WithArgs(uint64(1), nil, "sari@example.com").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM vouchers WHERE code = \?`).WillReturnRows(save10Rows())
	mock.ExpectQuery(`FROM user_voucher_usage`).WithArgs(uint64(1), nil, "sari@example.com").WillReturnRows(countRow(1))

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, svc.RecordUsageTx(context.Background(), tx, 1, who))
	require.NoError(t, tx.Commit())

	res, err := svc.Validate(context.Background(), "SAVE10", who, decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, msgVoucherUsed, res.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUsage_DuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewVoucherService(repository.NewVoucherRepo(db), zaptest.NewLogger(t))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_voucher_usage`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = svc.RecordUsageTx(context.Background(), tx, 1, model.Guest("sari@example.com"))
	assert.Equal(t, KindConflict, KindOf(err))
	require.NoError(t, tx.Rollback())
}
