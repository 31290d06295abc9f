package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ALVINfrs/caffeine/internal/model"
)

// VoucherRepo reads vouchers and records their consumption in
// user_voucher_usage.  Vouchers themselves are admin-managed reference data.
type VoucherRepo struct {
	db *sql.DB
}

// NewVoucherRepo returns a new VoucherRepo bound to the given database.
func NewVoucherRepo(db *sql.DB) *VoucherRepo { return &VoucherRepo{db: db} }

const voucherColumns = `id, code, name, description, discount_type, discount_value, min_order,
       max_discount, is_active, expires_at, created_at`

func scanVoucher(s rowScanner) (*model.Voucher, error) {
	var v model.Voucher
	var maxDiscount decimal.NullDecimal
	var expiresAt sql.NullTime
	if err := s.Scan(&v.ID, &v.Code, &v.Name, &v.Description, &v.DiscountType, &v.DiscountValue,
		&v.MinOrder, &maxDiscount, &v.IsActive, &expiresAt, &v.CreatedAt); err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		v.MaxDiscount = &maxDiscount.Decimal
	}
	if expiresAt.Valid {
		v.ExpiresAt = &expiresAt.Time
	}
	return &v, nil
}

// GetActiveByCode returns the active voucher with the given code.  Codes
// are compared upper-cased.  ErrNotFound when no active voucher matches.
func (r *VoucherRepo) GetActiveByCode(ctx context.Context, code string) (*model.Voucher, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = ? AND is_active = 1`,
		strings.ToUpper(strings.TrimSpace(code)))
	v, err := scanVoucher(row)
	return v, translate(err)
}

// HasUsage reports whether the voucher was already consumed by the user
// or by the email.  A nil userID matches on email alone.
func (r *VoucherRepo) HasUsage(ctx context.Context, voucherID uint64, userID *uint64, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_voucher_usage
         WHERE voucher_id = ? AND ((user_id IS NOT NULL AND user_id = ?) OR email = ?)`,
		voucherID, nullUint(userID), email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordUsageTx inserts a usage row inside the caller's transaction.
// ErrDuplicate when the email already consumed the voucher.
func (r *VoucherRepo) RecordUsageTx(ctx context.Context, tx *sql.Tx, voucherID uint64, userID *uint64, email string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_voucher_usage (voucher_id, user_id, email) VALUES (?, ?, ?)`,
		voucherID, nullUint(userID), email)
	return translate(err)
}

// ListActive returns active vouchers that have not expired.
func (r *VoucherRepo) ListActive(ctx context.Context) ([]model.Voucher, error) {
	return r.list(ctx, `SELECT `+voucherColumns+` FROM vouchers
         WHERE is_active = 1 AND (expires_at IS NULL OR expires_at > NOW())
         ORDER BY created_at DESC`)
}

// ListAll returns every voucher, for the admin dashboard.
func (r *VoucherRepo) ListAll(ctx context.Context) ([]model.Voucher, error) {
	return r.list(ctx, `SELECT `+voucherColumns+` FROM vouchers ORDER BY created_at DESC`)
}

func (r *VoucherRepo) list(ctx context.Context, q string) ([]model.Voucher, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Voucher, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
