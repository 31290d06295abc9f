package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/ALVINfrs/caffeine/internal/model"
)

// OrderRepo persists orders and their immutable item snapshots.  Payment
// columns are written later by UpdatePayment.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts the order header with status pending and sets o.ID.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders
               (user_id, customer_name, email, phone, address, subtotal, shipping_fee, total,
                payment_method, status, voucher_id, voucher_code, voucher_discount)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		nullUint(o.UserID), o.CustomerName, o.Email, o.Phone, o.Address, o.Subtotal, o.ShippingFee, o.Total,
		o.PaymentMethod, o.Status, nullUint(o.VoucherID), nullStr(o.VoucherCode), o.VoucherDiscount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// InsertItemsTx stores one row per line.  Item IDs are populated in place.
func (r *OrderRepo) InsertItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	const q = `INSERT INTO order_items (order_id, product_id, product_name, price, quantity, subtotal)
               VALUES (?, ?, ?, ?, ?, ?)`
	for i := range items {
		it := &items[i]
		res, err := tx.ExecContext(ctx, q, orderID, it.ProductID, it.Name, it.Price, it.Quantity, it.Subtotal)
		if err != nil {
			return err
		}
		if id, err := res.LastInsertId(); err == nil {
			it.ID = uint64(id)
		}
		it.OrderID = orderID
	}
	return nil
}

// SetNumberTx stores the generated order number.
func (r *OrderRepo) SetNumberTx(ctx context.Context, tx *sql.Tx, id uint64, number string) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET order_number = ? WHERE id = ?`, number, id)
	return translate(err)
}

// SetSnapTx stores the gateway token and redirect URL.
func (r *OrderRepo) SetSnapTx(ctx context.Context, tx *sql.Tx, id uint64, token, redirectURL string) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET snap_token = ?, snap_redirect_url = ? WHERE id = ?`, token, redirectURL, id)
	return err
}

// UpdatePayment writes gateway status fields onto an existing order.
// ErrNotFound when no order has that number.
func (r *OrderRepo) UpdatePayment(ctx context.Context, orderNumber string, u model.PaymentUpdate) error {
	const q = `UPDATE orders
               SET status = ?, transaction_id = ?, transaction_time = ?, va_number = ?, bank = ?,
                   fraud_status = ?, payment_method = ?
               WHERE order_number = ?`
	res, err := r.db.ExecContext(ctx, q, u.Status, u.TransactionID, u.TransactionTime,
		nullStr(u.VANumber), nullStr(u.Bank), nullStr(u.FraudStatus), u.PaymentType, orderNumber)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when nothing changed, so tell
		// "unchanged" apart from "missing".
		if _, err := r.GetByNumber(ctx, orderNumber); err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `o.id, COALESCE(o.order_number, ''), o.user_id, o.customer_name, o.email, o.phone, o.address,
       o.subtotal, o.shipping_fee, o.total, o.payment_method, o.status, o.order_date,
       o.voucher_id, o.voucher_code, o.voucher_discount, o.snap_token, o.snap_redirect_url,
       o.transaction_id, o.transaction_time, o.va_number, o.bank, o.fraud_status,
       v.name, v.description, v.discount_type, v.discount_value,
       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id)`

const orderFrom = ` FROM orders o LEFT JOIN vouchers v ON o.voucher_id = v.id`

func scanOrder(s rowScanner) (*model.Order, error) {
	var o model.Order
	var userID, voucherID sql.NullInt64
	var voucherCode, snapToken, redirectURL, txID, txTime, va, bank, fraud sql.NullString
	var vName, vDesc, vType sql.NullString
	var vValue decimal.NullDecimal
	if err := s.Scan(&o.ID, &o.OrderNumber, &userID, &o.CustomerName, &o.Email, &o.Phone, &o.Address,
		&o.Subtotal, &o.ShippingFee, &o.Total, &o.PaymentMethod, &o.Status, &o.OrderDate,
		&voucherID, &voucherCode, &o.VoucherDiscount, &snapToken, &redirectURL,
		&txID, &txTime, &va, &bank, &fraud,
		&vName, &vDesc, &vType, &vValue,
		&o.ItemCount); err != nil {
		return nil, err
	}
	o.UserID, o.VoucherID = uintPtr(userID), uintPtr(voucherID)
	o.VoucherCode, o.SnapToken, o.RedirectURL = strPtr(voucherCode), strPtr(snapToken), strPtr(redirectURL)
	o.TransactionID, o.TransactionTime = strPtr(txID), strPtr(txTime)
	o.VANumber, o.Bank, o.FraudStatus = strPtr(va), strPtr(bank), strPtr(fraud)
	if o.VoucherID != nil && vName.Valid {
		o.Voucher = &model.OrderVoucher{
			ID:             *o.VoucherID,
			Code:           voucherCode.String,
			Name:           vName.String,
			Description:    vDesc.String,
			DiscountType:   vType.String,
			DiscountValue:  vValue.Decimal,
			DiscountAmount: o.VoucherDiscount,
		}
	}
	return &o, nil
}

// GetByNumber returns the order with its items.  ErrNotFound when absent.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.getWithItems(ctx, ` WHERE o.order_number = ?`, number)
}

// GetByID returns the order with its items.  ErrNotFound when absent.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	return r.getWithItems(ctx, ` WHERE o.id = ?`, id)
}

func (r *OrderRepo) getWithItems(ctx context.Context, where string, arg any) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+orderFrom+where, arg))
	if err != nil {
		return nil, translate(err)
	}
	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// Items returns the stored line snapshots of an order.
func (r *OrderRepo) Items(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, price, quantity, subtotal
         FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListByUser returns a user's orders, newest first, without items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, ` WHERE o.user_id = ? ORDER BY o.order_date DESC, o.id DESC`, userID)
}

// ListAll returns every order, newest first, without items.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, ` ORDER BY o.order_date DESC, o.id DESC`)
}

func (r *OrderRepo) list(ctx context.Context, tail string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+orderFrom+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
