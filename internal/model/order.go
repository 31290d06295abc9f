package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses mirror the payment gateway's transaction states.
const (
	OrderPending    = "pending"
	OrderSettlement = "settlement"
	OrderChallenge  = "challenge"
	OrderDeny       = "deny"
	OrderCancel     = "cancel"
	OrderExpire     = "expire"
)

// Gateway pseudo-item identifiers.  They only exist in the itemized
// breakdown sent to the payment gateway and are never stored as order items.
const (
	ShippingItemID        = "SHIPPING"
	VoucherDiscountItemID = "VOUCHER_DISCOUNT"
)

// Order is a checkout.  The payment fields are empty until the gateway
// reports back through the webhook or a client payment update.
type Order struct {
	ID              uint64           `json:"id"`
	OrderNumber     string           `json:"order_number"`
	UserID          *uint64          `json:"user_id,omitempty"`
	CustomerName    string           `json:"customer_name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Address         string           `json:"address"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee"`
	Total           decimal.Decimal  `json:"total"`
	PaymentMethod   string           `json:"payment_method"`
	Status          string           `json:"status"`
	OrderDate       time.Time        `json:"order_date"`
	VoucherID       *uint64          `json:"voucher_id,omitempty"`
	VoucherCode     *string          `json:"voucher_code,omitempty"`
	VoucherDiscount decimal.Decimal  `json:"voucher_discount"`
	SnapToken       *string          `json:"snap_token,omitempty"`
	RedirectURL     *string          `json:"snap_redirect_url,omitempty"`
	TransactionID   *string          `json:"transaction_id,omitempty"`
	TransactionTime *string          `json:"transaction_time,omitempty"`
	VANumber        *string          `json:"va_number,omitempty"`
	Bank            *string          `json:"bank,omitempty"`
	FraudStatus     *string          `json:"fraud_status,omitempty"`
	Voucher         *OrderVoucher    `json:"voucher"`
	Items           []OrderItem      `json:"items,omitempty"`
	ItemCount       int              `json:"item_count,omitempty"`
}

// OrderVoucher is the voucher summary attached to an order read.
type OrderVoucher struct {
	ID             uint64          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	DiscountType   string          `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// ProductSnapshot freezes a catalog product's name and price at purchase
// time.  Later catalog edits never change a stored snapshot.
type ProductSnapshot struct {
	ProductID uint64          `json:"product_id"`
	Name      string          `json:"product_name"`
	Price     decimal.Decimal `json:"price"`
}

// OrderItem is an immutable order line built from a ProductSnapshot.
type OrderItem struct {
	ID      uint64 `json:"id"`
	OrderID uint64 `json:"order_id"`
	ProductSnapshot
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// NewOrderItem builds a line from a snapshot and quantity.  The unit
// price is rounded half-up to whole rupiah so the stored line, the order
// totals and the gateway breakdown all add up to the same integers.
func NewOrderItem(s ProductSnapshot, qty int) OrderItem {
	s.Price = s.Price.Round(0)
	return OrderItem{
		ProductSnapshot: s,
		Quantity:        qty,
		Subtotal:        s.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// PaymentUpdate is the set of gateway fields written onto an order.
type PaymentUpdate struct {
	Status          string
	TransactionID   string
	TransactionTime string
	VANumber        *string
	Bank            *string
	FraudStatus     *string
	PaymentType     string
}

// Product is a catalog entry.
type Product struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Snapshot freezes the product's current name and price.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{ProductID: p.ID, Name: p.Name, Price: p.Price}
}
