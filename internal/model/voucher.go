package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Voucher represents a discount code managed by admins.  MaxDiscount caps
// percentage discounts only; fixed discounts are applied verbatim.
//
// Fields:
//  Code          – unique, stored upper-case.
//  DiscountValue – percent (0..100) or an absolute amount.
//  MinOrder      – smallest order total the code applies to.
//  MaxDiscount   – optional cap, nil when uncapped.
//  ExpiresAt     – optional expiry, nil when the code never expires.
type Voucher struct {
	ID            uint64           `json:"id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinOrder      decimal.Decimal  `json:"min_order"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	IsActive      bool             `json:"is_active"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Expired reports whether the voucher has an expiry that is not after now.
func (v Voucher) Expired(now time.Time) bool {
	return v.ExpiresAt != nil && !v.ExpiresAt.After(now)
}

// Discount computes the discount this voucher grants on total.  Percentage
// discounts are rounded to whole rupiah and capped at MaxDiscount; fixed
// discounts are returned as stored.
func (v Voucher) Discount(total decimal.Decimal) decimal.Decimal {
	if v.DiscountType != DiscountPercentage {
		return v.DiscountValue
	}
	d := total.Mul(v.DiscountValue).Div(decimal.NewFromInt(100)).Round(0)
	if v.MaxDiscount != nil && v.MaxDiscount.IsPositive() && d.GreaterThan(*v.MaxDiscount) {
		d = *v.MaxDiscount
	}
	return d
}

// VoucherUsage records that a requester consumed a voucher.  UserID is nil
// for guest checkouts, in which case the email alone identifies the buyer.
type VoucherUsage struct {
	ID        uint64    `json:"id"`
	VoucherID uint64    `json:"voucher_id"`
	UserID    *uint64   `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
