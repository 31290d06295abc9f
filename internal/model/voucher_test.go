package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestVoucherDiscount(t *testing.T) {
	capped := dec(5000)
	cases := []struct {
		name  string
		v     Voucher
		total decimal.Decimal
		want  decimal.Decimal
	}{
		{"percentage capped", Voucher{DiscountType: DiscountPercentage, DiscountValue: dec(10), MaxDiscount: &capped}, dec(100000), dec(5000)},
		{"percentage under cap", Voucher{DiscountType: DiscountPercentage, DiscountValue: dec(10), MaxDiscount: &capped}, dec(30000), dec(3000)},
		{"percentage uncapped", Voucher{DiscountType: DiscountPercentage, DiscountValue: dec(15)}, dec(100000), dec(15000)},
		{"percentage rounds to rupiah", Voucher{DiscountType: DiscountPercentage, DiscountValue: dec(15)}, dec(33333), dec(5000)},
		{"fixed verbatim", Voucher{DiscountType: DiscountFixed, DiscountValue: dec(20000), MaxDiscount: &capped}, dec(10000), dec(20000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.v.Discount(tc.total)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestVoucherExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Hour)
	assert.False(t, Voucher{}.Expired(now))
	assert.True(t, Voucher{ExpiresAt: &past}.Expired(now))
	assert.False(t, Voucher{ExpiresAt: &future}.Expired(now))
}
