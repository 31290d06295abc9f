package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewOrderItemRoundsUnitPrice(t *testing.T) {
	it := NewOrderItem(ProductSnapshot{ProductID: 3, Name: "Croissant", Price: decimal.RequireFromString("12500.50")}, 2)
	assert.Equal(t, "12501", it.Price.String())
	assert.Equal(t, "25002", it.Subtotal.String())

	it = NewOrderItem(ProductSnapshot{Price: decimal.RequireFromString("18000.49")}, 3)
	assert.Equal(t, "18000", it.Price.String())
	assert.Equal(t, "54000", it.Subtotal.String())
}
