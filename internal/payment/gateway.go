// Package payment talks to the external payment gateway.  The rest of the
// application depends only on the Gateway interface; Midtrans is the
// production implementation and Breaker guards it against outages.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable is returned while the breaker refuses gateway calls.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Error is an answer from the gateway.  StatusCode is zero when no HTTP
// response was received.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
}

// ClientError reports whether the gateway rejected the request itself
// (4xx).  Such answers mean the gateway is up.
func (e *Error) ClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// gatewayFault reports whether err says the gateway is unhealthy.
func gatewayFault(err error) bool {
	if err == nil {
		return false
	}
	var ge *Error
	if errors.As(err, &ge) && ge.ClientError() {
		return false
	}
	return true
}

// Customer is the buyer as shown on the gateway's payment page.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Item is one line of the itemized breakdown.  Price may be negative for
// discount lines.  The sum of Price×Qty must equal GrossAmount.
type Item struct {
	ID    string
	Name  string
	Price int64
	Qty   int32
}

// ChargeRequest asks the gateway for a payable transaction.
type ChargeRequest struct {
	OrderID         string
	GrossAmount     int64
	Customer        Customer
	Items           []Item
	EnabledPayments []string
}

// Charge is the gateway's answer to a ChargeRequest.
type Charge struct {
	Token       string
	RedirectURL string
}

// Status is the gateway's authoritative view of a transaction.
type Status struct {
	TransactionID     string
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	TransactionTime   string
	PaymentType       string
	VANumber          string
	Bank              string
}

// Gateway is the payment provider used by the order and payment services.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error)
	TransactionStatus(ctx context.Context, transactionID string) (Status, error)
}

// SumItems returns the total of Price×Qty over items.
func SumItems(items []Item) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price * int64(it.Qty)
	}
	return sum
}
