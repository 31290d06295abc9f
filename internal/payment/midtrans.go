package payment

import (
	"context"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/ALVINfrs/caffeine/internal/config"
)

// Midtrans implements Gateway with the Snap API for charges and the Core
// API for status checks.
type Midtrans struct {
	snap snap.Client
	core coreapi.Client
}

// NewMidtrans builds a client for the sandbox or production environment.
func NewMidtrans(cfg config.MidtransConfig) *Midtrans {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}
	m := &Midtrans{}
	m.snap.New(cfg.ServerKey, env)
	m.core.New(cfg.ServerKey, env)
	return m
}

// CreateCharge requests a Snap token for the order.
func (m *Midtrans) CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error) {
	if err := ctx.Err(); err != nil {
		return Charge{}, err
	}
	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{ID: it.ID, Name: it.Name, Price: it.Price, Qty: it.Qty})
	}
	addr := &midtrans.CustomerAddress{Address: req.Customer.Address}
	sr := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{OrderID: req.OrderID, GrossAmt: req.GrossAmount},
		CustomerDetail: &midtrans.CustomerDetails{
			FName:    req.Customer.Name,
			Email:    req.Customer.Email,
			Phone:    req.Customer.Phone,
			BillAddr: addr,
			ShipAddr: addr,
		},
		Items: &items,
	}
	for _, p := range req.EnabledPayments {
		sr.EnabledPayments = append(sr.EnabledPayments, snap.SnapPaymentType(p))
	}

	resp, merr := m.snap.CreateTransaction(sr)
	if merr != nil {
		return Charge{}, wrapError("snap create transaction", merr)
	}
	return Charge{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// TransactionStatus queries the Core API for a transaction.
func (m *Midtrans) TransactionStatus(ctx context.Context, transactionID string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	resp, merr := m.core.CheckTransaction(transactionID)
	if merr != nil {
		return Status{}, wrapError("check transaction "+transactionID, merr)
	}
	st := Status{
		TransactionID:     resp.TransactionID,
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		TransactionTime:   resp.TransactionTime,
		PaymentType:       resp.PaymentType,
	}
	if len(resp.VaNumbers) > 0 {
		st.VANumber = resp.VaNumbers[0].VANumber
		st.Bank = resp.VaNumbers[0].Bank
	} else if resp.PermataVaNumber != "" {
		st.VANumber = resp.PermataVaNumber
		st.Bank = "permata"
	}
	return st, nil
}

func wrapError(op string, merr *midtrans.Error) error {
	return &Error{Op: op, StatusCode: merr.StatusCode, Message: merr.Message}
}
