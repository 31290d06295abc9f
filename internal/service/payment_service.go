package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/payment"
	"github.com/ALVINfrs/caffeine/internal/queue"
	"github.com/ALVINfrs/caffeine/internal/repository"
)

// PaymentUpdateInput is the client-initiated payment update.
type PaymentUpdateInput struct {
	PaymentMethod     string `json:"paymentMethod"`
	TransactionStatus string `json:"transactionStatus"`
	TransactionID     string `json:"transactionId"`
}

// PaymentService writes gateway transaction state onto existing orders.
// It never creates orders.
type PaymentService struct {
	orders    *repository.OrderRepo
	gateway   payment.Gateway
	serverKey string
	now       func() time.Time
	pub       Publisher
	log       *zap.Logger
}

// NewPaymentService wires the status sync.  With an empty serverKey
// webhook signatures are not checked.
func NewPaymentService(orders *repository.OrderRepo, gateway payment.Gateway, serverKey string, pub Publisher, log *zap.Logger) *PaymentService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &PaymentService{orders: orders, gateway: gateway, serverKey: serverKey, now: time.Now, pub: pub, log: log}
}

// WebhookStatus maps a gateway notification onto an order status.
// Unknown gateway states are stored as reported.
func WebhookStatus(transactionStatus, fraudStatus string) string {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" {
			return model.OrderChallenge
		}
		return model.OrderSettlement
	case "settlement":
		return model.OrderSettlement
	case "deny":
		return model.OrderDeny
	case "cancel", "expire":
		return transactionStatus
	case "pending":
		return model.OrderPending
	}
	return transactionStatus
}

// ClientStatus maps the status seen on a client payment update.  Anything
// the gateway does not report as paid, denied, cancelled or expired is
// treated as pending.
func ClientStatus(transactionStatus string) string {
	switch transactionStatus {
	case "capture", "settlement":
		return model.OrderSettlement
	case "deny":
		return model.OrderDeny
	case "cancel", "expire":
		return transactionStatus
	}
	return model.OrderPending
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// HandleNotification processes a gateway webhook.  The status is re-read
// from the gateway by transaction id rather than trusted from the body.
func (s *PaymentService) HandleNotification(ctx context.Context, n payment.Notification) error {
	if n.OrderID == "" || n.TransactionID == "" {
		return Validationf("notification is missing order_id or transaction_id")
	}
	if s.serverKey != "" && !n.Verify(s.serverKey) {
		s.log.Warn("rejected notification with bad signature", zap.String("order_number", n.OrderID))
		return Validationf("invalid notification signature")
	}
	st, err := s.gateway.TransactionStatus(ctx, n.TransactionID)
	if err != nil {
		return Upstream("failed to verify transaction status", err)
	}
	orderNumber := n.OrderID
	if st.OrderID != "" && st.OrderID != n.OrderID {
		return Validationf("transaction does not belong to order %s", n.OrderID)
	}
	fraud := st.FraudStatus
	if fraud == "" {
		fraud = n.FraudStatus
	}
	status := WebhookStatus(firstNonEmpty(st.TransactionStatus, n.TransactionStatus), fraud)
	u := model.PaymentUpdate{
		Status:          status,
		TransactionID:   n.TransactionID,
		TransactionTime: firstNonEmpty(st.TransactionTime, n.TransactionTime, s.now().UTC().Format(time.RFC3339)),
		FraudStatus:     optional(fraud),
		PaymentType:     firstNonEmpty(st.PaymentType, n.PaymentType),
	}
	if u.PaymentType == "bank_transfer" {
		u.VANumber, u.Bank = optional(st.VANumber), optional(st.Bank)
	}
	return s.apply(ctx, "webhook", orderNumber, u)
}

// UpdatePaymentMethod records the outcome the client saw on the payment
// page after confirming it with the gateway.
func (s *PaymentService) UpdatePaymentMethod(ctx context.Context, orderNumber string, in PaymentUpdateInput) error {
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if orderNumber == "" || in.PaymentMethod == "" || in.TransactionID == "" {
		return Validationf("orderNumber, paymentMethod and transactionId are required")
	}
	st, err := s.gateway.TransactionStatus(ctx, in.TransactionID)
	if err != nil {
		return Upstream("failed to verify transaction status", err)
	}
	if st.OrderID != orderNumber {
		return Validationf("transaction ID does not match order number")
	}
	u := model.PaymentUpdate{
		Status:          ClientStatus(firstNonEmpty(st.TransactionStatus, in.TransactionStatus)),
		TransactionID:   in.TransactionID,
		TransactionTime: firstNonEmpty(st.TransactionTime, s.now().UTC().Format(time.RFC3339)),
		VANumber:        optional(st.VANumber),
		Bank:            optional(st.Bank),
		FraudStatus:     optional(st.FraudStatus),
		PaymentType:     in.PaymentMethod,
	}
	return s.apply(ctx, "client", orderNumber, u)
}

func (s *PaymentService) apply(ctx context.Context, source, orderNumber string, u model.PaymentUpdate) error {
	err := s.orders.UpdatePayment(ctx, orderNumber, u)
	if errors.Is(err, repository.ErrNotFound) {
		return NotFoundf("order not found")
	}
	if err != nil {
		return Unexpected("failed to update order payment", err)
	}
	paymentUpdates.WithLabelValues(source, u.Status).Inc()
	s.log.Info("order payment updated",
		zap.String("source", source),
		zap.String("order_number", orderNumber),
		zap.String("status", u.Status),
		zap.String("payment_type", u.PaymentType))
	publishAsync(s.pub, s.log, queue.Envelope{
		Type: queue.TypeOrderPaymentUpdated,
		Order: &queue.OrderEvent{
			OrderNumber:   orderNumber,
			Status:        u.Status,
			PaymentType:   u.PaymentType,
			TransactionID: u.TransactionID,
		},
	})
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
