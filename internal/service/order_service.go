package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/payment"
	"github.com/ALVINfrs/caffeine/internal/queue"
	"github.com/ALVINfrs/caffeine/internal/repository"
)

// OrderItemInput is one cart line.  Name and Price are what the client
// displayed; the stored snapshot always comes from the catalog.
type OrderItemInput struct {
	ID       uint64          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CreateOrderInput is a checkout request.
type CreateOrderInput struct {
	CustomerName    string           `json:"customerName"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Address         string           `json:"address"`
	Items           []OrderItemInput `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Shipping        decimal.Decimal  `json:"shipping"`
	Total           decimal.Decimal  `json:"total"`
	PaymentMethod   string           `json:"paymentMethod"`
	VoucherCode     string           `json:"voucherCode"`
	VoucherDiscount decimal.Decimal  `json:"voucherDiscount"`
}

// CreatedOrder is returned by Create.
type CreatedOrder struct {
	OrderID     uint64              `json:"orderId"`
	OrderNumber string              `json:"orderNumber"`
	SnapToken   string              `json:"snapToken"`
	RedirectURL string              `json:"redirectUrl"`
	Total       decimal.Decimal     `json:"total"`
	Voucher     *model.OrderVoucher `json:"voucher,omitempty"`
}

// OrderService assembles orders and hands them to the payment gateway.
type OrderService struct {
	orders   *repository.OrderRepo
	products *repository.ProductRepo
	vouchers *VoucherService
	gateway  payment.Gateway
	now      func() time.Time
	pub      Publisher
	log      *zap.Logger
}

func NewOrderService(orders *repository.OrderRepo, products *repository.ProductRepo, vouchers *VoucherService,
	gateway payment.Gateway, pub Publisher, log *zap.Logger) *OrderService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &OrderService{
		orders:   orders,
		products: products,
		vouchers: vouchers,
		gateway:  gateway,
		now:      time.Now,
		pub:      pub,
		log:      log,
	}
}

func validateOrderInput(in *CreateOrderInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if in.CustomerName == "" || in.Email == "" || in.Phone == "" || in.Address == "" {
		return Validationf("customer name, email, phone and address are required")
	}
	if len(in.Items) == 0 {
		return Validationf("order must contain at least one item")
	}
	for _, it := range in.Items {
		if it.ID == 0 || it.Quantity < 1 {
			return Validationf("every item needs a product id and a quantity of at least 1")
		}
	}
	if in.Shipping.IsNegative() {
		return Validationf("shipping fee cannot be negative")
	}
	in.Shipping = in.Shipping.Round(0)
	return nil
}

// Create runs the whole checkout in one transaction: snapshot items,
// re-validate the voucher, insert the order and its items, assign the
// order number, record voucher usage, obtain a payment token and store
// it.  Any failure rolls everything back.
func (s *OrderService) Create(ctx context.Context, who model.Requester, in CreateOrderInput) (out *CreatedOrder, err error) {
	defer func() { ordersCreated.WithLabelValues(outcome(err)).Inc() }()

	in.Email = model.NormalizeEmail(in.Email)
	if in.Email == "" {
		in.Email = who.Email
	}
	if err := validateOrderInput(&in); err != nil {
		return nil, err
	}
	buyer := who.WithEmail(in.Email)

	tx, err := s.orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, Unexpected("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	items := make([]model.OrderItem, 0, len(in.Items))
	subtotal, listed := decimal.Zero, decimal.Zero
	for _, line := range in.Items {
		snap, err := s.products.SnapshotTx(ctx, tx, line.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Validationf("product %d does not exist", line.ID)
		}
		if err != nil {
			return nil, Unexpected("failed to load product", err)
		}
		item := model.NewOrderItem(snap, line.Quantity)
		subtotal = subtotal.Add(item.Subtotal)
		listed = listed.Add(snap.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, item)
	}
	// the client may echo either the catalog prices or the rounded ones
	if !in.Subtotal.IsZero() && !in.Subtotal.Equal(subtotal) && !in.Subtotal.Equal(listed) {
		return nil, Validationf("cart prices have changed, please refresh your cart")
	}
	gross := subtotal.Add(in.Shipping)

	order := &model.Order{
		UserID:          buyer.UserID,
		CustomerName:    in.CustomerName,
		Email:           in.Email,
		Phone:           in.Phone,
		Address:         in.Address,
		Subtotal:        subtotal,
		ShippingFee:     in.Shipping,
		PaymentMethod:   in.PaymentMethod,
		Status:          model.OrderPending,
		VoucherDiscount: decimal.Zero,
	}
	var applied *VoucherResult
	if code := strings.ToUpper(strings.TrimSpace(in.VoucherCode)); code != "" && in.VoucherDiscount.IsPositive() {
		res, err := s.vouchers.Validate(ctx, code, buyer, gross)
		if err != nil {
			return nil, err
		}
		if !res.Valid {
			return nil, Conflictf("%s", res.Message)
		}
		applied = res
		discount := res.DiscountAmount.Round(0)
		if discount.GreaterThan(gross) {
			discount = gross
		}
		order.VoucherID, order.VoucherCode, order.VoucherDiscount = &res.Voucher.ID, &code, discount
	}
	order.Total = gross.Sub(order.VoucherDiscount)
	if !order.Total.IsPositive() {
		return nil, Validationf("order total must be greater than zero")
	}

	if err := s.orders.CreateTx(ctx, tx, order); err != nil {
		return nil, Unexpected("failed to create order", err)
	}
	if err := s.orders.InsertItemsTx(ctx, tx, order.ID, items); err != nil {
		return nil, Unexpected("failed to create order items", err)
	}
	order.OrderNumber = publicNumber("KKS", order.ID, s.now())
	if err := s.orders.SetNumberTx(ctx, tx, order.ID, order.OrderNumber); err != nil {
		return nil, Unexpected("failed to assign order number", err)
	}
	if applied != nil {
		if err := s.vouchers.RecordUsageTx(ctx, tx, applied.Voucher.ID, buyer); err != nil {
			return nil, err
		}
	}

	req := s.chargeRequest(order, items)
	if sum := payment.SumItems(req.Items); sum != req.GrossAmount {
		return nil, Unexpected("payment breakdown does not match order total",
			fmt.Errorf("items sum to %d, gross amount %d", sum, req.GrossAmount))
	}
	charge, err := s.gateway.CreateCharge(ctx, req)
	if err != nil {
		s.log.Error("payment gateway rejected order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, Upstream("failed to create payment transaction", err)
	}
	if err := s.orders.SetSnapTx(ctx, tx, order.ID, charge.Token, charge.RedirectURL); err != nil {
		return nil, Unexpected("failed to store payment token", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, Unexpected("failed to commit order", err)
	}
	committed = true

	out = &CreatedOrder{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		SnapToken:   charge.Token,
		RedirectURL: charge.RedirectURL,
		Total:       order.Total,
	}
	if applied != nil {
		v := applied.Voucher
		out.Voucher = &model.OrderVoucher{
			ID:             v.ID,
			Code:           v.Code,
			Name:           v.Name,
			Description:    v.Description,
			DiscountType:   v.DiscountType,
			DiscountValue:  v.DiscountValue,
			DiscountAmount: order.VoucherDiscount,
		}
	}
	s.log.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.String()))
	publishAsync(s.pub, s.log, queue.Envelope{
		Type: queue.TypeOrderCreated,
		Order: &queue.OrderEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Email:       order.Email,
			Total:       order.Total.String(),
			Status:      order.Status,
			VoucherCode: in.VoucherCode,
		},
	})
	return out, nil
}

// chargeRequest builds the gateway breakdown.  Shipping and the voucher
// discount become pseudo-items so the items sum to the gross amount.
func (s *OrderService) chargeRequest(o *model.Order, items []model.OrderItem) payment.ChargeRequest {
	lines := make([]payment.Item, 0, len(items)+2)
	for _, it := range items {
		lines = append(lines, payment.Item{
			ID:    strconv.FormatUint(it.ProductID, 10),
			Name:  it.Name,
			Price: it.Price.Round(0).IntPart(),
			Qty:   int32(it.Quantity),
		})
	}
	if o.ShippingFee.IsPositive() {
		lines = append(lines, payment.Item{ID: model.ShippingItemID, Name: "Shipping Fee", Price: o.ShippingFee.Round(0).IntPart(), Qty: 1})
	}
	if o.VoucherDiscount.IsPositive() {
		lines = append(lines, payment.Item{
			ID:    model.VoucherDiscountItemID,
			Name:  fmt.Sprintf("Voucher Discount %s", *o.VoucherCode),
			Price: -o.VoucherDiscount.Round(0).IntPart(),
			Qty:   1,
		})
	}
	req := payment.ChargeRequest{
		OrderID:     o.OrderNumber,
		GrossAmount: o.Total.Round(0).IntPart(),
		Customer:    payment.Customer{Name: o.CustomerName, Email: o.Email, Phone: o.Phone, Address: o.Address},
		Items:       lines,
	}
	if o.PaymentMethod != "" && o.PaymentMethod != "all" {
		req.EnabledPayments = []string{o.PaymentMethod}
	}
	return req
}

// GetByNumber returns an order with items and voucher details.
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	o, err := s.orders.GetByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundf("order not found")
	}
	if err != nil {
		return nil, Unexpected("failed to load order", err)
	}
	return o, nil
}

// GetByID returns an order with items and voucher details.
func (s *OrderService) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundf("order not found")
	}
	if err != nil {
		return nil, Unexpected("failed to load order", err)
	}
	return o, nil
}

// ListForUser returns the signed-in user's orders.
func (s *OrderService) ListForUser(ctx context.Context, who model.Requester) ([]model.Order, error) {
	if !who.Authenticated() {
		return nil, Validationf("login required")
	}
	list, err := s.orders.ListByUser(ctx, *who.UserID)
	if err != nil {
		return nil, Unexpected("failed to load orders", err)
	}
	return list, nil
}

// ListAll returns every order for the admin dashboard.
func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	list, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, Unexpected("failed to load orders", err)
	}
	return list, nil
}
