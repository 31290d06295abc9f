package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/repository"
	"github.com/ALVINfrs/caffeine/internal/utils"
)

const (
	msgVoucherInvalid = "voucher code is not valid or inactive"
	msgVoucherUsed    = "you have already used this voucher"
)

// VoucherResult is the outcome of a validation.  Voucher and
// DiscountAmount are only set when Valid is true.
type VoucherResult struct {
	Valid          bool            `json:"valid"`
	Voucher        *model.Voucher  `json:"voucher,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message"`
}

// VoucherService validates discount codes and records their use.
// Validate never writes; usage is recorded only by the order transaction.
type VoucherService struct {
	repo *repository.VoucherRepo
	now  func() time.Time
	log  *zap.Logger
}

func NewVoucherService(repo *repository.VoucherRepo, log *zap.Logger) *VoucherService {
	return &VoucherService{repo: repo, now: time.Now, log: log}
}

func invalid(msg string) *VoucherResult {
	voucherChecks.WithLabelValues("invalid").Inc()
	return &VoucherResult{Valid: false, DiscountAmount: decimal.Zero, Message: msg}
}

// Validate checks code for who against orderTotal.  Checks short-circuit
// in order: exists, active and unexpired; minimum order; not used before
// by the same account or email.  Business rejections come back as an
// invalid result, errors only for storage failures.
func (s *VoucherService) Validate(ctx context.Context, code string, who model.Requester, orderTotal decimal.Decimal) (*VoucherResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return invalid(msgVoucherInvalid), nil
	}
	v, err := s.repo.GetActiveByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid(msgVoucherInvalid), nil
	}
	if err != nil {
		return nil, Unexpected("failed to validate voucher", err)
	}
	if v.Expired(s.now()) {
		return invalid(msgVoucherInvalid), nil
	}
	if orderTotal.LessThan(v.MinOrder) {
		return invalid("minimum order for this voucher is " + utils.FormatIDR(v.MinOrder)), nil
	}
	used, err := s.repo.HasUsage(ctx, v.ID, who.UserID, model.NormalizeEmail(who.Email))
	if err != nil {
		return nil, Unexpected("failed to validate voucher", err)
	}
	if used {
		return invalid(msgVoucherUsed), nil
	}
	voucherChecks.WithLabelValues("valid").Inc()
	return &VoucherResult{
		Valid:          true,
		Voucher:        v,
		DiscountAmount: v.Discount(orderTotal),
		Message:        "voucher applied",
	}, nil
}

// RecordUsageTx marks the voucher as consumed by who inside tx.  A
// concurrent checkout that already consumed it surfaces as a conflict.
func (s *VoucherService) RecordUsageTx(ctx context.Context, tx *sql.Tx, voucherID uint64, who model.Requester) error {
	err := s.repo.RecordUsageTx(ctx, tx, voucherID, who.UserID, model.NormalizeEmail(who.Email))
	if errors.Is(err, repository.ErrDuplicate) {
		return Conflictf(msgVoucherUsed)
	}
	if err != nil {
		return Unexpected("failed to record voucher usage", err)
	}
	return nil
}

// ListActive returns vouchers customers can currently apply.
func (s *VoucherService) ListActive(ctx context.Context) ([]model.Voucher, error) {
	vs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, Unexpected("failed to load vouchers", err)
	}
	return vs, nil
}

// ListAll returns every voucher for the admin dashboard.
func (s *VoucherService) ListAll(ctx context.Context) ([]model.Voucher, error) {
	vs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, Unexpected("failed to load vouchers", err)
	}
	return vs, nil
}
