package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/queue"
	"github.com/ALVINfrs/caffeine/internal/repository"
	"github.com/ALVINfrs/caffeine/internal/utils"
)

const (
	defaultDurationHours = 2
	maxDurationHours     = 12
	defaultCancelReason  = "reservation cancelled by customer"
)

// ReservationService creates, reschedules and cancels table reservations.
// Every write runs in one transaction that first locks the table row, so
// the availability check and the write that depends on it see the same
// bookings.
type ReservationService struct {
	repo  *repository.ReservationRepo
	avail *AvailabilityChecker
	loc   *time.Location
	now   func() time.Time
	pub   Publisher
	log   *zap.Logger
}

// NewReservationService wires the lifecycle manager.  loc is the business
// time zone used to reject slots in the past.
func NewReservationService(repo *repository.ReservationRepo, loc *time.Location, pub Publisher, log *zap.Logger) *ReservationService {
	if loc == nil {
		loc = time.UTC
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	return &ReservationService{
		repo:  repo,
		avail: NewAvailabilityChecker(repo),
		loc:   loc,
		now:   time.Now,
		pub:   pub,
		log:   log,
	}
}

// Availability exposes the checker used by the lifecycle operations.
func (s *ReservationService) Availability() *AvailabilityChecker { return s.avail }

// CreateReservationInput is the booking request.
type CreateReservationInput struct {
	CustomerName    string `json:"customerName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ReservationDate string `json:"reservationDate"`
	ReservationTime string `json:"reservationTime"`
	DurationHours   int    `json:"durationHours"`
	RoomType        string `json:"roomType"`
	TableNumber     string `json:"tableNumber"`
	GuestCount      int    `json:"guestCount"`
	SpecialRequest  string `json:"specialRequest"`
}

// CreatedReservation is returned by Create.
type CreatedReservation struct {
	ReservationID     uint64          `json:"reservationId"`
	ReservationNumber string          `json:"reservationNumber"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	FormattedPrice    string          `json:"formattedPrice"`
}

// RescheduleInput moves a reservation to a new slot.
type RescheduleInput struct {
	NewDate       string `json:"newDate"`
	NewTime       string `json:"newTime"`
	DurationHours int    `json:"durationHours"`
}

func normalizeDuration(h int) (int, error) {
	if h == 0 {
		return defaultDurationHours, nil
	}
	if h < 1 || h > maxDurationHours {
		return 0, Validationf("duration must be between 1 and %d hours", maxDurationHours)
	}
	return h, nil
}

// slotFor parses and validates a requested window.  Windows that start
// before now in the business time zone are rejected.
func (s *ReservationService) slotFor(date, clock string, hours int, pastMsg string) (model.Slot, error) {
	hours, err := normalizeDuration(hours)
	if err != nil {
		return model.Slot{}, err
	}
	slot, err := model.ParseSlot(strings.TrimSpace(date), strings.TrimSpace(clock), hours)
	if err != nil {
		return model.Slot{}, Validationf("%s", err.Error())
	}
	if slot.Start(s.loc).Before(s.now().In(s.loc)) {
		return model.Slot{}, Validationf("%s", pastMsg)
	}
	return slot, nil
}

// publicNumber builds a human readable reference from the row id and the
// last six digits of the current unix millisecond clock, e.g. RES-42-381204.
func publicNumber(prefix string, id uint64, now time.Time) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, id, now.UnixMilli()%1_000_000)
}

// lockTable locks the table row and rejects unknown or disabled tables.
func (s *ReservationService) lockTable(ctx context.Context, tx *sql.Tx, roomType, tableNumber string) (model.RoomTable, error) {
	table, err := s.repo.LockTableTx(ctx, tx, roomType, tableNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return table, Validationf("table %s %s does not exist", roomType, tableNumber)
	}
	if err != nil {
		return table, Unexpected("failed to load table", err)
	}
	if !table.IsAvailable {
		return table, Validationf("table %s %s is not open for booking", roomType, tableNumber)
	}
	return table, nil
}

// Create books a table.  New reservations start confirmed; payment is
// settled in person.
func (s *ReservationService) Create(ctx context.Context, who model.Requester, in CreateReservationInput) (res *CreatedReservation, err error) {
	defer func() { reservationOps.WithLabelValues("create", outcome(err)).Inc() }()

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Email = model.NormalizeEmail(in.Email)
	if in.Email == "" {
		in.Email = who.Email
	}
	in.Phone = strings.TrimSpace(in.Phone)
	in.RoomType = strings.TrimSpace(in.RoomType)
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	if in.CustomerName == "" || in.Email == "" || in.Phone == "" || in.ReservationDate == "" ||
		in.ReservationTime == "" || in.RoomType == "" || in.TableNumber == "" {
		return nil, Validationf("incomplete reservation data")
	}
	if in.GuestCount == 0 {
		in.GuestCount = 1
	}
	if in.GuestCount < 0 {
		return nil, Validationf("guest count must be at least 1")
	}
	slot, err := s.slotFor(in.ReservationDate, in.ReservationTime, in.DurationHours, "cannot book a time that has already passed")
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, Unexpected("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	table, err := s.lockTable(ctx, tx, in.RoomType, in.TableNumber)
	if err != nil {
		return nil, err
	}
	ok, err := s.avail.IsAvailableTx(ctx, tx, in.RoomType, in.TableNumber, slot, 0)
	if err != nil {
		return nil, Unexpected("failed to check availability", err)
	}
	if !ok {
		return nil, Conflictf("table not available for the chosen time")
	}

	total := table.PricePerHour.Mul(decimal.NewFromInt(int64(slot.DurationHours)))
	r := &model.Reservation{
		UserID:          who.UserID,
		CustomerName:    in.CustomerName,
		Email:           in.Email,
		Phone:           in.Phone,
		ReservationDate: slot.Date,
		ReservationTime: slot.Time,
		DurationHours:   slot.DurationHours,
		RoomType:        in.RoomType,
		TableNumber:     in.TableNumber,
		GuestCount:      in.GuestCount,
		SpecialRequest:  strings.TrimSpace(in.SpecialRequest),
		PricePerHour:    table.PricePerHour,
		TotalPrice:      total,
		Status:          model.ReservationConfirmed,
	}
	if err := s.repo.CreateTx(ctx, tx, r); err != nil {
		return nil, Unexpected("failed to create reservation", err)
	}
	r.ReservationNumber = publicNumber("RES", r.ID, s.now())
	if err := s.repo.SetNumberTx(ctx, tx, r.ID, r.ReservationNumber); err != nil {
		return nil, Unexpected("failed to create reservation", err)
	}
	if err := s.repo.AddHistoryTx(ctx, tx, model.ReservationHistory{
		ReservationID: r.ID,
		Action:        model.HistoryCreated,
		NewDate:       &slot.Date,
		NewTime:       &slot.Time,
		Notes:         "reservation created",
	}); err != nil {
		return nil, Unexpected("failed to record history", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, Unexpected("failed to commit reservation", err)
	}
	committed = true

	s.log.Info("reservation created",
		zap.Uint64("reservation_id", r.ID),
		zap.String("reservation_number", r.ReservationNumber),
		zap.String("table", r.RoomType+"/"+r.TableNumber))
	s.publish(queue.TypeReservationCreated, r, "")
	return &CreatedReservation{
		ReservationID:     r.ID,
		ReservationNumber: r.ReservationNumber,
		TotalPrice:        total,
		FormattedPrice:    utils.FormatIDR(total),
	}, nil
}

// loadForUpdate locks a reservation row and checks the requester may act
// on it.  Reservations owned by an account are hidden from other accounts;
// guest reservations are addressed by id alone.
func (s *ReservationService) loadForUpdate(ctx context.Context, tx *sql.Tx, who model.Requester, id uint64) (*model.Reservation, error) {
	r, err := s.repo.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundf("reservation not found")
	}
	if err != nil {
		return nil, Unexpected("failed to load reservation", err)
	}
	if !canAccess(who, r) {
		return nil, NotFoundf("reservation not found")
	}
	return r, nil
}

func canAccess(who model.Requester, r *model.Reservation) bool {
	if r.UserID == nil || who.Role == model.RoleAdmin {
		return true
	}
	return who.UserID != nil && *who.UserID == *r.UserID
}

// Reschedule moves a pending or confirmed reservation to a new slot on the
// same table and reprices it at the table's current rate.
func (s *ReservationService) Reschedule(ctx context.Context, who model.Requester, id uint64, in RescheduleInput) (err error) {
	defer func() { reservationOps.WithLabelValues("reschedule", outcome(err)).Inc() }()

	if strings.TrimSpace(in.NewDate) == "" || strings.TrimSpace(in.NewTime) == "" {
		return Validationf("new date and time are required")
	}
	slot, err := s.slotFor(in.NewDate, in.NewTime, in.DurationHours, "cannot reschedule to a time that has already passed")
	if err != nil {
		return err
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return Unexpected("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	r, err := s.loadForUpdate(ctx, tx, who, id)
	if err != nil {
		return err
	}
	if !model.CanReschedule(r.Status) {
		return Conflictf("reservation with status %s cannot be rescheduled", r.Status)
	}
	table, err := s.lockTable(ctx, tx, r.RoomType, r.TableNumber)
	if err != nil {
		return err
	}
	ok, err := s.avail.IsAvailableTx(ctx, tx, r.RoomType, r.TableNumber, slot, r.ID)
	if err != nil {
		return Unexpected("failed to check availability", err)
	}
	if !ok {
		return Conflictf("the new time is not available")
	}

	total := table.PricePerHour.Mul(decimal.NewFromInt(int64(slot.DurationHours)))
	if err := s.repo.UpdateSlotTx(ctx, tx, r.ID, slot, table.PricePerHour, total); err != nil {
		return Unexpected("failed to reschedule reservation", err)
	}
	oldDate, oldTime := r.ReservationDate, r.ReservationTime
	if err := s.repo.AddHistoryTx(ctx, tx, model.ReservationHistory{
		ReservationID: r.ID,
		Action:        model.HistoryRescheduled,
		OldDate:       &oldDate,
		OldTime:       &oldTime,
		NewDate:       &slot.Date,
		NewTime:       &slot.Time,
		Notes:         "reservation rescheduled",
	}); err != nil {
		return Unexpected("failed to record history", err)
	}
	if err := tx.Commit(); err != nil {
		return Unexpected("failed to commit reschedule", err)
	}
	committed = true

	r.ReservationDate, r.ReservationTime, r.DurationHours = slot.Date, slot.Time, slot.DurationHours
	r.PricePerHour, r.TotalPrice = table.PricePerHour, total
	s.log.Info("reservation rescheduled",
		zap.Uint64("reservation_id", r.ID),
		zap.String("from", oldDate+" "+oldTime),
		zap.String("to", slot.Date+" "+slot.Time))
	s.publish(queue.TypeReservationRescheduled, r, "")
	return nil
}

// Cancel moves a reservation to cancelled.  Completed and already
// cancelled reservations are rejected.
func (s *ReservationService) Cancel(ctx context.Context, who model.Requester, id uint64, reason string) (err error) {
	defer func() { reservationOps.WithLabelValues("cancel", outcome(err)).Inc() }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return Unexpected("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	r, err := s.loadForUpdate(ctx, tx, who, id)
	if err != nil {
		return err
	}
	if !model.CanCancel(r.Status) {
		return Conflictf("reservation with status %s cannot be cancelled", r.Status)
	}
	if err := s.repo.UpdateStatusTx(ctx, tx, r.ID, model.ReservationCancelled); err != nil {
		return Unexpected("failed to cancel reservation", err)
	}
	if err := s.repo.AddHistoryTx(ctx, tx, model.ReservationHistory{
		ReservationID: r.ID,
		Action:        model.HistoryCancelled,
		Notes:         reason,
	}); err != nil {
		return Unexpected("failed to record history", err)
	}
	if err := tx.Commit(); err != nil {
		return Unexpected("failed to commit cancellation", err)
	}
	committed = true

	r.Status = model.ReservationCancelled
	s.log.Info("reservation cancelled", zap.Uint64("reservation_id", r.ID), zap.String("reason", reason))
	s.publish(queue.TypeReservationCancelled, r, reason)
	return nil
}

// UpdateStatus sets any known status without lifecycle guards and records
// it in the history.  It serves trusted admin callers.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint64, status, notes string) (err error) {
	defer func() { reservationOps.WithLabelValues("status", outcome(err)).Inc() }()

	if !model.IsKnownReservationStatus(status) {
		return Validationf("unknown reservation status %q", status)
	}
	if strings.TrimSpace(notes) == "" {
		notes = "status changed to " + status
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return Unexpected("failed to start transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.repo.UpdateStatusTx(ctx, tx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFoundf("reservation not found")
		}
		return Unexpected("failed to update reservation status", err)
	}
	if err := s.repo.AddHistoryTx(ctx, tx, model.ReservationHistory{
		ReservationID: id,
		Action:        status,
		Notes:         notes,
	}); err != nil {
		return Unexpected("failed to record history", err)
	}
	if err := tx.Commit(); err != nil {
		return Unexpected("failed to commit status update", err)
	}
	committed = true

	s.log.Info("reservation status updated", zap.Uint64("reservation_id", id), zap.String("status", status))
	s.publish(queue.TypeReservationStatus, &model.Reservation{ID: id, Status: status}, notes)
	return nil
}

func (s *ReservationService) publish(typ string, r *model.Reservation, notes string) {
	publishAsync(s.pub, s.log, queue.Envelope{
		Type: typ,
		Reservation: &queue.ReservationEvent{
			ReservationID:     r.ID,
			ReservationNumber: r.ReservationNumber,
			UserID:            r.UserID,
			Email:             r.Email,
			RoomType:          r.RoomType,
			TableNumber:       r.TableNumber,
			Date:              r.ReservationDate,
			Time:              r.ReservationTime,
			DurationHours:     r.DurationHours,
			TotalPrice:        r.TotalPrice.String(),
			Status:            r.Status,
			Notes:             notes,
		},
	})
}
