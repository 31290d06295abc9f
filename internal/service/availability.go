package service

import (
	"context"
	"database/sql"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/repository"
)

// AvailabilityChecker answers whether a table is free for a slot.  A table
// is free when no reservation outside {cancelled, no-show} overlaps the
// half-open window [start, start+duration).
type AvailabilityChecker struct {
	repo *repository.ReservationRepo
}

func NewAvailabilityChecker(repo *repository.ReservationRepo) *AvailabilityChecker {
	return &AvailabilityChecker{repo: repo}
}

// IsAvailable reports whether slot is free on the table.  excludeID skips
// one reservation so a reschedule does not collide with itself; pass 0 to
// check against every reservation.
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, roomType, tableNumber string, slot model.Slot, excludeID uint64) (bool, error) {
	n, err := a.repo.CountConflicts(ctx, roomType, tableNumber, slot, excludeID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// IsAvailableTx is IsAvailable inside the caller's transaction.
func (a *AvailabilityChecker) IsAvailableTx(ctx context.Context, tx *sql.Tx, roomType, tableNumber string, slot model.Slot, excludeID uint64) (bool, error) {
	n, err := a.repo.CountConflictsTx(ctx, tx, roomType, tableNumber, slot, excludeID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
