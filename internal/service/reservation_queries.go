package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ALVINfrs/caffeine/internal/model"
	"github.com/ALVINfrs/caffeine/internal/repository"
	"github.com/ALVINfrs/caffeine/internal/utils"
)

// TableView is a bookable table with its display price.
type TableView struct {
	model.RoomTable
	FormattedPrice string `json:"formatted_price"`
}

// RoomGroup lists the tables of one room type.  PricePerHour is the
// average rate across the room's tables.
type RoomGroup struct {
	Type         string          `json:"type"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PricePerHour decimal.Decimal `json:"pricePerHour"`
	Tables       []TableView     `json:"tables"`
}

// Quote answers a check-availability request.
type Quote struct {
	Available      bool            `json:"available"`
	PricePerHour   decimal.Decimal `json:"pricePerHour"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	FormattedPrice string          `json:"formattedPrice"`
}

// ReservationView decorates a reservation with display fields.
type ReservationView struct {
	model.Reservation
	StatusName     string `json:"status_name"`
	RoomName       string `json:"room_name"`
	FormattedDate  string `json:"formatted_date"`
	FormattedTime  string `json:"formatted_time"`
	EndTime        string `json:"end_time"`
	FormattedPrice string `json:"formatted_price"`
}

func viewOf(r model.Reservation) ReservationView {
	v := ReservationView{
		Reservation:    r,
		StatusName:     model.ReservationStatusName(r.Status),
		RoomName:       model.RoomName(r.RoomType),
		FormattedTime:  r.ReservationTime,
		EndTime:        r.Slot().EndClock(),
		FormattedPrice: utils.FormatIDR(r.TotalPrice),
	}
	if d, err := time.Parse(model.DateLayout, r.ReservationDate); err == nil {
		v.FormattedDate = d.Format("2/1/2006")
	}
	return v
}

func viewsOf(rs []model.Reservation) []ReservationView {
	out := make([]ReservationView, 0, len(rs))
	for _, r := range rs {
		out = append(out, viewOf(r))
	}
	return out
}

// ListRooms groups bookable tables by room type in table order.
func (s *ReservationService) ListRooms(ctx context.Context) ([]RoomGroup, error) {
	tables, err := s.repo.ListAvailableTables(ctx)
	if err != nil {
		return nil, Unexpected("failed to load rooms", err)
	}
	groups := make([]RoomGroup, 0)
	index := map[string]int{}
	for _, t := range tables {
		i, ok := index[t.RoomType]
		if !ok {
			i = len(groups)
			index[t.RoomType] = i
			groups = append(groups, RoomGroup{
				Type:        t.RoomType,
				Name:        model.RoomName(t.RoomType),
				Description: model.RoomDescription(t.RoomType),
			})
		}
		groups[i].Tables = append(groups[i].Tables, TableView{RoomTable: t, FormattedPrice: utils.FormatIDR(t.PricePerHour)})
	}
	for i := range groups {
		sum := decimal.Zero
		for _, t := range groups[i].Tables {
			sum = sum.Add(t.PricePerHour)
		}
		groups[i].PricePerHour = sum.Div(decimal.NewFromInt(int64(len(groups[i].Tables)))).Round(0)
	}
	return groups, nil
}

// Quote checks a slot without booking it.  Past slots are quoted like any
// other; only booking rejects them.
func (s *ReservationService) Quote(ctx context.Context, roomType, tableNumber, date, clock string, hours int) (*Quote, error) {
	if roomType == "" || tableNumber == "" || date == "" || clock == "" {
		return nil, Validationf("incomplete parameters")
	}
	hours, err := normalizeDuration(hours)
	if err != nil {
		return nil, err
	}
	slot, err := model.ParseSlot(date, clock, hours)
	if err != nil {
		return nil, Validationf("%s", err.Error())
	}
	price, err := s.repo.TablePrice(ctx, roomType, tableNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundf("table %s %s does not exist", roomType, tableNumber)
	}
	if err != nil {
		return nil, Unexpected("failed to check availability", err)
	}
	ok, err := s.avail.IsAvailable(ctx, roomType, tableNumber, slot, 0)
	if err != nil {
		return nil, Unexpected("failed to check availability", err)
	}
	total := price.Mul(decimal.NewFromInt(int64(hours)))
	return &Quote{Available: ok, PricePerHour: price, TotalPrice: total, FormattedPrice: utils.FormatIDR(total)}, nil
}

// GetByNumber returns a reservation by its public number.
func (s *ReservationService) GetByNumber(ctx context.Context, number string) (*ReservationView, error) {
	r, err := s.repo.GetByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundf("reservation not found")
	}
	if err != nil {
		return nil, Unexpected("failed to load reservation", err)
	}
	v := viewOf(*r)
	return &v, nil
}

// ListForUser returns the signed-in user's reservations.
func (s *ReservationService) ListForUser(ctx context.Context, who model.Requester) ([]ReservationView, error) {
	if !who.Authenticated() {
		return nil, Validationf("login required")
	}
	rs, err := s.repo.ListByUser(ctx, *who.UserID)
	if err != nil {
		return nil, Unexpected("failed to load reservations", err)
	}
	return viewsOf(rs), nil
}

// ListAll returns every reservation for the admin dashboard.
func (s *ReservationService) ListAll(ctx context.Context) ([]ReservationView, error) {
	rs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, Unexpected("failed to load reservations", err)
	}
	return viewsOf(rs), nil
}

// History returns the lifecycle log of a reservation, newest first.
func (s *ReservationService) History(ctx context.Context, who model.Requester, id uint64) ([]model.ReservationHistory, error) {
	r, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundf("reservation not found")
	}
	if err != nil {
		return nil, Unexpected("failed to load reservation", err)
	}
	if !canAccess(who, r) {
		return nil, NotFoundf("reservation not found")
	}
	h, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, Unexpected("failed to load history", err)
	}
	return h, nil
}
