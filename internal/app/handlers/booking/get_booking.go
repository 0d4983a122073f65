package booking

import (
	"context"
	"errors"
	"time"

	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainuser "staynest/internal/domain/user"
)

const getBookingKey = "booking.get"

var ErrNotBookingParty = errors.New("booking: caller is neither the guest nor the host")

type GetBookingQuery struct {
	BookingID string
	CallerID  string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type BookingView struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	GuestID   string    `json:"guest_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Total     string    `json:"total"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*BookingView, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bk, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(execCtx, bk.ListingID)
	if err != nil {
		return nil, err
	}
	caller := domainuser.ID(q.CallerID)
	if bk.GuestID != caller && listing.Host != caller {
		return nil, ErrNotBookingParty
	}

	view := mapBookingView(bk)
	return &view, nil
}

func mapBookingView(bk *domainbooking.Booking) BookingView {
	return BookingView{
		BookingID: string(bk.ID),
		ListingID: string(bk.ListingID),
		GuestID:   string(bk.GuestID),
		CheckIn:   bk.Range.CheckIn,
		CheckOut:  bk.Range.CheckOut,
		Total:     bk.Total.Decimal(),
		Currency:  bk.Total.Currency,
		Status:    string(bk.State),
		CreatedAt: bk.CreatedAt,
	}
}
