package booking

import (
	"context"
	"errors"
	"strings"

	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainuser "staynest/internal/domain/user"
)

const listGuestBookingsKey = "booking.guest.list"

type ListGuestBookingsQuery struct {
	GuestID string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (BookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return BookingCollection{}, errors.New("booking: guest id is required")
	}
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListByGuest(execCtx, domainuser.ID(guestID))
	if err != nil {
		return BookingCollection{}, err
	}

	views := make([]BookingView, 0, len(items))
	for _, bk := range items {
		views = append(views, mapBookingView(bk))
	}
	return BookingCollection{Items: views}, nil
}
