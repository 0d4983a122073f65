package payment

import (
	"context"

	"staynest/internal/app/queries"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	"staynest/internal/domain/booking"
	"staynest/internal/domain/user"
)

const paymentStatusKey = "payment.status"

// PaymentStatusQuery reads the stored payment for a booking. It never talks
// to the provider; VerifyPaymentCommand is the pull path for that.
type PaymentStatusQuery struct {
	BookingID booking.BookingID
	CallerID  user.ID
}

func (q PaymentStatusQuery) Key() string { return paymentStatusKey }

type PaymentStatusHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *PaymentStatusHandler) Handle(ctx context.Context, q PaymentStatusQuery) (*PaymentView, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bk, err := unit.Bookings().ByID(execCtx, q.BookingID)
	if err != nil {
		return nil, err
	}
	if bk.GuestID != q.CallerID {
		lst, lerr := unit.Listings().ByID(execCtx, bk.ListingID)
		if lerr != nil || lst.Host != q.CallerID {
			return nil, ErrNotBookingParty
		}
	}

	pay, err := unit.Payments().ByBooking(execCtx, bk.ID)
	if err != nil {
		return nil, err
	}
	view := mapPaymentView(pay)
	return &view, nil
}

var _ queries.Handler[PaymentStatusQuery, *PaymentView] = (*PaymentStatusHandler)(nil)
