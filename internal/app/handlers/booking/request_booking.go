package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staynest/internal/app/commands"
	"staynest/internal/app/middleware"
	"staynest/internal/app/outbox"
	"staynest/internal/app/uow"
	domainavailability "staynest/internal/domain/availability"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
	domainuser "staynest/internal/domain/user"
)

const requestBookingKey = "booking.request"

var (
	ErrNotAvailable      = errors.New("booking: listing is not available for the selected dates")
	ErrUnitOfWorkMissing = errors.New("booking: unit of work required")
)

type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Total     string `json:"total"`
	Currency  string `json:"currency"`
}

// RequestBookingHandler admits or rejects a stay request. The availability
// check and the booking insert share one unit of work so two concurrent
// requests for overlapping ranges cannot both succeed.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    domainpricing.Calculator
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	// Concurrent requests insert distinct booking documents, so the
	// availability read alone gives the storage layer nothing to conflict
	// on. Writing the listing row ties every request for the same listing
	// to one document: the loser fails its version check instead of
	// slipping an overlapping booking past the check below.
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	engine := domainavailability.Engine{Bookings: unit.Bookings()}
	available, err := engine.IsAvailable(ctx, listing.ID, dr, "")
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrNotAvailable
	}

	total, err := h.calculator().Quote(ctx, listing, dr)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bk, err := domainbooking.New(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		ListingID: listing.ID,
		GuestID:   domainuser.ID(cmd.GuestID),
		Range:     dr,
		Total:     total,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}

	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", bk.ID, "listing_id", listing.ID, "nights", dr.Nights(), "total", total.Decimal())
	}

	return &RequestBookingResult{
		BookingID: string(bk.ID),
		Total:     total.Decimal(),
		Currency:  total.Currency,
	}, nil
}

func (h *RequestBookingHandler) calculator() domainpricing.Calculator {
	if h.Pricing != nil {
		return h.Pricing
	}
	return domainpricing.NightlyCalculator{}
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
