package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staynest/internal/app/commands"
	"staynest/internal/app/middleware"
	"staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

const initiatePaymentKey = "payment.initiate"

type InitiatePaymentCommand struct {
	BookingID       string
	GuestID         string
	ReturnURL       string
	IdempotencyKeyV string
}

func (c InitiatePaymentCommand) Key() string { return initiatePaymentKey }

func (c InitiatePaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c InitiatePaymentCommand) ResultPrototype() any { return &InitiatePaymentResult{} }

type InitiatePaymentResult struct {
	Payment     PaymentView `json:"payment"`
	CheckoutURL string      `json:"checkout_url"`
}

// InitiatePaymentHandler creates the single external checkout attempt for a
// booking. It deliberately manages its own units of work: the provider call
// happens between a read snapshot and the transactional insert, so no
// booking/payment lock is held across the network round trip.
type InitiatePaymentHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Archiver   policies.GatewayArchiver
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *InitiatePaymentHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (*InitiatePaymentResult, error) {
	if h.UoWFactory == nil {
		return nil, ErrUnitOfWorkMissing
	}

	bk, guest, err := h.loadPayableBooking(ctx, cmd)
	if err != nil {
		return nil, err
	}

	res, err := h.Gateway.Initiate(ctx, policies.InitiateRequest{
		BookingID:  bk.ID,
		Amount:     bk.Total,
		Email:      guest.Email,
		FirstName:  guest.FirstName,
		LastName:   guest.LastName,
		Phone:      guest.Phone,
		ReturnURL:  cmd.ReturnURL,
		Descriptor: fmt.Sprintf("Payment for booking %s", bk.ID),
	})
	if err != nil {
		// Surfaced verbatim: no payment record exists for a failed initiation.
		return nil, err
	}
	archivePayload(ctx, h.Archiver, res.TxRef, "initiate", res.Raw, h.Logger)

	pay, err := h.persistPayment(ctx, bk, res)
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("payment initiated", "booking_id", bk.ID, "tx_ref", pay.TxRef, "amount", pay.Amount.Decimal())
	}
	return &InitiatePaymentResult{
		Payment:     mapPaymentView(pay),
		CheckoutURL: pay.CheckoutURL,
	}, nil
}

// loadPayableBooking snapshots and validates the booking outside any write
// lock: it must exist, belong to the caller, still be pending, and have no
// payment yet.
func (h *InitiatePaymentHandler) loadPayableBooking(ctx context.Context, cmd InitiatePaymentCommand) (*domainbooking.Booking, *domainuser.User, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bk, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, nil, err
	}
	if bk.GuestID != domainuser.ID(cmd.GuestID) {
		return nil, nil, ErrNotBookingGuest
	}
	if bk.State != domainbooking.StatePending {
		return nil, nil, ErrBookingNotPayable
	}
	if _, err := unit.Payments().ByBooking(execCtx, bk.ID); err == nil {
		return nil, nil, domainpayment.ErrAlreadyExists
	} else if !isNotFound(err) {
		return nil, nil, err
	}
	guest, err := unit.Users().ByID(execCtx, bk.GuestID)
	if err != nil {
		return nil, nil, err
	}
	return bk, guest, nil
}

// persistPayment re-checks the uniqueness constraint inside the write
// transaction; the snapshot check above only keeps a doomed provider call
// from happening in the common case.
func (h *InitiatePaymentHandler) persistPayment(ctx context.Context, bk *domainbooking.Booking, res policies.InitiateResult) (*domainpayment.Payment, error) {
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	execCtx := uow.ContextWithUnitOfWork(ctx, unit)
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = uow.ContextWithUnitOfWork(injector.InjectContext(ctx), unit)
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	if _, err := unit.Payments().ByBooking(execCtx, bk.ID); err == nil {
		return nil, domainpayment.ErrAlreadyExists
	} else if !isNotFound(err) {
		return nil, err
	}

	pay, err := domainpayment.New(domainpayment.CreateParams{
		ID:          domainpayment.PaymentID(uuid.NewString()),
		BookingID:   bk.ID,
		TxRef:       res.TxRef,
		CheckoutURL: res.CheckoutURL,
		Amount:      bk.Total,
		ProviderRef: res.ProviderRef,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(execCtx, pay); err != nil {
		return nil, err
	}

	pending := pay.PendingEvents()
	pay.ClearEvents()
	if err := outbox.RecordDomainEvents(execCtx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	return pay, nil
}

func (h *InitiatePaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[InitiatePaymentCommand, *InitiatePaymentResult] = (*InitiatePaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*InitiatePaymentCommand)(nil)
