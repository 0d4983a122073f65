package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainpayment "staynest/internal/domain/payment"
)

var (
	ErrNotBookingGuest   = errors.New("payment: only the booking's guest may do this")
	ErrNotBookingParty   = errors.New("payment: caller is neither the guest nor the host")
	ErrBookingNotPayable = errors.New("payment: booking is not payable")
	ErrUnitOfWorkMissing = errors.New("payment: unit of work required")
)

func isNotFound(err error) bool {
	return errors.Is(err, domainpayment.ErrNotFound)
}

// PaymentView is the serialized shape shared by every payment operation.
type PaymentView struct {
	PaymentID   string    `json:"payment_id"`
	BookingID   string    `json:"booking_id"`
	TxRef       string    `json:"tx_ref"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func mapPaymentView(p *domainpayment.Payment) PaymentView {
	return PaymentView{
		PaymentID:   string(p.ID),
		BookingID:   string(p.BookingID),
		TxRef:       p.TxRef,
		CheckoutURL: p.CheckoutURL,
		Amount:      p.Amount.Decimal(),
		Currency:    p.Amount.Currency,
		Status:      string(p.State),
		ProviderRef: p.ProviderRef,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// applyOutcome is what a reconciliation pass produced: the payment after the
// transition (or as stored if none applied) and, when this pass confirmed
// the booking, the notice to fire after commit.
type applyOutcome struct {
	Payment      *domainpayment.Payment
	Transitioned bool
	Notice       *policies.ConfirmationNotice
}

// applyProviderStatus runs the shared status-mapping transition rule inside
// the provided unit of work: completed freezes the payment and confirms the
// booking, failed freezes the payment and cancels the booking, pending
// changes nothing. Terminal payments are left untouched.
func applyProviderStatus(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, enc outbox.EventEncoder, txRef string, status domainpayment.State, providerRef string, now time.Time) (applyOutcome, error) {
	pay, err := unit.Payments().ByTxRef(ctx, txRef)
	if err != nil {
		return applyOutcome{}, err
	}
	if pay.IsTerminal() || status == domainpayment.StatePending {
		return applyOutcome{Payment: pay}, nil
	}

	bk, err := unit.Bookings().ByID(ctx, pay.BookingID)
	if err != nil {
		return applyOutcome{}, err
	}

	outcome := applyOutcome{Payment: pay, Transitioned: true}
	switch status {
	case domainpayment.StateCompleted:
		if err := pay.Complete(providerRef, now); err != nil {
			return applyOutcome{}, err
		}
		if err := bk.Confirm(now); err != nil {
			return applyOutcome{}, err
		}
		notice, err := buildConfirmationNotice(ctx, unit, bk)
		if err != nil {
			return applyOutcome{}, err
		}
		outcome.Notice = notice
	case domainpayment.StateFailed:
		if err := pay.Fail(providerRef, now); err != nil {
			return applyOutcome{}, err
		}
		if err := bk.Cancel("payment failed", now); err != nil {
			return applyOutcome{}, err
		}
	default:
		return applyOutcome{Payment: pay}, nil
	}

	if err := unit.Payments().Save(ctx, pay); err != nil {
		return applyOutcome{}, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return applyOutcome{}, err
	}

	pendingEvents := append(pay.PendingEvents(), bk.PendingEvents()...)
	pay.ClearEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, box, enc, pendingEvents); err != nil {
		return applyOutcome{}, err
	}
	return outcome, nil
}

func buildConfirmationNotice(ctx context.Context, unit uow.UnitOfWork, bk *domainbooking.Booking) (*policies.ConfirmationNotice, error) {
	notice := &policies.ConfirmationNotice{
		BookingID: bk.ID,
		CheckIn:   bk.Range.CheckIn,
		CheckOut:  bk.Range.CheckOut,
		Total:     bk.Total,
	}
	guest, err := unit.Users().ByID(ctx, bk.GuestID)
	if err != nil {
		return nil, err
	}
	notice.GuestEmail = guest.Email
	notice.GuestName = guest.FullName()
	if listing, err := unit.Listings().ByID(ctx, bk.ListingID); err == nil {
		notice.ListingTitle = listing.Title
		notice.Location = listing.Location
	}
	return notice, nil
}

// fireNotification delivers the confirmation best-effort after the
// transaction committed. Failures are logged and never propagated.
func fireNotification(ctx context.Context, notifier policies.Notifier, notice *policies.ConfirmationNotice, logger *slog.Logger) {
	if notifier == nil || notice == nil {
		return
	}
	if err := notifier.BookingConfirmed(ctx, *notice); err != nil && logger != nil {
		logger.Error("confirmation notification failed", "booking_id", notice.BookingID, "error", err)
	}
}

// archivePayload stores a raw provider payload for later reconciliation
// disputes. Best-effort.
func archivePayload(ctx context.Context, archiver policies.GatewayArchiver, txRef, event string, payload []byte, logger *slog.Logger) {
	if archiver == nil || len(payload) == 0 {
		return
	}
	if err := archiver.Archive(ctx, txRef, event, payload); err != nil && logger != nil {
		logger.Warn("gateway payload archive failed", "tx_ref", txRef, "event", event, "error", err)
	}
}
