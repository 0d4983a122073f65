package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staynest/internal/app/commands"
	"staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainbooking "staynest/internal/domain/booking"
	domainpayment "staynest/internal/domain/payment"
	domainuser "staynest/internal/domain/user"
)

const verifyPaymentKey = "payment.verify"

// VerifyPaymentCommand pulls the provider's state for a payment, addressed
// either by booking or by transaction reference.
type VerifyPaymentCommand struct {
	BookingID string
	TxRef     string
	CallerID  string
}

func (c VerifyPaymentCommand) Key() string { return verifyPaymentKey }

type VerifyPaymentResult struct {
	Payment PaymentView `json:"payment"`
	// Applied reports whether this call performed the state transition;
	// repeated verifies of a terminal payment return false.
	Applied bool `json:"applied"`
}

type VerifyPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Notifier   policies.Notifier
	Archiver   policies.GatewayArchiver
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*VerifyPaymentResult, error) {
	if h.UoWFactory == nil {
		return nil, ErrUnitOfWorkMissing
	}

	snapshot, err := h.loadAuthorized(ctx, cmd)
	if err != nil {
		return nil, err
	}
	// Terminal payments are frozen: answer from storage without touching
	// the provider again.
	if snapshot.IsTerminal() {
		view := mapPaymentView(snapshot)
		return &VerifyPaymentResult{Payment: view}, nil
	}

	res, err := h.Gateway.Verify(ctx, snapshot.TxRef)
	if err != nil {
		// Network errors leave the payment pending and are retryable by the
		// caller; business errors surface as-is.
		return nil, err
	}
	archivePayload(ctx, h.Archiver, snapshot.TxRef, "verify", res.Raw, h.Logger)

	outcome, err := h.applyTransactional(ctx, snapshot.TxRef, res.Status, res.ProviderRef)
	if err != nil {
		return nil, err
	}

	fireNotification(ctx, h.Notifier, outcome.Notice, h.Logger)

	if h.Logger != nil && outcome.Transitioned {
		h.Logger.Info("payment verified", "tx_ref", snapshot.TxRef, "status", outcome.Payment.State)
	}
	return &VerifyPaymentResult{Payment: mapPaymentView(outcome.Payment), Applied: outcome.Transitioned}, nil
}

func (h *VerifyPaymentHandler) loadAuthorized(ctx context.Context, cmd VerifyPaymentCommand) (*domainpayment.Payment, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var pay *domainpayment.Payment
	switch {
	case strings.TrimSpace(cmd.TxRef) != "":
		pay, err = unit.Payments().ByTxRef(execCtx, strings.TrimSpace(cmd.TxRef))
	case strings.TrimSpace(cmd.BookingID) != "":
		pay, err = unit.Payments().ByBooking(execCtx, domainbooking.BookingID(cmd.BookingID))
	default:
		return nil, domainpayment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	bk, err := unit.Bookings().ByID(execCtx, pay.BookingID)
	if err != nil {
		return nil, err
	}
	if bk.GuestID != domainuser.ID(cmd.CallerID) {
		return nil, ErrNotBookingGuest
	}
	return pay, nil
}

// applyTransactional runs the shared transition rule in its own unit of
// work. A concurrent webhook racing this verify loses the version check;
// the loser reloads and reports the already-applied state.
func (h *VerifyPaymentHandler) applyTransactional(ctx context.Context, txRef string, status domainpayment.State, providerRef string) (applyOutcome, error) {
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return applyOutcome{}, err
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

	outcome, err := applyProviderStatus(execCtx, unit, h.Outbox, h.encoder(), txRef, status, providerRef, time.Now())
	if err != nil {
		if errors.Is(err, uow.ErrConcurrentUpdate) {
			return h.reloadAfterRace(ctx, txRef)
		}
		return applyOutcome{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		if errors.Is(err, uow.ErrConcurrentUpdate) {
			return h.reloadAfterRace(ctx, txRef)
		}
		return applyOutcome{}, err
	}
	committed = true
	return outcome, nil
}

// reloadAfterRace fetches the payment as the winning writer left it; no
// notification fires from the losing side.
func (h *VerifyPaymentHandler) reloadAfterRace(ctx context.Context, txRef string) (applyOutcome, error) {
	unit, execCtx, cleanup, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return applyOutcome{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	pay, err := unit.Payments().ByTxRef(execCtx, txRef)
	if err != nil {
		return applyOutcome{}, err
	}
	return applyOutcome{Payment: pay}, nil
}

func (h *VerifyPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[VerifyPaymentCommand, *VerifyPaymentResult] = (*VerifyPaymentHandler)(nil)
