package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staynest/internal/app/commands"
	"staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/support"
	"staynest/internal/app/uow"
	domainpayment "staynest/internal/domain/payment"
)

const paymentCallbackKey = "payment.callback"

var ErrCallbackTxRefMissing = errors.New("payment: callback carries no transaction reference")

// PaymentCallbackCommand is the provider's push notification. It is
// unauthenticated: nothing in it is trusted except as a lookup key, and an
// unknown reference never creates state.
type PaymentCallbackCommand struct {
	TxRef          string
	ProviderStatus string
}

func (c PaymentCallbackCommand) Key() string { return paymentCallbackKey }

type PaymentCallbackResult struct {
	Payment PaymentView `json:"payment"`
	Applied bool        `json:"applied"`
}

type PaymentCallbackHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Archiver   policies.GatewayArchiver
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *PaymentCallbackHandler) Handle(ctx context.Context, cmd PaymentCallbackCommand) (*PaymentCallbackResult, error) {
	if h.UoWFactory == nil {
		return nil, ErrUnitOfWorkMissing
	}
	txRef := strings.TrimSpace(cmd.TxRef)
	if txRef == "" {
		return nil, ErrCallbackTxRefMissing
	}

	status := policies.MapProviderStatus(cmd.ProviderStatus)

	if raw, err := json.Marshal(map[string]string{"tx_ref": txRef, "status": cmd.ProviderStatus}); err == nil {
		archivePayload(ctx, h.Archiver, txRef, "callback", raw, h.Logger)
	}

	outcome, err := h.applyTransactional(ctx, txRef, status)
	if err != nil {
		return nil, err
	}

	fireNotification(ctx, h.Notifier, outcome.Notice, h.Logger)

	if h.Logger != nil {
		h.Logger.Info("payment callback processed", "tx_ref", txRef, "provider_status", cmd.ProviderStatus, "applied", outcome.Transitioned)
	}
	return &PaymentCallbackResult{Payment: mapPaymentView(outcome.Payment), Applied: outcome.Transitioned}, nil
}

func (h *PaymentCallbackHandler) applyTransactional(ctx context.Context, txRef string, status domainpayment.State) (applyOutcome, error) {
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

	outcome, err := applyProviderStatus(execCtx, unit, h.Outbox, h.encoder(), txRef, status, "", time.Now())
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

func (h *PaymentCallbackHandler) reloadAfterRace(ctx context.Context, txRef string) (applyOutcome, error) {
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

func (h *PaymentCallbackHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[PaymentCallbackCommand, *PaymentCallbackResult] = (*PaymentCallbackHandler)(nil)
